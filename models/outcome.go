package models

// ThreeDSecureContext is the step-up payload returned when an enrollment check
// finds the card enrolled: the caller must redirect the cardholder to the ACS
// and come back with a PARes for the validate step.
type ThreeDSecureContext struct {
	ACSURL string `json:"acs_url"`
	PAReq  string `json:"pa_req"`
	XID    string `json:"xid"`
}

// TransactionOutcome is the classified result of one gateway operation.
// Success is true only for reason codes in the approved set; a 3DS enrollment
// reply has Success=false, Pending=true even though the call itself did not
// fail. Control flow must use Success/Pending/ReasonCode, never Message.
type TransactionOutcome struct {
	Success    bool              `json:"success"`
	Pending    bool              `json:"pending"`
	ReasonCode string            `json:"reason_code"`
	Message    string            `json:"message"`
	RawFields  map[string]string `json:"raw_fields,omitempty"`

	// Authorization is the opaque token for follow-on operations. Populated
	// only on success; a dependent operation's success yields a new token.
	Authorization string `json:"authorization,omitempty"`

	// ThreeDSecure is populated only on a pending enrollment reply.
	ThreeDSecure *ThreeDSecureContext `json:"three_d_secure,omitempty"`
}

// APIResponse is the JSON envelope for every HTTP endpoint.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
