package models

// PaymentMethod is the closed set of payment method shapes the gateway accepts:
// a raw card, a network-tokenized card, or a reference to a stored profile.
// The request builder checks capability per operation; there is no duck typing.
type PaymentMethod interface {
	paymentMethod()
}

// CreditCard is a raw card supplied by the cardholder.
type CreditCard struct {
	Number            string `json:"number"`
	Month             string `json:"month"` // "01".."12"
	Year              string `json:"year"`  // four digits
	VerificationValue string `json:"verification_value"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Brand             string `json:"brand"` // "visa", "master", "elo", ...
}

func (CreditCard) paymentMethod() {}

// NetworkTokenCard is a network-tokenized card: a device PAN plus the
// network-issued payment cryptogram and ECI.
type NetworkTokenCard struct {
	CreditCard
	PaymentCryptogram string `json:"payment_cryptogram"`
	ECI               string `json:"eci"`
}

func (NetworkTokenCard) paymentMethod() {}

// ProfileReference points at a stored payment profile by the authorization
// token returned from a prior store call.
type ProfileReference struct {
	Authorization string `json:"authorization"`
}

func (ProfileReference) paymentMethod() {}

// StoredCredential carries card-on-file metadata for a charge: who initiated
// it, why, and whether it is the first in its series. For a non-initial
// merchant-initiated charge the caller-supplied network transaction id is
// forwarded unchanged.
type StoredCredential struct {
	Initiator            string `json:"initiator"`   // "cardholder" or "merchant"
	ReasonType           string `json:"reason_type"` // "", "unscheduled", "recurring", "installment"
	InitialTransaction   bool   `json:"initial_transaction"`
	NetworkTransactionID string `json:"network_transaction_id"`
}

// ThreeDSecure holds normalized 3DS 2.x passthrough authentication fields.
// They are forwarded verbatim on authorize/purchase with no extra round trip.
type ThreeDSecure struct {
	Version                      string `json:"version"`
	ECI                          string `json:"eci"`
	CAVV                         string `json:"cavv"`
	XID                          string `json:"xid"`
	DSTransactionID              string `json:"ds_transaction_id"`
	CAVVAlgorithm                int    `json:"cavv_algorithm"`
	Enrolled                     string `json:"enrolled"`
	AuthenticationResponseStatus string `json:"authentication_response_status"`
}

// Subscription describes the recurring schedule attached to a store call.
type Subscription struct {
	Frequency        string `json:"frequency"`  // "weekly", "monthly", ... defaults to "on-demand"
	StartDate        string `json:"start_date"` // "2006-01-02"
	Occurrences      int    `json:"occurrences"`
	AutoRenew        bool   `json:"auto_renew"`
	AmountMinorUnits int64  `json:"amount"`
}

// Address is a billing address. Empty fields are omitted from the outbound
// request rather than sent as blanks.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
}

// LineItem is a purchase line forwarded to the provider and to tax calculation.
// Monetary fields are cents-style minor units.
type LineItem struct {
	DeclaredValueMinorUnits int64  `json:"declared_value"`
	Quantity                int    `json:"quantity"`
	Code                    string `json:"code"`
	Description             string `json:"description"`
	SKU                     string `json:"sku"`
	TaxAmountMinorUnits     int64  `json:"tax_amount"`
	NationalTaxMinorUnits   int64  `json:"national_tax"`
}
