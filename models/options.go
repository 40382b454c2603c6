package models

// TransactionOptions is the recognized option set for every operation. It is a
// typed structure on purpose: unknown caller keys have nowhere to go, so they
// are rejected at the JSON boundary instead of silently forwarded to the
// provider. All optional fields are additive and order-independent.
type TransactionOptions struct {
	OrderID  string `json:"order_id"`
	Currency string `json:"currency"`
	Email    string `json:"email"`

	BillingAddress *Address   `json:"billing_address"`
	LineItems      []LineItem `json:"line_items"`

	MerchantDescriptor   string         `json:"merchant_descriptor"`
	IssuerAdditionalData string         `json:"issuer_additional_data"`
	MDDFields            map[int]string `json:"mdd_fields"` // merchant-defined data, keys 1..N
	ReconciliationID     string         `json:"reconciliation_id"`
	CustomerID           string         `json:"customer_id"`
	UserPO               string         `json:"user_po"`
	Taxable              bool           `json:"taxable"`

	InstallmentTotalCount int    `json:"installment_total_count"`
	InstallmentPlanType   int    `json:"installment_plan_type"`
	FirstInstallmentDate  string `json:"first_installment_date"` // "YYMMDD"

	MerchantTaxID    string `json:"merchant_tax_id"`
	SalesSlipNumber  string `json:"sales_slip_number"`
	AirlineAgentCode string `json:"airline_agent_code"`

	NationalTaxIndicator int    `json:"national_tax_indicator"`
	NationalTaxAmount    string `json:"national_tax_amount"` // decimal string, e.g. "0.05"
	LocalTaxAmount       string `json:"local_tax_amount"`

	IgnoreAVS bool `json:"ignore_avs"`
	IgnoreCVV bool `json:"ignore_cvv"`

	DecisionManagerEnabled *bool  `json:"decision_manager_enabled"`
	DecisionManagerProfile string `json:"decision_manager_profile"`

	StoredCredential    *StoredCredential `json:"stored_credential"`
	CommerceIndicator   string            `json:"commerce_indicator"` // explicit override always wins
	CollectionIndicator int               `json:"collection_indicator"`

	// Verification behavior: when true and the card network supports it, verify
	// sends a true zero amount instead of the smallest unit.
	ZeroAmountAuth bool `json:"zero_amount_auth"`

	// Legacy 3DS step-up controls.
	PayerAuthEnroll   bool   `json:"payer_auth_enroll_service"`
	PayerAuthValidate bool   `json:"payer_auth_validate_service"`
	PARes             string `json:"pares"`

	// Normalized 3DS 2.x passthrough; bypasses the enroll/validate round trip.
	ThreeDSecure *ThreeDSecure `json:"three_d_secure"`

	// Subscription metadata for store/update.
	Subscription       *Subscription `json:"subscription"`
	SetupFeeMinorUnits int64         `json:"setup_fee"`

	// Per-call override of the configured partner solution id.
	SolutionID string `json:"solution_id"`
}
