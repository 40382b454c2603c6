package cybersource

import "encoding/xml"

// Wire schema for the Simple Order API. The structs mirror the provider's XML
// vocabulary one to one; the request builder fills them in and the client
// wraps them in the SOAP envelope. Element order follows the provider schema.

const transactionDataNS = "urn:schemas-cybersource-com:transaction-data-1.153"

type soapEnvelope struct {
	XMLName   xml.Name   `xml:"soapenv:Envelope"`
	SoapNS    string     `xml:"xmlns:soapenv,attr"`
	Header    soapHeader `xml:"soapenv:Header"`
	Body      soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct {
	Security wsseSecurity `xml:"wsse:Security"`
}

type wsseSecurity struct {
	NS             string            `xml:"xmlns:wsse,attr"`
	MustUnderstand string            `xml:"soapenv:mustUnderstand,attr"`
	UsernameToken  wsseUsernameToken `xml:"wsse:UsernameToken"`
}

type wsseUsernameToken struct {
	Username string       `xml:"wsse:Username"`
	Password wssePassword `xml:"wsse:Password"`
}

type wssePassword struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type soapBody struct {
	Request *RequestMessage `xml:"requestMessage"`
}

// RequestMessage is one complete outbound request. Every operation builds one
// of these; unset blocks are omitted from the marshaled XML.
type RequestMessage struct {
	XMLName xml.Name `xml:"requestMessage"`
	NS      string   `xml:"xmlns,attr"`

	MerchantID            string `xml:"merchantID"`
	MerchantReferenceCode string `xml:"merchantReferenceCode"`
	PartnerSolutionID     string `xml:"partnerSolutionID,omitempty"`

	BillTo *BillTo `xml:"billTo,omitempty"`

	Items          []Item          `xml:"item,omitempty"`
	PurchaseTotals *PurchaseTotals `xml:"purchaseTotals,omitempty"`
	OtherTax       *OtherTax       `xml:"otherTax,omitempty"`

	Card *Card `xml:"card,omitempty"`

	RecurringSubscriptionInfo *RecurringSubscriptionInfo `xml:"recurringSubscriptionInfo,omitempty"`

	CCAuthService            *CCAuthService            `xml:"ccAuthService,omitempty"`
	CCCaptureService         *CCCaptureService         `xml:"ccCaptureService,omitempty"`
	CCCreditService          *CCCreditService          `xml:"ccCreditService,omitempty"`
	CCIncrementalAuthService *CCIncrementalAuthService `xml:"ccIncrementalAuthService,omitempty"`
	VoidService              *VoidService              `xml:"voidService,omitempty"`
	TaxService               *TaxService               `xml:"taxService,omitempty"`

	PaySubscriptionCreateService   *RunService                      `xml:"paySubscriptionCreateService,omitempty"`
	PaySubscriptionUpdateService   *RunService                      `xml:"paySubscriptionUpdateService,omitempty"`
	PaySubscriptionDeleteService   *RunService                      `xml:"paySubscriptionDeleteService,omitempty"`
	PaySubscriptionRetrieveService *RunService                      `xml:"paySubscriptionRetrieveService,omitempty"`
	PayerAuthEnrollService         *RunService                      `xml:"payerAuthEnrollService,omitempty"`
	PayerAuthValidateService       *PayerAuthValidateService        `xml:"payerAuthValidateService,omitempty"`

	BusinessRules   *BusinessRules   `xml:"businessRules,omitempty"`
	DecisionManager *DecisionManager `xml:"decisionManager,omitempty"`
	InvoiceHeader   *InvoiceHeader   `xml:"invoiceHeader,omitempty"`
	Issuer          *Issuer          `xml:"issuer,omitempty"`
	InstallmentInfo *InstallmentInfo `xml:"installment,omitempty"`
	AirlineData     *AirlineData     `xml:"airlineData,omitempty"`

	MerchantDefinedData *MerchantDefinedData `xml:"merchantDefinedData,omitempty"`

	MerchantTaxID   string `xml:"merchantTaxID,omitempty"`
	SalesSlipNumber string `xml:"salesSlipNumber,omitempty"`
}

type BillTo struct {
	FirstName  string `xml:"firstName,omitempty"`
	LastName   string `xml:"lastName,omitempty"`
	Street1    string `xml:"street1,omitempty"`
	Street2    string `xml:"street2,omitempty"`
	City       string `xml:"city,omitempty"`
	State      string `xml:"state,omitempty"`
	PostalCode string `xml:"postalCode,omitempty"`
	Country    string `xml:"country,omitempty"`
	Company    string `xml:"company,omitempty"`
	Phone      string `xml:"phoneNumber,omitempty"`
	Email      string `xml:"email,omitempty"`
	CustomerID string `xml:"customerID,omitempty"`
	UserPO     string `xml:"userPO,omitempty"`
	Taxable    string `xml:"taxable,omitempty"` // "true" when set
}

type Item struct {
	ID          int    `xml:"id,attr"`
	UnitPrice   string `xml:"unitPrice,omitempty"`
	Quantity    int    `xml:"quantity,omitempty"`
	ProductCode string `xml:"productCode,omitempty"`
	ProductName string `xml:"productName,omitempty"`
	ProductSKU  string `xml:"productSKU,omitempty"`
	TaxAmount   string `xml:"taxAmount,omitempty"`
	NationalTax string `xml:"nationalTax,omitempty"`
}

type PurchaseTotals struct {
	Currency         string `xml:"currency,omitempty"`
	GrandTotalAmount string `xml:"grandTotalAmount,omitempty"`
}

type OtherTax struct {
	LocalTaxAmount       string `xml:"localTaxAmount,omitempty"`
	NationalTaxAmount    string `xml:"nationalTaxAmount,omitempty"`
	NationalTaxIndicator string `xml:"nationalTaxIndicator,omitempty"`
}

type Card struct {
	AccountNumber   string `xml:"accountNumber"`
	ExpirationMonth string `xml:"expirationMonth,omitempty"`
	ExpirationYear  string `xml:"expirationYear,omitempty"`
	CVNumber        string `xml:"cvNumber,omitempty"`
	CardType        string `xml:"cardType,omitempty"`
}

type RecurringSubscriptionInfo struct {
	SubscriptionID   string `xml:"subscriptionID,omitempty"`
	Status           string `xml:"status,omitempty"`
	Amount           string `xml:"amount,omitempty"`
	NumberOfPayments string `xml:"numberOfPayments,omitempty"`
	AutomaticRenew   string `xml:"automaticRenew,omitempty"`
	Frequency        string `xml:"frequency,omitempty"`
	StartDate        string `xml:"startDate,omitempty"`
}

type CCAuthService struct {
	Run string `xml:"run,attr"`

	// 3DS and network-token authentication fields.
	CAVV          string `xml:"cavv,omitempty"`
	CAVVAlgorithm string `xml:"cavvAlgorithm,omitempty"`
	XID           string `xml:"xid,omitempty"`
	ECI           string `xml:"commerceIndicatorECI,omitempty"` // raw ECI for 3DS2 passthrough
	PAResStatus   string `xml:"paresStatus,omitempty"`
	VERes         string `xml:"veresEnrolled,omitempty"`

	CommerceIndicator       string `xml:"commerceIndicator,omitempty"`
	ReconciliationID        string `xml:"reconciliationID,omitempty"`
	DirectoryServerTransID  string `xml:"directoryServerTransactionID,omitempty"`
	PASpecificationVersion  string `xml:"paSpecificationVersion,omitempty"`

	// Stored-credential (card-on-file) markers.
	SubsequentAuthFirst            string `xml:"subsequentAuthFirst,omitempty"`
	SubsequentAuthStoredCredential string `xml:"subsequentAuthStoredCredential,omitempty"`
	SubsequentAuthTransactionID    string `xml:"subsequentAuthTransactionID,omitempty"`
}

type CCCaptureService struct {
	Run              string `xml:"run,attr"`
	AuthRequestID    string `xml:"authRequestID,omitempty"`
	AuthRequestToken string `xml:"authRequestToken,omitempty"`
	ReconciliationID string `xml:"reconciliationID,omitempty"`
}

type CCCreditService struct {
	Run                 string `xml:"run,attr"`
	CaptureRequestID    string `xml:"captureRequestID,omitempty"`
	CaptureRequestToken string `xml:"captureRequestToken,omitempty"`
	ReconciliationID    string `xml:"reconciliationID,omitempty"`
}

type CCIncrementalAuthService struct {
	Run           string `xml:"run,attr"`
	AuthRequestID string `xml:"authRequestID,omitempty"`
}

type VoidService struct {
	Run              string `xml:"run,attr"`
	VoidRequestID    string `xml:"voidRequestID,omitempty"`
	VoidRequestToken string `xml:"voidRequestToken,omitempty"`
}

type TaxService struct {
	Run   string `xml:"run,attr"`
	Nexus string `xml:"nexus,omitempty"`
}

type RunService struct {
	Run string `xml:"run,attr"`
}

type PayerAuthValidateService struct {
	Run         string `xml:"run,attr"`
	SignedPARes string `xml:"signedPARes,omitempty"`
}

type BusinessRules struct {
	IgnoreAVSResult string `xml:"ignoreAVSResult,omitempty"`
	IgnoreCVResult  string `xml:"ignoreCVResult,omitempty"`
}

type DecisionManager struct {
	Enabled string `xml:"enabled,omitempty"`
	Profile string `xml:"profile,omitempty"`
}

type InvoiceHeader struct {
	MerchantDescriptor string `xml:"merchantDescriptor,omitempty"`
}

type Issuer struct {
	AdditionalData string `xml:"additionalData,omitempty"`
}

type InstallmentInfo struct {
	TotalCount           string `xml:"totalCount,omitempty"`
	PlanType             string `xml:"planType,omitempty"`
	FirstInstallmentDate string `xml:"firstInstallmentDate,omitempty"`
}

type AirlineData struct {
	AgentCode string `xml:"agentCode,omitempty"`
}

type MerchantDefinedData struct {
	Fields []MDDField `xml:"mddField"`
}

type MDDField struct {
	ID    int    `xml:"id,attr"`
	Value string `xml:",chardata"`
}
