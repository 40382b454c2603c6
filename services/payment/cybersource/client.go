package cybersource

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"commercegate-payment-api/models"
)

const (
	TestEndpoint       = "https://ics2wstesta.ic3.com/commerce/1.x/transactionProcessor"
	ProductionEndpoint = "https://ics2wsa.ic3.com/commerce/1.x/transactionProcessor"
	RequestTimeout     = 30 * time.Second

	soapNS           = "http://schemas.xmlsoap.org/soap/envelope/"
	wsseNS           = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	passwordTypeText = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
)

// Config carries everything a Client needs. Endpoint overrides the
// environment-derived URL when set (test servers, local stubs); Policy
// overrides the default reason-code classification per merchant account.
type Config struct {
	MerchantID  string
	Password    string
	Environment string
	Endpoint    string
	SolutionID  string
	Policy      *ReasonCodePolicy
}

// Client is a stateless gateway client: every call carries its full context
// in the request and the authorization token, so clients are safe for
// concurrent use and horizontal scaling.
type Client struct {
	config    Config
	builder   *Builder
	policy    *ReasonCodePolicy
	client    *http.Client
	transport *http.Transport
}

func NewClient(config Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	policy := config.Policy
	if policy == nil {
		policy = DefaultReasonCodePolicy()
	}

	return &Client{
		config:    config,
		builder:   NewBuilder(config.MerchantID, config.SolutionID),
		policy:    policy,
		transport: transport,
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
		},
	}
}

func (c *Client) getEndpoint() string {
	if c.config.Endpoint != "" {
		return c.config.Endpoint
	}
	if c.config.Environment == "production" {
		return ProductionEndpoint
	}
	return TestEndpoint
}

// Authorize places a hold on the card without moving money. A success mints a
// capturable, voidable, adjustable token.
func (c *Client) Authorize(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Authorize(amount, pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "authorize", req, KindAuthorize)
}

// Purchase authorizes and captures in a single exchange.
func (c *Client) Purchase(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Purchase(amount, pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "purchase", req, KindPurchase)
}

// Capture settles a prior authorization, fully or partially.
func (c *Client) Capture(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Capture(amount, authorization, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "capture", req, KindCapture)
}

// Void cancels an authorization, capture or purchase before settlement.
func (c *Client) Void(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Void(authorization, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "void", req, "")
}

// Refund returns settled funds against a capture or purchase token.
func (c *Client) Refund(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Refund(amount, authorization, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "refund", req, KindCredit)
}

// Credit pushes funds to a card or stored profile with no prior transaction.
func (c *Client) Credit(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Credit(amount, pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "credit", req, KindCredit)
}

// Store creates a payment profile at the provider and mints a profile token
// usable for charge, update, unstore and retrieve.
func (c *Client) Store(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Store(pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "store", req, KindStore)
}

// Update mutates an existing profile. A success mints a fresh profile token;
// the old one stays valid when the provider keeps the subscription id stable.
func (c *Client) Update(ctx context.Context, authorization string, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Update(authorization, pm, opts)
	if err != nil {
		return nil, err
	}

	token, _ := DecodeToken(authorization)
	outcome, err := c.run(ctx, "update", req, KindStore)
	if err != nil {
		return nil, err
	}

	// Some profile updates do not echo the subscription id; the token it
	// mints must still reference the profile.
	if outcome.Success && outcome.RawFields["subscriptionID"] == "" && token != nil {
		outcome.Authorization = (&AuthorizationToken{
			Kind:           KindStore,
			OrderID:        req.MerchantReferenceCode,
			RequestID:      outcome.RawFields["requestID"],
			RequestToken:   outcome.RawFields["requestToken"],
			SubscriptionID: token.SubscriptionID,
			Currency:       currencyOf(req),
		}).Encode()
	}
	return outcome, nil
}

// Unstore destroys a stored profile.
func (c *Client) Unstore(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Unstore(authorization, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "unstore", req, "")
}

// Retrieve reads a stored profile; the reply fields land in RawFields.
func (c *Client) Retrieve(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Retrieve(authorization, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "retrieve", req, "")
}

// Adjust changes the amount held by an authorization without capturing. The
// capability is per merchant account; a general-failure reply with no
// offending field named means the account lacks it.
func (c *Client) Adjust(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.Adjust(amount, authorization, opts)
	if err != nil {
		return nil, err
	}

	token, _ := DecodeToken(authorization)
	outcome, err := c.run(ctx, "adjust", req, KindAuthorize)
	if err != nil {
		return nil, err
	}

	if outcome.ReasonCode == "150" && outcome.RawFields["invalidField"] == "" {
		return nil, &UnsupportedOperationError{
			Operation: "adjust",
			Reason:    outcome.Message,
		}
	}

	// The original hold stays addressable under its request id when the
	// incremental reply does not mint its own.
	if outcome.Success && outcome.RawFields["requestID"] == "" && token != nil {
		outcome.Authorization = (&AuthorizationToken{
			Kind:         KindAuthorize,
			OrderID:      req.MerchantReferenceCode,
			RequestID:    token.RequestID,
			RequestToken: token.RequestToken,
			Amount:       grandTotal(req),
			Currency:     currencyOf(req),
		}).Encode()
	}
	return outcome, nil
}

// CalculateTax quotes tax for the given items. No money moves and no token is
// minted; the per-item tax amounts come back in RawFields.
func (c *Client) CalculateTax(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	req, err := c.builder.CalculateTax(pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "calculate_tax", req, "")
}

// Verify checks that a card is chargeable without holding funds: the smallest
// transmissible amount, or a true zero-amount authorization when the caller
// opts in and the network supports it.
func (c *Client) Verify(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	currency := currencyFrom(opts)
	units := int64(100)
	if opts != nil && opts.ZeroAmountAuth && zeroAmountBrand(pm) {
		units = 0
	}

	req, err := c.builder.Authorize(models.MoneyFromMinorUnits(units, currency), pm, opts)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "verify", req, KindAuthorize)
}

// VerifyCredentials probes the configured credentials with a harmless void of
// a nonexistent transaction. Any classified reply means the credentials were
// accepted; an authentication fault or a transport failure means they were
// not verifiable. It never returns an error.
func (c *Client) VerifyCredentials(ctx context.Context) bool {
	req := c.builder.base(&models.TransactionOptions{OrderID: "credential_check"})
	req.VoidService = &VoidService{Run: "true", VoidRequestID: "0"}

	_, err := c.send(ctx, req)
	if err != nil {
		if _, ok := err.(*ProviderAuthError); ok {
			return false
		}
		log.Printf("credential check could not reach the gateway: %v", err)
		return false
	}
	return true
}

// Scrub masks card numbers, CVVs, cryptograms and the configured password in
// a captured wire transcript.
func (c *Client) Scrub(transcript string) string {
	scrubbed := ScrubTranscript(transcript)
	if c.config.Password != "" {
		scrubbed = strings.ReplaceAll(scrubbed, c.config.Password, scrubMask)
	}
	return scrubbed
}

// run executes one request and classifies the reply. mint names the token
// kind a success should produce; empty means the operation yields no token.
func (c *Client) run(ctx context.Context, operation string, req *RequestMessage, mint TokenKind) (*models.TransactionOutcome, error) {
	startTime := time.Now()
	log.Printf("Sending %s request to CyberSource for order %s", operation, req.MerchantReferenceCode)

	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Printf("CyberSource %s reply received in %v for order %s (reason code %s)",
		operation, time.Since(startTime), req.MerchantReferenceCode, raw["reasonCode"])

	outcome := c.policy.Classify(raw)
	if outcome.Success && mint != "" {
		outcome.Authorization = (&AuthorizationToken{
			Kind:           mint,
			OrderID:        req.MerchantReferenceCode,
			RequestID:      raw["requestID"],
			RequestToken:   raw["requestToken"],
			SubscriptionID: raw["subscriptionID"],
			Amount:         grandTotal(req),
			Currency:       currencyOf(req),
		}).Encode()
	}
	return outcome, nil
}

// send wraps the request in the authenticated envelope, posts it, and parses
// the reply into a flat field map keyed by local element name.
func (c *Client) send(ctx context.Context, req *RequestMessage) (map[string]string, error) {
	envelope := soapEnvelope{
		SoapNS: soapNS,
		Header: soapHeader{
			Security: wsseSecurity{
				NS:             wsseNS,
				MustUnderstand: "1",
				UsernameToken: wsseUsernameToken{
					Username: c.config.MerchantID,
					Password: wssePassword{
						Type:  passwordTypeText,
						Value: c.config.Password,
					},
				},
			},
		},
		Body: soapBody{Request: req},
	}

	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.getEndpoint(),
		bytes.NewBuffer(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("error reading response body: %v", err)}
	}

	fields, err := parseReply(respBody)
	if err != nil {
		return nil, err
	}

	if fault := fields["faultstring"]; fault != "" {
		if strings.Contains(fault, "FailedCheck") || strings.Contains(fault, "UsernameToken") {
			return nil, &ProviderAuthError{Fault: fault}
		}
		return nil, fmt.Errorf("gateway fault: %s", fault)
	}
	if fields["reasonCode"] == "" {
		return nil, &TransportError{Err: fmt.Errorf("unintelligible reply (HTTP %d)", resp.StatusCode)}
	}

	return fields, nil
}

// parseReply flattens the reply by local element name. The reply nests fields
// under per-service blocks, but the local names are unambiguous for every
// field the classifier and token minting read. A repeated invalidField is
// joined so multi-field validation failures name every offender.
func parseReply(body []byte) (map[string]string, error) {
	fields := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var current string
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &TransportError{Err: fmt.Errorf("error decoding response: %v", err)}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if current == "" || text == "" {
				continue
			}
			if existing, ok := fields[current]; ok && current == "invalidField" {
				fields[current] = existing + ", " + text
			} else if !ok {
				fields[current] = text
			}
		case xml.EndElement:
			current = ""
		}
	}
	return fields, nil
}

func grandTotal(req *RequestMessage) string {
	if req.PurchaseTotals != nil {
		return req.PurchaseTotals.GrandTotalAmount
	}
	return ""
}

func currencyOf(req *RequestMessage) string {
	if req.PurchaseTotals != nil && req.PurchaseTotals.Currency != "" {
		return req.PurchaseTotals.Currency
	}
	return defaultCurrency
}

func zeroAmountBrand(pm models.PaymentMethod) bool {
	var brand string
	switch method := pm.(type) {
	case models.CreditCard:
		brand = method.Brand
	case *models.CreditCard:
		brand = method.Brand
	case models.NetworkTokenCard:
		brand = method.Brand
	case *models.NetworkTokenCard:
		brand = method.Brand
	default:
		return false
	}
	return brand == "visa" || brand == "master" || brand == "mastercard"
}
