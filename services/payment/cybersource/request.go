package cybersource

import (
	"sort"
	"strconv"

	"commercegate-payment-api/models"
	"commercegate-payment-api/utils"
)

// Builder composes complete outbound requests for every operation. It is pure
// with respect to its inputs: validation failures (bad amounts, bad tokens)
// surface before any network call.
type Builder struct {
	merchantID string
	solutionID string
}

func NewBuilder(merchantID, solutionID string) *Builder {
	return &Builder{
		merchantID: merchantID,
		solutionID: solutionID,
	}
}

func (b *Builder) base(opts *models.TransactionOptions) *RequestMessage {
	req := &RequestMessage{
		NS:         transactionDataNS,
		MerchantID: b.merchantID,
	}

	solutionID := b.solutionID
	if opts != nil {
		req.MerchantReferenceCode = opts.OrderID
		if opts.SolutionID != "" {
			solutionID = opts.SolutionID
		}
	}
	if req.MerchantReferenceCode == "" {
		req.MerchantReferenceCode = utils.GenerateOrderID()
	}
	req.PartnerSolutionID = solutionID

	return req
}

// Authorize builds a card authorization, including 3DS controls and
// stored-credential markers when the options carry them.
func (b *Builder) Authorize(amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	req := b.base(opts)

	auth := &CCAuthService{Run: "true"}
	if opts != nil {
		auth.CommerceIndicator = opts.CommerceIndicator
		auth.ReconciliationID = opts.ReconciliationID
	}
	req.CCAuthService = auth

	if err := b.applyPaymentMethod(req, pm); err != nil {
		return nil, err
	}
	if err := applyStoredCredential(auth, opts); err != nil {
		return nil, err
	}
	if err := applyPayerAuth(req, opts); err != nil {
		return nil, err
	}
	if err := b.applyTotals(req, amount, opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Purchase is an authorize with an implicit server-side capture; it reuses
// the authorize optional-field contract in full.
func (b *Builder) Purchase(amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	req, err := b.Authorize(amount, pm, opts)
	if err != nil {
		return nil, err
	}
	req.CCCaptureService = &CCCaptureService{Run: "true"}
	return req, nil
}

// Capture settles funds held by a prior authorization. The token must be an
// authorize token carrying a request id and request token.
func (b *Builder) Capture(amount models.Money, authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "capture")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	req.CCCaptureService = &CCCaptureService{
		Run:              "true",
		AuthRequestID:    token.RequestID,
		AuthRequestToken: token.RequestToken,
	}
	if opts != nil {
		req.CCCaptureService.ReconciliationID = opts.ReconciliationID
	}
	useTokenReference(req, token, opts)

	if err := b.applyTotals(req, withTokenCurrency(amount, token), opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Void cancels an authorization or an un-settled capture.
func (b *Builder) Void(authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "void")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	useTokenReference(req, token, opts)
	req.VoidService = &VoidService{
		Run:              "true",
		VoidRequestID:    token.RequestID,
		VoidRequestToken: token.RequestToken,
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Refund returns funds against a prior capture or purchase token.
func (b *Builder) Refund(amount models.Money, authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "refund")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	useTokenReference(req, token, opts)
	req.CCCreditService = &CCCreditService{
		Run:                 "true",
		CaptureRequestID:    token.RequestID,
		CaptureRequestToken: token.RequestToken,
	}
	if opts != nil {
		req.CCCreditService.ReconciliationID = opts.ReconciliationID
	}

	if err := b.applyTotals(req, withTokenCurrency(amount, token), opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Credit issues a stand-alone credit to a card or to a stored profile.
func (b *Builder) Credit(amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	req := b.base(opts)
	req.CCCreditService = &CCCreditService{Run: "true"}
	if opts != nil {
		req.CCCreditService.ReconciliationID = opts.ReconciliationID
	}

	if err := b.applyPaymentMethod(req, pm); err != nil {
		return nil, err
	}
	if err := b.applyTotals(req, amount, opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Store creates a provider-held payment profile, optionally with a recurring
// schedule and a setup fee.
func (b *Builder) Store(pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	req := b.base(opts)
	req.PaySubscriptionCreateService = &RunService{Run: "true"}

	if err := b.applyPaymentMethod(req, pm); err != nil {
		return nil, err
	}

	currency := currencyFrom(opts)
	info := &RecurringSubscriptionInfo{Frequency: "on-demand"}
	if opts != nil && opts.Subscription != nil {
		sub := opts.Subscription
		if sub.Frequency != "" {
			info.Frequency = sub.Frequency
		}
		if sub.StartDate != "" {
			if !utils.ValidateDate(sub.StartDate) {
				return nil, &ValidationError{Field: "subscription.start_date", Reason: "must be YYYY-MM-DD"}
			}
			info.StartDate = sub.StartDate
		} else {
			info.StartDate = utils.FormatDate(utils.NextWeek())
		}
		if sub.Occurrences > 0 {
			info.NumberOfPayments = strconv.Itoa(sub.Occurrences)
		}
		info.AutomaticRenew = strconv.FormatBool(sub.AutoRenew)
		if sub.AmountMinorUnits > 0 {
			formatted, err := utils.FormatAmount(models.MoneyFromMinorUnits(sub.AmountMinorUnits, currency))
			if err != nil {
				return nil, &ValidationError{Field: "subscription.amount", Reason: err.Error()}
			}
			info.Amount = formatted
		}
	}
	req.RecurringSubscriptionInfo = info

	setupFee := int64(0)
	if opts != nil {
		setupFee = opts.SetupFeeMinorUnits
	}
	if err := b.applyTotals(req, models.MoneyFromMinorUnits(setupFee, currency), opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Update mutates a stored profile: a replacement payment method, schedule
// changes, billing-address-only changes, or any combination.
func (b *Builder) Update(authorization string, pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "update")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	req.PaySubscriptionUpdateService = &RunService{Run: "true"}
	req.RecurringSubscriptionInfo = &RecurringSubscriptionInfo{SubscriptionID: token.SubscriptionID}

	if pm != nil {
		if err := b.applyPaymentMethod(req, pm); err != nil {
			return nil, err
		}
	}

	currency := currencyFrom(opts)
	if opts != nil && opts.Subscription != nil {
		sub := opts.Subscription
		req.RecurringSubscriptionInfo.Frequency = sub.Frequency
		if sub.AmountMinorUnits > 0 {
			formatted, err := utils.FormatAmount(models.MoneyFromMinorUnits(sub.AmountMinorUnits, currency))
			if err != nil {
				return nil, &ValidationError{Field: "subscription.amount", Reason: err.Error()}
			}
			req.RecurringSubscriptionInfo.Amount = formatted
		}
	}
	if opts != nil && opts.SetupFeeMinorUnits > 0 {
		if err := b.applyTotals(req, models.MoneyFromMinorUnits(opts.SetupFeeMinorUnits, currency), opts); err != nil {
			return nil, err
		}
	}
	b.applyOptions(req, opts)

	return req, nil
}

// Unstore destroys a stored profile.
func (b *Builder) Unstore(authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "unstore")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	req.PaySubscriptionDeleteService = &RunService{Run: "true"}
	req.RecurringSubscriptionInfo = &RecurringSubscriptionInfo{SubscriptionID: token.SubscriptionID}
	return req, nil
}

// Retrieve inspects a stored profile without side effects.
func (b *Builder) Retrieve(authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "retrieve")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	req.PaySubscriptionRetrieveService = &RunService{Run: "true"}
	req.RecurringSubscriptionInfo = &RecurringSubscriptionInfo{SubscriptionID: token.SubscriptionID}
	return req, nil
}

// Adjust changes the held amount of an existing authorization, up or down,
// without capturing. Only authorize tokens are accepted.
func (b *Builder) Adjust(amount models.Money, authorization string, opts *models.TransactionOptions) (*RequestMessage, error) {
	token, err := requireToken(authorization, "adjust")
	if err != nil {
		return nil, err
	}

	req := b.base(opts)
	useTokenReference(req, token, opts)
	req.CCIncrementalAuthService = &CCIncrementalAuthService{
		Run:           "true",
		AuthRequestID: token.RequestID,
	}

	if err := b.applyTotals(req, withTokenCurrency(amount, token), opts); err != nil {
		return nil, err
	}
	b.applyOptions(req, opts)

	return req, nil
}

// CalculateTax computes tax for the given line items. No money moves.
func (b *Builder) CalculateTax(pm models.PaymentMethod, opts *models.TransactionOptions) (*RequestMessage, error) {
	req := b.base(opts)
	req.TaxService = &TaxService{Run: "true"}

	if err := b.applyPaymentMethod(req, pm); err != nil {
		return nil, err
	}
	req.PurchaseTotals = &PurchaseTotals{Currency: currencyFrom(opts)}
	b.applyOptions(req, opts)

	return req, nil
}

// requireToken decodes and validates an authorization string for an
// operation, failing fast with InvalidReferenceError so no round trip is
// wasted on a token that cannot work.
func requireToken(authorization, operation string) (*AuthorizationToken, error) {
	token, err := DecodeToken(authorization)
	if err != nil {
		return nil, err
	}
	if err := token.Require(operation); err != nil {
		return nil, err
	}
	return token, nil
}

// useTokenReference carries the original order id forward on follow-on
// operations unless the caller supplied their own.
func useTokenReference(req *RequestMessage, token *AuthorizationToken, opts *models.TransactionOptions) {
	if (opts == nil || opts.OrderID == "") && token.OrderID != "" {
		req.MerchantReferenceCode = token.OrderID
	}
}

func (b *Builder) applyPaymentMethod(req *RequestMessage, pm models.PaymentMethod) error {
	switch method := pm.(type) {
	case models.CreditCard:
		b.setCard(req, method)
	case *models.CreditCard:
		b.setCard(req, *method)
	case models.NetworkTokenCard:
		return b.setNetworkTokenCard(req, method)
	case *models.NetworkTokenCard:
		return b.setNetworkTokenCard(req, *method)
	case models.ProfileReference:
		return b.setProfileReference(req, method.Authorization)
	case *models.ProfileReference:
		return b.setProfileReference(req, method.Authorization)
	case nil:
		return &ValidationError{Field: "payment_method", Reason: "payment method is required"}
	default:
		return &ValidationError{Field: "payment_method", Reason: "unsupported payment method type"}
	}
	return nil
}

func (b *Builder) setCard(req *RequestMessage, card models.CreditCard) {
	req.Card = &Card{
		AccountNumber:   card.Number,
		ExpirationMonth: card.Month,
		ExpirationYear:  card.Year,
		CVNumber:        card.VerificationValue,
		CardType:        cardTypeCode(card.Brand),
	}
	if req.BillTo == nil {
		req.BillTo = &BillTo{}
	}
	req.BillTo.FirstName = card.FirstName
	req.BillTo.LastName = card.LastName
}

// setNetworkTokenCard transports the cryptogram in the cavv field and derives
// the network-specific commerce indicator unless the caller overrode it.
func (b *Builder) setNetworkTokenCard(req *RequestMessage, card models.NetworkTokenCard) error {
	if card.PaymentCryptogram == "" {
		return &ValidationError{Field: "payment_cryptogram", Reason: "network tokenization requires a cryptogram"}
	}
	b.setCard(req, card.CreditCard)

	if req.CCAuthService != nil {
		req.CCAuthService.CAVV = card.PaymentCryptogram
		req.CCAuthService.ECI = card.ECI
		if req.CCAuthService.CommerceIndicator == "" {
			req.CCAuthService.CommerceIndicator = networkTokenIndicator(card.Brand)
		}
	}
	return nil
}

func (b *Builder) setProfileReference(req *RequestMessage, authorization string) error {
	token, err := requireToken(authorization, "charge_profile")
	if err != nil {
		return err
	}
	req.RecurringSubscriptionInfo = &RecurringSubscriptionInfo{SubscriptionID: token.SubscriptionID}
	return nil
}

func (b *Builder) applyTotals(req *RequestMessage, amount models.Money, opts *models.TransactionOptions) error {
	if amount.Currency == "" {
		amount.Currency = currencyFrom(opts)
	}
	formatted, err := utils.FormatAmount(amount)
	if err != nil {
		return &ValidationError{Field: "amount", Reason: err.Error()}
	}
	req.PurchaseTotals = &PurchaseTotals{
		Currency:         amount.Currency,
		GrandTotalAmount: formatted,
	}
	return nil
}

// applyOptions is the additive, order-independent optional-field passthrough
// shared by every money-movement operation.
func (b *Builder) applyOptions(req *RequestMessage, opts *models.TransactionOptions) {
	if opts == nil {
		return
	}

	if req.BillTo == nil && (opts.BillingAddress != nil || opts.Email != "" || opts.CustomerID != "" || opts.UserPO != "" || opts.Taxable) {
		req.BillTo = &BillTo{}
	}
	if req.BillTo != nil {
		if addr := opts.BillingAddress; addr != nil {
			req.BillTo.Street1 = addr.Address1
			req.BillTo.Street2 = addr.Address2
			req.BillTo.City = addr.City
			req.BillTo.State = addr.State
			req.BillTo.PostalCode = addr.Zip
			req.BillTo.Country = addr.Country
			req.BillTo.Company = addr.Company
			req.BillTo.Phone = addr.Phone
		}
		if opts.Email != "" {
			req.BillTo.Email = opts.Email
		}
		req.BillTo.CustomerID = opts.CustomerID
		req.BillTo.UserPO = opts.UserPO
		if opts.Taxable {
			req.BillTo.Taxable = "true"
		}
	}

	for i, item := range opts.LineItems {
		wire := Item{
			ID:          i,
			UnitPrice:   minorUnitsToWire(item.DeclaredValueMinorUnits, currencyFrom(opts)),
			Quantity:    item.Quantity,
			ProductCode: item.Code,
			ProductName: item.Description,
			ProductSKU:  item.SKU,
		}
		if item.TaxAmountMinorUnits > 0 {
			wire.TaxAmount = minorUnitsToWire(item.TaxAmountMinorUnits, currencyFrom(opts))
		}
		if item.NationalTaxMinorUnits > 0 {
			wire.NationalTax = minorUnitsToWire(item.NationalTaxMinorUnits, currencyFrom(opts))
		}
		req.Items = append(req.Items, wire)
	}

	if opts.MerchantDescriptor != "" {
		req.InvoiceHeader = &InvoiceHeader{MerchantDescriptor: opts.MerchantDescriptor}
	}
	if opts.IssuerAdditionalData != "" {
		req.Issuer = &Issuer{AdditionalData: opts.IssuerAdditionalData}
	}

	if len(opts.MDDFields) > 0 {
		keys := make([]int, 0, len(opts.MDDFields))
		for k := range opts.MDDFields {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		mdd := &MerchantDefinedData{}
		for _, k := range keys {
			mdd.Fields = append(mdd.Fields, MDDField{ID: k, Value: opts.MDDFields[k]})
		}
		req.MerchantDefinedData = mdd
	}

	if opts.InstallmentTotalCount > 0 || opts.InstallmentPlanType > 0 || opts.FirstInstallmentDate != "" {
		req.InstallmentInfo = &InstallmentInfo{
			FirstInstallmentDate: opts.FirstInstallmentDate,
		}
		if opts.InstallmentTotalCount > 0 {
			req.InstallmentInfo.TotalCount = strconv.Itoa(opts.InstallmentTotalCount)
		}
		if opts.InstallmentPlanType > 0 {
			req.InstallmentInfo.PlanType = strconv.Itoa(opts.InstallmentPlanType)
		}
	}

	req.MerchantTaxID = opts.MerchantTaxID
	req.SalesSlipNumber = opts.SalesSlipNumber
	if opts.AirlineAgentCode != "" {
		req.AirlineData = &AirlineData{AgentCode: opts.AirlineAgentCode}
	}

	if opts.NationalTaxIndicator > 0 || opts.NationalTaxAmount != "" || opts.LocalTaxAmount != "" {
		req.OtherTax = &OtherTax{
			LocalTaxAmount:    opts.LocalTaxAmount,
			NationalTaxAmount: opts.NationalTaxAmount,
		}
		if opts.NationalTaxIndicator > 0 {
			req.OtherTax.NationalTaxIndicator = strconv.Itoa(opts.NationalTaxIndicator)
		}
	}

	if opts.IgnoreAVS || opts.IgnoreCVV {
		req.BusinessRules = &BusinessRules{}
		if opts.IgnoreAVS {
			req.BusinessRules.IgnoreAVSResult = "true"
		}
		if opts.IgnoreCVV {
			req.BusinessRules.IgnoreCVResult = "true"
		}
	}

	if opts.DecisionManagerEnabled != nil {
		req.DecisionManager = &DecisionManager{
			Enabled: strconv.FormatBool(*opts.DecisionManagerEnabled),
			Profile: opts.DecisionManagerProfile,
		}
	}

	if opts.CollectionIndicator != 0 && req.CCAuthService != nil && req.CCAuthService.CAVVAlgorithm == "" {
		// MasterCard SecureCode collection indicator rides the cavvAlgorithm slot.
		req.CCAuthService.CAVVAlgorithm = strconv.Itoa(opts.CollectionIndicator)
	}
}

func currencyFrom(opts *models.TransactionOptions) string {
	if opts != nil && opts.Currency != "" {
		return opts.Currency
	}
	return defaultCurrency
}

func withTokenCurrency(amount models.Money, token *AuthorizationToken) models.Money {
	if amount.Currency == "" {
		amount.Currency = token.Currency
	}
	return amount
}

func minorUnitsToWire(units int64, currency string) string {
	formatted, err := utils.FormatAmount(models.MoneyFromMinorUnits(units, currency))
	if err != nil {
		return ""
	}
	return formatted
}

func cardTypeCode(brand string) string {
	switch brand {
	case "visa":
		return "001"
	case "master", "mastercard":
		return "002"
	case "american_express", "amex":
		return "003"
	case "discover":
		return "004"
	case "diners_club":
		return "005"
	case "jcb":
		return "007"
	case "maestro":
		return "024"
	case "elo":
		return "054"
	default:
		return ""
	}
}

func networkTokenIndicator(brand string) string {
	switch brand {
	case "visa":
		return "vbv"
	case "master", "mastercard":
		return "spa"
	case "american_express", "amex":
		return "aesk"
	default:
		return "internet"
	}
}
