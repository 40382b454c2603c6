package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"commercegate-payment-api/models"
)

// fakeGateway records the last call and returns canned results.
type fakeGateway struct {
	outcome *models.TransactionOutcome
	err     error

	lastOperation     string
	lastAmount        models.Money
	lastAuthorization string
}

func (f *fakeGateway) Authorize(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount = "authorize", amount
	return f.outcome, f.err
}

func (f *fakeGateway) Purchase(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount = "purchase", amount
	return f.outcome, f.err
}

func (f *fakeGateway) Capture(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount, f.lastAuthorization = "capture", amount, authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Void(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAuthorization = "void", authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Refund(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount, f.lastAuthorization = "refund", amount, authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Credit(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount = "credit", amount
	return f.outcome, f.err
}

func (f *fakeGateway) Adjust(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAmount, f.lastAuthorization = "adjust", amount, authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Store(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation = "store"
	return f.outcome, f.err
}

func (f *fakeGateway) Update(ctx context.Context, authorization string, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAuthorization = "update", authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Unstore(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAuthorization = "unstore", authorization
	return f.outcome, f.err
}

func (f *fakeGateway) Retrieve(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation, f.lastAuthorization = "retrieve", authorization
	return f.outcome, f.err
}

func (f *fakeGateway) CalculateTax(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation = "calculate_tax"
	return f.outcome, f.err
}

func (f *fakeGateway) Verify(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	f.lastOperation = "verify"
	return f.outcome, f.err
}

func (f *fakeGateway) VerifyCredentials(ctx context.Context) bool { return f.err == nil }

func (f *fakeGateway) Scrub(transcript string) string { return transcript }

func validCard() models.CreditCard {
	return models.CreditCard{
		Number:            "4111111111111111",
		Month:             "09",
		Year:              "2030",
		VerificationValue: "123",
		Brand:             "visa",
	}
}

func TestAuthorizeDelegatesToGateway(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true, ReasonCode: "100"}}
	svc := NewPaymentServiceWithGateway(gw)

	outcome, err := svc.Authorize(context.Background(), models.MoneyFromMinorUnits(1550, "USD"), validCard(), nil)
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, "authorize", gw.lastOperation)
}

func TestAuthorizeRejectsBadCardLocally(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true}}
	svc := NewPaymentServiceWithGateway(gw)

	card := validCard()
	card.Number = "4111111111111112" // fails Luhn

	_, err := svc.Authorize(context.Background(), models.MoneyFromMinorUnits(100, "USD"), card, nil)
	require.Error(t, err)
	require.Empty(t, gw.lastOperation)
}

func TestAuthorizeWrapsGatewayError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection reset")}
	svc := NewPaymentServiceWithGateway(gw)

	_, err := svc.Authorize(context.Background(), models.MoneyFromMinorUnits(100, "USD"), validCard(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "authorization failed")
}

func TestAuthorizeDeclineIsNotAnError(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: false, ReasonCode: "231", Message: "Invalid account number"}}
	svc := NewPaymentServiceWithGateway(gw)

	outcome, err := svc.Authorize(context.Background(), models.MoneyFromMinorUnits(100, "USD"), validCard(), nil)
	require.NoError(t, err)
	require.False(t, outcome.Success)
}

func TestStoreRequiresMintedAuthorization(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true}}
	svc := NewPaymentServiceWithGateway(gw)

	_, err := svc.Store(context.Background(), validCard(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no subscription ID")
}

func TestUpdateAllowsNilPaymentMethod(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true}}
	svc := NewPaymentServiceWithGateway(gw)

	_, err := svc.Update(context.Background(), "v2;store;o;;;sub-1;;USD", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "update", gw.lastOperation)
}

func TestProfileReferenceSkipsLocalValidation(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true}}
	svc := NewPaymentServiceWithGateway(gw)

	pm := models.ProfileReference{Authorization: "v2;store;o;;;sub-1;;USD"}
	_, err := svc.Authorize(context.Background(), models.MoneyFromMinorUnits(100, "USD"), pm, nil)
	require.NoError(t, err)
	require.Equal(t, "authorize", gw.lastOperation)
}

func TestValidateCard(t *testing.T) {
	svc := NewPaymentServiceWithGateway(&fakeGateway{})

	require.True(t, svc.ValidateCard(validCard()))

	short := validCard()
	short.Number = "411111"
	require.False(t, svc.ValidateCard(short))

	badLuhn := validCard()
	badLuhn.Number = "4111111111111112"
	require.False(t, svc.ValidateCard(badLuhn))

	nonDigits := validCard()
	nonDigits.Number = "4111-1111-1111-111"
	require.False(t, svc.ValidateCard(nonDigits))

	expired := validCard()
	expired.Year = "2020"
	require.False(t, svc.ValidateCard(expired))

	badMonth := validCard()
	badMonth.Month = "13"
	require.False(t, svc.ValidateCard(badMonth))

	badCVV := validCard()
	badCVV.VerificationValue = "12"
	require.False(t, svc.ValidateCard(badCVV))

	noCVV := validCard()
	noCVV.VerificationValue = ""
	require.True(t, svc.ValidateCard(noCVV))
}

func TestNetworkTokenCardValidatedAsCard(t *testing.T) {
	gw := &fakeGateway{outcome: &models.TransactionOutcome{Success: true}}
	svc := NewPaymentServiceWithGateway(gw)

	card := models.NetworkTokenCard{CreditCard: validCard(), PaymentCryptogram: "crypto"}
	card.Number = "123" // too short

	_, err := svc.Purchase(context.Background(), models.MoneyFromMinorUnits(100, "USD"), card, nil)
	require.Error(t, err)
	require.Empty(t, gw.lastOperation)
}
