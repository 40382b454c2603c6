package payment

import (
	"context"

	"commercegate-payment-api/models"
)

// Gateway is the full provider surface the service depends on. The concrete
// implementation lives in the cybersource package; tests substitute a mock.
type Gateway interface {
	Authorize(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Purchase(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Capture(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Void(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Refund(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Credit(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Adjust(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Store(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Update(ctx context.Context, authorization string, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Unstore(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Retrieve(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	CalculateTax(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	Verify(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error)
	VerifyCredentials(ctx context.Context) bool
	Scrub(transcript string) string
}
