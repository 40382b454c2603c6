package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"commercegate-payment-api/models"
	"commercegate-payment-api/services/payment/cybersource"
)

// Service fronts the gateway with local card validation and operation logging.
// Cards that cannot possibly be approved (bad Luhn, expired, malformed CVV)
// are rejected here so no round trip is wasted on them.
type Service struct {
	gateway Gateway
}

func NewPaymentService(config cybersource.Config) *Service {
	return &Service{
		gateway: cybersource.NewClient(config),
	}
}

// NewPaymentServiceWithGateway wires an explicit gateway. Used by tests and by
// callers that need a non-default reason-code policy already applied.
func NewPaymentServiceWithGateway(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

func (s *Service) Authorize(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if err := s.validatePaymentMethod(pm); err != nil {
		return nil, err
	}

	outcome, err := s.gateway.Authorize(ctx, amount, pm, opts)
	if err != nil {
		log.Printf("Error processing authorization: %v", err)
		return nil, fmt.Errorf("authorization failed: %v", err)
	}
	if !outcome.Success {
		log.Printf("Authorization unsuccessful: %s", outcome.Message)
	}
	return outcome, nil
}

func (s *Service) Purchase(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if err := s.validatePaymentMethod(pm); err != nil {
		return nil, err
	}

	outcome, err := s.gateway.Purchase(ctx, amount, pm, opts)
	if err != nil {
		log.Printf("Error processing purchase: %v", err)
		return nil, fmt.Errorf("purchase failed: %v", err)
	}
	if !outcome.Success {
		log.Printf("Purchase unsuccessful: %s", outcome.Message)
	}
	return outcome, nil
}

func (s *Service) Capture(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Capture(ctx, amount, authorization, opts)
}

func (s *Service) Void(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Void(ctx, authorization, opts)
}

func (s *Service) Refund(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Refund(ctx, amount, authorization, opts)
}

func (s *Service) Credit(ctx context.Context, amount models.Money, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if err := s.validatePaymentMethod(pm); err != nil {
		return nil, err
	}
	return s.gateway.Credit(ctx, amount, pm, opts)
}

func (s *Service) Adjust(ctx context.Context, amount models.Money, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Adjust(ctx, amount, authorization, opts)
}

func (s *Service) Store(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if err := s.validatePaymentMethod(pm); err != nil {
		return nil, err
	}

	outcome, err := s.gateway.Store(ctx, pm, opts)
	if err != nil {
		log.Printf("Error storing payment profile: %v", err)
		return nil, fmt.Errorf("profile creation failed: %v", err)
	}
	if outcome.Success && outcome.Authorization == "" {
		return nil, errors.New("profile creation failed: no subscription ID returned")
	}
	return outcome, nil
}

func (s *Service) Update(ctx context.Context, authorization string, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if pm != nil {
		if err := s.validatePaymentMethod(pm); err != nil {
			return nil, err
		}
	}
	return s.gateway.Update(ctx, authorization, pm, opts)
}

func (s *Service) Unstore(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Unstore(ctx, authorization, opts)
}

func (s *Service) Retrieve(ctx context.Context, authorization string, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.Retrieve(ctx, authorization, opts)
}

func (s *Service) CalculateTax(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	return s.gateway.CalculateTax(ctx, pm, opts)
}

func (s *Service) Verify(ctx context.Context, pm models.PaymentMethod, opts *models.TransactionOptions) (*models.TransactionOutcome, error) {
	if err := s.validatePaymentMethod(pm); err != nil {
		return nil, err
	}
	return s.gateway.Verify(ctx, pm, opts)
}

func (s *Service) VerifyCredentials(ctx context.Context) bool {
	return s.gateway.VerifyCredentials(ctx)
}

func (s *Service) Scrub(transcript string) string {
	return s.gateway.Scrub(transcript)
}

// validatePaymentMethod runs local sanity checks on card-bearing methods.
// Profile references are checked downstream against the token format.
func (s *Service) validatePaymentMethod(pm models.PaymentMethod) error {
	var card models.CreditCard
	switch method := pm.(type) {
	case models.CreditCard:
		card = method
	case *models.CreditCard:
		card = *method
	case models.NetworkTokenCard:
		card = method.CreditCard
	case *models.NetworkTokenCard:
		card = method.CreditCard
	default:
		return nil
	}

	if !s.ValidateCard(card) {
		return errors.New("invalid card data: please check card number, expiration date and CVV")
	}
	return nil
}

func (s *Service) ValidateCard(card models.CreditCard) bool {
	if len(card.Number) < 13 || len(card.Number) > 19 {
		log.Printf("Invalid card number length: %d", len(card.Number))
		return false
	}

	if card.VerificationValue != "" && (len(card.VerificationValue) < 3 || len(card.VerificationValue) > 4) {
		log.Printf("Invalid CVV length: %d", len(card.VerificationValue))
		return false
	}

	if !validateExpiry(card.Month, card.Year) {
		log.Printf("Invalid expiry date: %s/%s", card.Month, card.Year)
		return false
	}

	if !validateLuhn(card.Number) {
		log.Printf("Failed Luhn check for card number")
		return false
	}

	return true
}

func validateLuhn(cardNumber string) bool {
	sum := 0
	isEven := len(cardNumber)%2 == 0

	for i, r := range cardNumber {
		digit := int(r - '0')

		if digit < 0 || digit > 9 {
			return false
		}

		if isEven == (i%2 == 0) {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return sum%10 == 0
}

func validateExpiry(month, year string) bool {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 2000 {
		return false
	}

	// Valid through the last moment of the expiry month.
	expiry := time.Date(y, time.Month(m)+1, 0, 23, 59, 59, 0, time.UTC)
	return expiry.After(time.Now())
}
