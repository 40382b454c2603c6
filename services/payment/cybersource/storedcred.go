package cybersource

import (
	"commercegate-payment-api/models"
)

// Stored-credential (card-on-file) policy: derive the commerce indicator and
// network-transaction-id markers from the caller's metadata. An explicit
// commerce_indicator from the caller always wins over the derived value.

func commerceIndicatorFor(sc *models.StoredCredential) string {
	if sc == nil {
		return ""
	}
	switch sc.ReasonType {
	case "recurring":
		return "recurring"
	case "installment":
		return "install"
	default:
		// unscheduled and untyped card-on-file charges ride the default
		// e-commerce indicator.
		return "internet"
	}
}

// applyStoredCredential sets the card-on-file fields on an auth service block.
func applyStoredCredential(auth *CCAuthService, opts *models.TransactionOptions) error {
	if opts == nil || opts.StoredCredential == nil {
		return nil
	}
	sc := opts.StoredCredential

	if sc.InitialTransaction {
		// First use in the series: ask the network to establish a new
		// transaction id for future merchant-initiated charges.
		auth.SubsequentAuthFirst = "true"
	} else {
		auth.SubsequentAuthStoredCredential = "true"
		// Network compliance: a caller-supplied id is forwarded unchanged. An
		// empty id is valid only for recurring charges.
		switch {
		case sc.NetworkTransactionID != "":
			auth.SubsequentAuthTransactionID = sc.NetworkTransactionID
		case sc.ReasonType != "recurring":
			return &ValidationError{
				Field:  "stored_credential.network_transaction_id",
				Reason: "required for subsequent non-recurring transactions",
			}
		}
	}

	if auth.CommerceIndicator == "" {
		auth.CommerceIndicator = commerceIndicatorFor(sc)
	}
	return nil
}
