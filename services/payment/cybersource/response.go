package cybersource

import (
	"fmt"

	"commercegate-payment-api/models"
)

// Reason-code classification. The partition between approved, pending and
// decline codes is provider account configuration, not universal truth, so it
// is data: callers may inject their own policy per merchant account. The
// default policy carries the codes and messages of the stock test gateway.

type ReasonCodePolicy struct {
	// Approved codes yield Success=true.
	Approved map[string]bool
	// Pending codes mark a 3DS enrollment in progress: Success=false,
	// Pending=true, step-up fields populated.
	Pending map[string]bool
	// Messages maps reason codes to the provider's human-readable text.
	Messages map[string]string
}

func DefaultReasonCodePolicy() *ReasonCodePolicy {
	return &ReasonCodePolicy{
		Approved: map[string]bool{"100": true},
		Pending:  map[string]bool{"475": true},
		Messages: map[string]string{
			"100": "Successful transaction",
			"101": "The request is missing one or more required fields",
			"102": "One or more fields contains invalid data",
			"110": "Partial amount was approved",
			"150": "Error: General system failure",
			"151": "Error: The request was received but a server time-out occurred",
			"152": "Error: The request was received, but a service did not finish running in time",
			"200": "The authorization request was approved by the issuing bank but declined because it did not pass the AVS check",
			"201": "The issuing bank has questions about the request",
			"202": "Expired card",
			"203": "General decline of the card",
			"204": "Insufficient funds in the account",
			"205": "Stolen or lost card",
			"207": "Issuing bank unavailable",
			"208": "Inactive card or card not authorized for card-not-present transactions",
			"209": "American Express Card Identification Digits (CID) did not match",
			"210": "The card has reached the credit limit",
			"211": "Invalid card verification number",
			"221": "The customer matched an entry on the processor's negative file",
			"230": "The authorization request was approved by the issuing bank but declined because it did not pass the CVN check",
			"231": "Invalid account number",
			"232": "The card type is not accepted by the payment processor",
			"233": "General decline by the processor",
			"234": "There is a problem with your merchant configuration",
			"235": "The requested amount exceeds the originally authorized amount",
			"236": "Processor failure",
			"237": "The authorization has already been reversed",
			"238": "The authorization has already been captured",
			"239": "The requested transaction amount must match the previous transaction amount",
			"240": "The card type sent is invalid or does not correlate with the credit card number",
			"241": "The request ID is invalid",
			"242": "You requested a capture, but there is no corresponding, unused authorization record",
			"243": "The transaction has already been settled or reversed",
			"246": "The capture or credit is not voidable",
			"247": "You requested a credit for a capture that was previously voided",
			"250": "Error: The request was received, but a time-out occurred with the payment processor",
			"254": "Your account is prohibited from processing stand-alone refunds",
			"400": "Fraud score exceeds threshold",
			"475": "The cardholder is enrolled for payer authentication",
			"476": "Encountered a Payer Authentication problem. Payer could not be authenticated",
			"480": "The order is marked for review by Decision Manager",
			"481": "The order has been rejected by Decision Manager",
			"520": "Soft decline - the authorization request was declined by your settings",
		},
	}
}

// Classify turns a flat reply field map into a structured outcome. The
// message is the provider's reason text verbatim; field-level validation
// failures carry the exact offending field path appended to the base message.
// Classify never attaches a token — the caller does that, because only the
// caller knows the operation context the token must embed.
func (p *ReasonCodePolicy) Classify(raw map[string]string) *models.TransactionOutcome {
	code := raw["reasonCode"]

	outcome := &models.TransactionOutcome{
		Success:    p.Approved[code],
		Pending:    p.Pending[code],
		ReasonCode: code,
		Message:    p.message(code, raw),
		RawFields:  raw,
	}

	if outcome.Pending {
		outcome.ThreeDSecure = &models.ThreeDSecureContext{
			ACSURL: raw["acsURL"],
			PAReq:  raw["paReq"],
			XID:    raw["xid"],
		}
	}

	return outcome
}

func (p *ReasonCodePolicy) message(code string, raw map[string]string) string {
	base, ok := p.Messages[code]
	if !ok {
		if decision := raw["decision"]; decision != "" {
			return fmt.Sprintf("%s (reason code %s)", decision, code)
		}
		return fmt.Sprintf("Unknown reason code %s", code)
	}

	// Invalid-data replies name the offending field; surface it so the caller
	// sees "...: c:billTo/c:postalCode" rather than a generic bad request.
	if invalid := raw["invalidField"]; invalid != "" && (code == "101" || code == "102") {
		return base + ": " + invalid
	}
	return base
}
