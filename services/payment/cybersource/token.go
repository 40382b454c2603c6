package cybersource

import (
	"fmt"
	"net/url"
	"strings"
)

// Authorization tokens thread state between logically chained, physically
// stateless calls: an authorize must be capturable later, a capture voidable,
// a stored profile chargeable many times. The token is an opaque, versioned,
// ';'-delimited composite. Decoding tolerates absent trailing segments so
// tokens minted by older builds keep working; a token without a currency
// segment decodes with the documented default, USD.

const (
	tokenVersion    = "v2"
	tokenDelimiter  = ";"
	defaultCurrency = "USD"
)

// TokenKind tags which operation minted a token. Tokens from different
// operations are not interchangeable; each dependent operation declares the
// kinds it accepts and the fields it needs.
type TokenKind string

const (
	KindAuthorize TokenKind = "authorize"
	KindCapture   TokenKind = "capture"
	KindPurchase  TokenKind = "purchase"
	KindCredit    TokenKind = "credit"
	KindStore     TokenKind = "store"
)

// AuthorizationToken is the decoded form. Tokens are never mutated: a
// dependent operation's success mints a new one.
type AuthorizationToken struct {
	Kind           TokenKind
	OrderID        string
	RequestID      string
	RequestToken   string
	SubscriptionID string
	Amount         string // wire-format amount of the originating call
	Currency       string
}

// Encode serializes the token. Segment order is part of the format and never
// changes; new fields may only be appended. Segment values are percent-escaped
// so a delimiter inside a caller-supplied order id cannot shift segments.
func (t *AuthorizationToken) Encode() string {
	segments := []string{
		tokenVersion,
		string(t.Kind),
		t.OrderID,
		t.RequestID,
		t.RequestToken,
		t.SubscriptionID,
		t.Amount,
		t.Currency,
	}
	for i, segment := range segments {
		segments[i] = url.QueryEscape(segment)
	}
	return strings.Join(segments, tokenDelimiter)
}

// DecodeToken parses an encoded token. A malformed or truncated token fails
// with InvalidReferenceError, never with a provider or transport error.
func DecodeToken(encoded string) (*AuthorizationToken, error) {
	if encoded == "" {
		return nil, &InvalidReferenceError{Reason: "empty authorization"}
	}

	segments := strings.Split(encoded, tokenDelimiter)
	for i, segment := range segments {
		unescaped, err := url.QueryUnescape(segment)
		if err != nil {
			return nil, &InvalidReferenceError{Reason: "malformed token segment"}
		}
		segments[i] = unescaped
	}
	if segments[0] != tokenVersion {
		return nil, &InvalidReferenceError{Reason: fmt.Sprintf("unknown token version %q", segments[0])}
	}
	if len(segments) < 5 {
		return nil, &InvalidReferenceError{Reason: "truncated authorization token"}
	}

	get := func(i int) string {
		if i < len(segments) {
			return segments[i]
		}
		return ""
	}

	token := &AuthorizationToken{
		Kind:           TokenKind(get(1)),
		OrderID:        get(2),
		RequestID:      get(3),
		RequestToken:   get(4),
		SubscriptionID: get(5),
		Amount:         get(6),
		Currency:       get(7),
	}
	if token.Currency == "" {
		token.Currency = defaultCurrency
	}

	switch token.Kind {
	case KindAuthorize, KindCapture, KindPurchase, KindCredit, KindStore:
	default:
		return nil, &InvalidReferenceError{Reason: fmt.Sprintf("unknown token kind %q", token.Kind)}
	}

	return token, nil
}

// tokenRequirement declares, per dependent operation, which token kinds are
// acceptable and which embedded fields must be present. The request builder
// checks this before any network call is made.
type tokenRequirement struct {
	kinds  []TokenKind
	fields []string
}

var tokenRequirements = map[string]tokenRequirement{
	"capture": {
		kinds:  []TokenKind{KindAuthorize},
		fields: []string{"requestID", "requestToken"},
	},
	"void": {
		kinds:  []TokenKind{KindAuthorize, KindCapture, KindPurchase},
		fields: []string{"requestID", "requestToken"},
	},
	"refund": {
		kinds:  []TokenKind{KindCapture, KindPurchase},
		fields: []string{"requestID", "requestToken"},
	},
	"adjust": {
		kinds:  []TokenKind{KindAuthorize},
		fields: []string{"requestID"},
	},
	"charge_profile": {
		kinds:  []TokenKind{KindStore},
		fields: []string{"subscriptionID"},
	},
	"update": {
		kinds:  []TokenKind{KindStore},
		fields: []string{"subscriptionID"},
	},
	"unstore": {
		kinds:  []TokenKind{KindStore},
		fields: []string{"subscriptionID"},
	},
	"retrieve": {
		kinds:  []TokenKind{KindStore},
		fields: []string{"subscriptionID"},
	},
}

// Require validates the token against the named operation's requirements.
func (t *AuthorizationToken) Require(operation string) error {
	req, ok := tokenRequirements[operation]
	if !ok {
		return &InvalidReferenceError{Reason: fmt.Sprintf("operation %q does not accept an authorization token", operation)}
	}

	kindOK := false
	for _, k := range req.kinds {
		if t.Kind == k {
			kindOK = true
			break
		}
	}
	if !kindOK {
		return &InvalidReferenceError{
			Reason: fmt.Sprintf("a %s token cannot be used for %s", t.Kind, operation),
		}
	}

	for _, field := range req.fields {
		if t.field(field) == "" {
			return &InvalidReferenceError{
				Reason: fmt.Sprintf("token is missing %s required by %s", field, operation),
			}
		}
	}
	return nil
}

func (t *AuthorizationToken) field(name string) string {
	switch name {
	case "requestID":
		return t.RequestID
	case "requestToken":
		return t.RequestToken
	case "subscriptionID":
		return t.SubscriptionID
	default:
		return ""
	}
}
