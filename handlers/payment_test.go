package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"commercegate-payment-api/models"
	"commercegate-payment-api/queue"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/services/payment/cybersource"
)

func TestWriteEngineErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &cybersource.ValidationError{Field: "amount", Reason: "bad"}, http.StatusUnprocessableEntity},
		{"reference", &cybersource.InvalidReferenceError{Reason: "truncated"}, http.StatusUnprocessableEntity},
		{"unsupported", &cybersource.UnsupportedOperationError{Operation: "adjust", Reason: "not enabled"}, http.StatusUnprocessableEntity},
		{"auth", &cybersource.ProviderAuthError{Fault: "FailedCheck"}, http.StatusBadGateway},
		{"transport", &cybersource.TransportError{Err: http.ErrHandlerTimeout}, http.StatusBadGateway},
		{"unknown", http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			writeEngineError(recorder, tc.err)
			require.Equal(t, tc.status, recorder.Code)

			var resp models.APIResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			require.Equal(t, "error", resp.Status)
		})
	}
}

func TestDecodeStrictRejectsUnknownKeys(t *testing.T) {
	body := `{"amount": 100, "surprise": true}`
	r := httptest.NewRequest("POST", "/api/v1/payments/authorize", strings.NewReader(body))

	var req transactionRequest
	require.Error(t, decodeStrict(r, &req))
}

func TestDecodeStrictAcceptsKnownShape(t *testing.T) {
	body := `{
		"amount": 1550,
		"currency": "USD",
		"card": {"number": "4111111111111111", "month": "09", "year": "2030", "brand": "visa"},
		"options": {"order_id": "order-1", "email": "jane@example.com"}
	}`
	r := httptest.NewRequest("POST", "/api/v1/payments/authorize", strings.NewReader(body))

	var req transactionRequest
	require.NoError(t, decodeStrict(r, &req))
	require.Equal(t, int64(1550), req.AmountMinorUnits)
	require.NotNil(t, req.Card)
	require.Equal(t, "order-1", req.Options.OrderID)
}

func TestPaymentMethodExclusivity(t *testing.T) {
	empty := &transactionRequest{}
	_, err := empty.paymentMethod()
	require.Error(t, err)

	withCard := &transactionRequest{Card: &models.CreditCard{Number: "4111111111111111"}}
	pm, err := withCard.paymentMethod()
	require.NoError(t, err)
	require.IsType(t, models.CreditCard{}, pm)

	withProfile := &transactionRequest{ProfileAuthorization: "v2;store;o;;;sub-1;;USD"}
	pm, err = withProfile.paymentMethod()
	require.NoError(t, err)
	require.IsType(t, models.ProfileReference{}, pm)
}

// fakeJobQueue records enqueued jobs.
type fakeJobQueue struct {
	types []queue.JobType
	data  []map[string]interface{}
}

func (f *fakeJobQueue) Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error {
	f.types = append(f.types, jobType)
	f.data = append(f.data, data)
	return nil
}

func (f *fakeJobQueue) EnqueueDelayed(ctx context.Context, jobType queue.JobType, data map[string]interface{}, delay time.Duration) error {
	return f.Enqueue(ctx, jobType, data)
}

func gatewayStub(t *testing.T, fields string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<c:replyMessage xmlns:c="urn:schemas-cybersource-com:transaction-data-1.153">
`+fields+`
</c:replyMessage>
</soap:Body>
</soap:Envelope>`)
	}))
	t.Cleanup(server.Close)
	return server
}

const verifyBody = `{
	"amount": 0,
	"currency": "USD",
	"card": {"number": "4111111111111111", "month": "09", "year": "2030", "verification_value": "123", "brand": "visa"},
	"options": {"order_id": "verify-1"}
}`

func TestVerifyQueuesReleaseOfHold(t *testing.T) {
	server := gatewayStub(t, `
<c:reasonCode>100</c:reasonCode>
<c:requestID>7004500</c:requestID>
<c:requestToken>AfvvxwSR</c:requestToken>`)

	ps := payment.NewPaymentService(cybersource.Config{
		MerchantID: "test_merchant",
		Password:   "secret",
		Endpoint:   server.URL,
	})
	q := &fakeJobQueue{}
	h := NewPaymentHandler(nil, ps, q)

	r := httptest.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(verifyBody))
	recorder := httptest.NewRecorder()
	h.Verify(recorder, r)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, q.types, 1)
	require.Equal(t, queue.JobTypeVoidTransaction, q.types[0])

	authorization, _ := q.data[0]["authorization"].(string)
	token, err := cybersource.DecodeToken(authorization)
	require.NoError(t, err)
	require.NoError(t, token.Require("void"))
	require.Equal(t, "verify-1", q.data[0]["order_id"])
}

func TestVerifyDeclineQueuesNothing(t *testing.T) {
	server := gatewayStub(t, `
<c:decision>REJECT</c:decision>
<c:reasonCode>231</c:reasonCode>`)

	ps := payment.NewPaymentService(cybersource.Config{
		MerchantID: "test_merchant",
		Password:   "secret",
		Endpoint:   server.URL,
	})
	q := &fakeJobQueue{}
	h := NewPaymentHandler(nil, ps, q)

	r := httptest.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(verifyBody))
	recorder := httptest.NewRecorder()
	h.Verify(recorder, r)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, q.types)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, "declined", resp.Status)
}

func TestMoneyFallsBackToOptionsCurrency(t *testing.T) {
	req := &transactionRequest{
		AmountMinorUnits: 100,
		Options:          &models.TransactionOptions{Currency: "EUR"},
	}
	require.Equal(t, "EUR", req.money().Currency)

	req.Currency = "JPY"
	require.Equal(t, "JPY", req.money().Currency)
}
