package cybersource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"commercegate-payment-api/models"
)

func replyBody(fields string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<c:replyMessage xmlns:c="urn:schemas-cybersource-com:transaction-data-1.153">
%s
</c:replyMessage>
</soap:Body>
</soap:Envelope>`, fields)
}

func faultBody(faultstring string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<soap:Fault>
<faultcode>soap:Client</faultcode>
<faultstring>%s</faultstring>
</soap:Fault>
</soap:Body>
</soap:Envelope>`, faultstring)
}

func stubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func fixedReplyServer(t *testing.T, body string) *httptest.Server {
	return stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, body)
	})
}

func newTestClient(endpoint string) *Client {
	return NewClient(Config{
		MerchantID: "test_merchant",
		Password:   "wsse-secret",
		Endpoint:   endpoint,
	})
}

func TestAuthorizeSuccessMintsToken(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:merchantReferenceCode>order-1</c:merchantReferenceCode>
<c:requestID>7004500</c:requestID>
<c:decision>ACCEPT</c:decision>
<c:reasonCode>100</c:reasonCode>
<c:requestToken>AfvvxwSR</c:requestToken>
<c:ccAuthReply><c:amount>15.50</c:amount></c:ccAuthReply>`))

	client := newTestClient(server.URL)
	outcome, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(1550, "USD"), testCard(), &models.TransactionOptions{OrderID: "order-1"})

	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, "Successful transaction", outcome.Message)
	require.NotEmpty(t, outcome.Authorization)

	token, err := DecodeToken(outcome.Authorization)
	require.NoError(t, err)
	require.Equal(t, KindAuthorize, token.Kind)
	require.Equal(t, "order-1", token.OrderID)
	require.Equal(t, "7004500", token.RequestID)
	require.Equal(t, "AfvvxwSR", token.RequestToken)
	require.Equal(t, "15.50", token.Amount)
	require.Equal(t, "USD", token.Currency)
}

func TestAuthorizeDecline(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:decision>REJECT</c:decision>
<c:reasonCode>231</c:reasonCode>`))

	client := newTestClient(server.URL)
	outcome, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.Equal(t, "231", outcome.ReasonCode)
	require.Equal(t, "Invalid account number", outcome.Message)
	require.Empty(t, outcome.Authorization)
}

func TestAuthorizePendingEnrollment(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:decision>REJECT</c:decision>
<c:reasonCode>475</c:reasonCode>
<c:payerAuthEnrollReply>
<c:acsURL>https://acs.example.com/pareq</c:acsURL>
<c:paReq>eJxVUtt</c:paReq>
<c:xid>Y2liZXJz</c:xid>
</c:payerAuthEnrollReply>`))

	client := newTestClient(server.URL)
	outcome, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(),
		&models.TransactionOptions{PayerAuthEnroll: true})

	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.True(t, outcome.Pending)
	require.NotNil(t, outcome.ThreeDSecure)
	require.Equal(t, "https://acs.example.com/pareq", outcome.ThreeDSecure.ACSURL)
	require.Equal(t, StateEnrollmentPending, EnrollmentStateFor(outcome))
}

func TestAuthorizeCaptureChaining(t *testing.T) {
	var captureBody string
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		if strings.Contains(string(body), "ccCaptureService") {
			captureBody = string(body)
			io.WriteString(w, replyBody(`
<c:reasonCode>100</c:reasonCode>
<c:requestID>7004600</c:requestID>
<c:requestToken>Bgwwx</c:requestToken>`))
			return
		}
		io.WriteString(w, replyBody(`
<c:reasonCode>100</c:reasonCode>
<c:requestID>7004500</c:requestID>
<c:requestToken>AfvvxwSR</c:requestToken>`))
	})

	client := newTestClient(server.URL)
	ctx := context.Background()

	auth, err := client.Authorize(ctx, models.MoneyFromMinorUnits(1550, "USD"), testCard(),
		&models.TransactionOptions{OrderID: "order-1"})
	require.NoError(t, err)
	require.True(t, auth.Success)

	capture, err := client.Capture(ctx, models.MoneyFromMinorUnits(1550, "USD"), auth.Authorization, nil)
	require.NoError(t, err)
	require.True(t, capture.Success)
	require.Contains(t, captureBody, "7004500")

	token, err := DecodeToken(capture.Authorization)
	require.NoError(t, err)
	require.Equal(t, KindCapture, token.Kind)
	require.Equal(t, "order-1", token.OrderID)
	require.Equal(t, "7004600", token.RequestID)
}

func TestAuthFaultBecomesProviderAuthError(t *testing.T) {
	server := fixedReplyServer(t,
		faultBody("Security Data : UsernameToken authentication failed."))

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.Error(t, err)
	var authErr *ProviderAuthError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Fault, "UsernameToken")
}

func TestNonAuthFaultIsPlainError(t *testing.T) {
	server := fixedReplyServer(t, faultBody("XML parse error"))

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.Error(t, err)
	var authErr *ProviderAuthError
	require.False(t, errors.As(err, &authErr))
	require.Contains(t, err.Error(), "XML parse error")
}

func TestUnintelligibleReplyIsTransportError(t *testing.T) {
	server := fixedReplyServer(t, `<html>gateway timeout</html>`)

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestConnectionRefusedIsTransportError(t *testing.T) {
	server := fixedReplyServer(t, "")
	url := server.URL
	server.Close()

	client := newTestClient(url)
	_, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestInvalidFieldsJoined(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:reasonCode>102</c:reasonCode>
<c:invalidField>c:billTo/c:postalCode</c:invalidField>
<c:invalidField>c:billTo/c:country</c:invalidField>`))

	client := newTestClient(server.URL)
	outcome, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)

	require.NoError(t, err)
	require.Equal(t,
		"One or more fields contains invalid data: c:billTo/c:postalCode, c:billTo/c:country",
		outcome.Message)
}

func TestAdjustUnsupportedOnAccount(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:decision>ERROR</c:decision>
<c:reasonCode>150</c:reasonCode>`))

	client := newTestClient(server.URL)
	_, err := client.Adjust(context.Background(),
		models.MoneyFromMinorUnits(2000, "USD"), encodedAuthToken(), nil)

	require.Error(t, err)
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "adjust", unsupported.Operation)
}

func TestAdjustKeepsOriginalRequestID(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:reasonCode>100</c:reasonCode>`))

	client := newTestClient(server.URL)
	outcome, err := client.Adjust(context.Background(),
		models.MoneyFromMinorUnits(2000, "USD"), encodedAuthToken(), nil)

	require.NoError(t, err)
	require.True(t, outcome.Success)

	token, err := DecodeToken(outcome.Authorization)
	require.NoError(t, err)
	require.Equal(t, KindAuthorize, token.Kind)
	require.Equal(t, "7004500", token.RequestID)
	require.Equal(t, "20.00", token.Amount)
}

func TestStoreMintsProfileToken(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:reasonCode>100</c:reasonCode>
<c:requestID>7004700</c:requestID>
<c:paySubscriptionCreateReply>
<c:subscriptionID>sub-42</c:subscriptionID>
</c:paySubscriptionCreateReply>`))

	client := newTestClient(server.URL)
	outcome, err := client.Store(context.Background(), testCard(), nil)

	require.NoError(t, err)
	require.True(t, outcome.Success)

	token, err := DecodeToken(outcome.Authorization)
	require.NoError(t, err)
	require.Equal(t, KindStore, token.Kind)
	require.Equal(t, "sub-42", token.SubscriptionID)
	require.NoError(t, token.Require("charge_profile"))
}

func TestUpdateKeepsSubscriptionID(t *testing.T) {
	server := fixedReplyServer(t, replyBody(`
<c:reasonCode>100</c:reasonCode>
<c:requestID>7004800</c:requestID>`))

	store := &AuthorizationToken{Kind: KindStore, OrderID: "o", SubscriptionID: "sub-42"}
	client := newTestClient(server.URL)
	outcome, err := client.Update(context.Background(), store.Encode(), testCard(), nil)

	require.NoError(t, err)
	require.True(t, outcome.Success)

	token, err := DecodeToken(outcome.Authorization)
	require.NoError(t, err)
	require.Equal(t, "sub-42", token.SubscriptionID)
}

func TestVerifySendsSmallestAmount(t *testing.T) {
	var sent string
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = string(body)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, replyBody(`<c:reasonCode>100</c:reasonCode>`))
	})

	client := newTestClient(server.URL)
	_, err := client.Verify(context.Background(), testCard(), nil)
	require.NoError(t, err)
	require.Contains(t, sent, "<grandTotalAmount>1.00</grandTotalAmount>")

	_, err = client.Verify(context.Background(), testCard(), &models.TransactionOptions{ZeroAmountAuth: true})
	require.NoError(t, err)
	require.Contains(t, sent, "<grandTotalAmount>0.00</grandTotalAmount>")
}

func TestVerifyCredentials(t *testing.T) {
	okServer := fixedReplyServer(t, replyBody(`
<c:decision>ERROR</c:decision>
<c:reasonCode>241</c:reasonCode>`))
	require.True(t, newTestClient(okServer.URL).VerifyCredentials(context.Background()))

	badServer := fixedReplyServer(t,
		faultBody("Security Data : UsernameToken authentication failed."))
	require.False(t, newTestClient(badServer.URL).VerifyCredentials(context.Background()))

	downServer := fixedReplyServer(t, "")
	url := downServer.URL
	downServer.Close()
	require.False(t, newTestClient(url).VerifyCredentials(context.Background()))
}

func TestRequestCarriesCredentials(t *testing.T) {
	var sent, contentType string
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = string(body)
		contentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, replyBody(`<c:reasonCode>100</c:reasonCode>`))
	})

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(),
		models.MoneyFromMinorUnits(100, "USD"), testCard(), nil)
	require.NoError(t, err)

	require.Equal(t, "text/xml", contentType)
	require.Contains(t, sent, "test_merchant")
	require.Contains(t, sent, "wsse-secret")
	require.Contains(t, sent, "4111111111111111")
}

func TestClientScrubMasksConfiguredPassword(t *testing.T) {
	client := newTestClient("")
	scrubbed := client.Scrub("<merchantID>m</merchantID> password=wsse-secret <accountNumber>4111111111111111</accountNumber>")

	require.NotContains(t, scrubbed, "wsse-secret")
	require.NotContains(t, scrubbed, "4111111111111111")
	require.Contains(t, scrubbed, "<merchantID>m</merchantID>")
}
