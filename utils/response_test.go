package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"commercegate-payment-api/models"
)

func TestSendOutcomeResponseStatuses(t *testing.T) {
	cases := []struct {
		name    string
		outcome *models.TransactionOutcome
		status  string
	}{
		{"approved", &models.TransactionOutcome{Success: true, ReasonCode: "100"}, "success"},
		{"declined", &models.TransactionOutcome{ReasonCode: "231"}, "declined"},
		{"pending", &models.TransactionOutcome{Pending: true, ReasonCode: "475"}, "pending"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			SendOutcomeResponse(recorder, tc.outcome)

			// declines are classified outcomes, not HTTP errors
			require.Equal(t, http.StatusOK, recorder.Code)

			var resp models.APIResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			require.Equal(t, tc.status, resp.Status)
		})
	}
}

func TestSendErrorResponse(t *testing.T) {
	recorder := httptest.NewRecorder()
	SendErrorResponse(recorder, http.StatusUnprocessableEntity, "invalid amount")

	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, "error", resp.Status)
	require.Equal(t, "invalid amount", resp.Message)
}
