package cybersource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyApproved(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode": "100",
		"decision":   "ACCEPT",
		"requestID":  "7004500",
	})

	require.True(t, outcome.Success)
	require.False(t, outcome.Pending)
	require.Equal(t, "100", outcome.ReasonCode)
	require.Equal(t, "Successful transaction", outcome.Message)
	require.Nil(t, outcome.ThreeDSecure)
	require.Equal(t, "7004500", outcome.RawFields["requestID"])
}

func TestClassifyDecline(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode": "231",
		"decision":   "REJECT",
	})

	require.False(t, outcome.Success)
	require.False(t, outcome.Pending)
	require.Equal(t, "Invalid account number", outcome.Message)
}

func TestClassifyInvalidFieldAppended(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode":   "102",
		"invalidField": "c:billTo/c:postalCode",
	})

	require.Equal(t, "One or more fields contains invalid data: c:billTo/c:postalCode", outcome.Message)

	outcome = policy.Classify(map[string]string{
		"reasonCode":   "101",
		"invalidField": "c:purchaseTotals/c:currency",
	})
	require.Equal(t, "The request is missing one or more required fields: c:purchaseTotals/c:currency", outcome.Message)
}

func TestClassifyInvalidFieldIgnoredForOtherCodes(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode":   "231",
		"invalidField": "c:card/c:accountNumber",
	})

	require.Equal(t, "Invalid account number", outcome.Message)
}

func TestClassifyPendingEnrollment(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode": "475",
		"acsURL":     "https://acs.example.com/pareq",
		"paReq":      "eJxVUtt",
		"xid":        "Y2liZXJz",
	})

	require.False(t, outcome.Success)
	require.True(t, outcome.Pending)
	require.NotNil(t, outcome.ThreeDSecure)
	require.Equal(t, "https://acs.example.com/pareq", outcome.ThreeDSecure.ACSURL)
	require.Equal(t, "eJxVUtt", outcome.ThreeDSecure.PAReq)
	require.Equal(t, "Y2liZXJz", outcome.ThreeDSecure.XID)
}

func TestClassifyUnknownCodeFallsBackToDecision(t *testing.T) {
	policy := DefaultReasonCodePolicy()

	outcome := policy.Classify(map[string]string{
		"reasonCode": "999",
		"decision":   "REJECT",
	})
	require.Equal(t, "REJECT (reason code 999)", outcome.Message)

	outcome = policy.Classify(map[string]string{"reasonCode": "999"})
	require.Equal(t, "Unknown reason code 999", outcome.Message)
}

func TestClassifyCustomPolicy(t *testing.T) {
	policy := &ReasonCodePolicy{
		Approved: map[string]bool{"100": true, "110": true},
		Pending:  map[string]bool{},
		Messages: map[string]string{"110": "Partial amount was approved"},
	}

	outcome := policy.Classify(map[string]string{"reasonCode": "110"})
	require.True(t, outcome.Success)
	require.Equal(t, "Partial amount was approved", outcome.Message)
}
