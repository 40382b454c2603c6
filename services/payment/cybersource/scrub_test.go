package cybersource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTranscript = `<s:Envelope>
<wsse:Password Type="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText">hunter2secret</wsse:Password>
<merchantReferenceCode>order-42</merchantReferenceCode>
<accountNumber>4111111111111111</accountNumber>
<cvNumber>123</cvNumber>
<cavv>AAABCZIhcQAAAABZlyFxAAAAAAA=</cavv>
<grandTotalAmount>15.50</grandTotalAmount>
</s:Envelope>`

func TestScrubTranscriptMasksSensitiveFields(t *testing.T) {
	scrubbed := ScrubTranscript(sampleTranscript)

	require.NotContains(t, scrubbed, "4111111111111111")
	require.NotContains(t, scrubbed, "123</cvNumber>")
	require.NotContains(t, scrubbed, "AAABCZIhcQAAAABZlyFxAAAAAAA=")
	require.NotContains(t, scrubbed, "hunter2secret")

	require.Contains(t, scrubbed, "<accountNumber>[FILTERED]</accountNumber>")
	require.Contains(t, scrubbed, "<cvNumber>[FILTERED]</cvNumber>")
	require.Contains(t, scrubbed, "<cavv>[FILTERED]</cavv>")
	require.Contains(t, scrubbed, ">[FILTERED]</wsse:Password>")
}

func TestScrubTranscriptLeavesBusinessFieldsIntact(t *testing.T) {
	scrubbed := ScrubTranscript(sampleTranscript)

	require.Contains(t, scrubbed, "<merchantReferenceCode>order-42</merchantReferenceCode>")
	require.Contains(t, scrubbed, "<grandTotalAmount>15.50</grandTotalAmount>")
}

func TestScrubTranscriptCaseInsensitive(t *testing.T) {
	scrubbed := ScrubTranscript(`<AccountNumber>5555555555554444</AccountNumber>`)
	require.NotContains(t, scrubbed, "5555555555554444")
}

func TestScrubTranscriptIdempotent(t *testing.T) {
	once := ScrubTranscript(sampleTranscript)
	require.Equal(t, once, ScrubTranscript(once))
}
