package cybersource

import (
	"regexp"
)

// Transcript scrubbing. Captured wire exchanges contain the PAN, CVV, the
// network-token cryptogram (carried in the cavv element) and the wsse
// password; all of them must be masked before a transcript is persisted or
// shared. Replacement with a fixed mask keeps scrubbing idempotent, and
// matching only inside the sensitive elements keeps amounts and order ids
// untouched.

const scrubMask = "[FILTERED]"

var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(<accountNumber>)[^<]*(</accountNumber>)`),
	regexp.MustCompile(`(?i)(<cvNumber>)[^<]*(</cvNumber>)`),
	regexp.MustCompile(`(?i)(<cavv>)[^<]*(</cavv>)`),
	regexp.MustCompile(`(?i)(<wsse:Password[^>]*>)[^<]*(</wsse:Password>)`),
}

// ScrubTranscript masks sensitive values in a raw request/response transcript,
// leaving everything else byte for byte intact.
func ScrubTranscript(transcript string) string {
	scrubbed := transcript
	for _, pattern := range scrubPatterns {
		scrubbed = pattern.ReplaceAllString(scrubbed, "${1}"+scrubMask+"${2}")
	}
	return scrubbed
}
