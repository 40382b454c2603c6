package cybersource

import (
	"strconv"

	"commercegate-payment-api/models"
)

// Legacy 3-D Secure is a two-step sub-protocol: an enrollment check that may
// suspend the authorization, then a validate step with the cardholder-obtained
// PARes. Normalized 3DS 2.x fields bypass the round trip entirely and are
// attached verbatim to the authorization.

// EnrollmentState tracks where a payment attempt sits in the step-up flow.
type EnrollmentState string

const (
	StateNotRequested      EnrollmentState = "not_requested"
	StateEnrolling         EnrollmentState = "enrolling"
	StateUnenrolled        EnrollmentState = "unenrolled"
	StateEnrollmentPending EnrollmentState = "enrollment_pending"
	StateValidated         EnrollmentState = "validated"
	StateValidationFailed  EnrollmentState = "validation_failed"
)

// EnrollmentStateFor derives the state after a reply to a request that ran
// the payer-auth enroll service. An unenrolled card proceeds to a normal
// authorization in the same call, so an approved outcome means Unenrolled.
func EnrollmentStateFor(outcome *models.TransactionOutcome) EnrollmentState {
	switch {
	case outcome.Pending:
		return StateEnrollmentPending
	case outcome.Success:
		return StateUnenrolled
	default:
		return StateEnrolling
	}
}

// ValidationStateFor derives the state after a validate-step reply. A failed
// validation carries its own reason code, distinct from a plain decline.
func ValidationStateFor(outcome *models.TransactionOutcome) EnrollmentState {
	if outcome.Success {
		return StateValidated
	}
	return StateValidationFailed
}

// applyPayerAuth wires the 3DS controls into a request: the enroll service,
// the validate service (which requires a PARes — legacy path only), or the
// 2.x passthrough fields.
func applyPayerAuth(req *RequestMessage, opts *models.TransactionOptions) error {
	if opts == nil {
		return nil
	}

	if opts.PayerAuthEnroll {
		req.PayerAuthEnrollService = &RunService{Run: "true"}
	}

	if opts.PayerAuthValidate {
		if opts.PARes == "" {
			return &ValidationError{Field: "pares", Reason: "payer auth validation requires a PARes"}
		}
		req.PayerAuthValidateService = &PayerAuthValidateService{
			Run:         "true",
			SignedPARes: opts.PARes,
		}
	}

	if tds := opts.ThreeDSecure; tds != nil && req.CCAuthService != nil {
		attachPassthrough(req.CCAuthService, tds)
	}

	return nil
}

// attachPassthrough forwards pre-completed 3DS 2.x authentication fields
// without reinterpretation.
func attachPassthrough(auth *CCAuthService, tds *models.ThreeDSecure) {
	auth.CAVV = tds.CAVV
	auth.XID = tds.XID
	auth.ECI = tds.ECI
	auth.DirectoryServerTransID = tds.DSTransactionID
	auth.PASpecificationVersion = tds.Version
	auth.VERes = tds.Enrolled
	auth.PAResStatus = tds.AuthenticationResponseStatus
	if tds.CAVVAlgorithm != 0 {
		auth.CAVVAlgorithm = strconv.Itoa(tds.CAVVAlgorithm)
	}
}
