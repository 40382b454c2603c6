package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"commercegate-payment-api/database"
	"commercegate-payment-api/models"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/services/payment/cybersource"
	"commercegate-payment-api/utils"
)

const threeDSSessionName = "pending_3ds"

// ThreeDSHandler drives the legacy 3-D Secure step-up flow over two HTTP
// exchanges: an enrollment check that may suspend the payment, then
// completion with the PARes the cardholder brought back from the ACS. The
// pending transaction context rides a session cookie between the two.
type ThreeDSHandler struct {
	db             *database.Connection
	paymentService *payment.Service
	sessions       *sessions.CookieStore
}

func NewThreeDSHandler(db *database.Connection, ps *payment.Service, sessionSecret string) *ThreeDSHandler {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/api/v1/3ds",
		MaxAge:   15 * 60,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return &ThreeDSHandler{
		db:             db,
		paymentService: ps,
		sessions:       store,
	}
}

// Enroll runs an authorization with the payer-auth enrollment check. An
// enrolled card comes back pending with the ACS redirect payload; an
// unenrolled card authorizes normally in the same call.
func (h *ThreeDSHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	pm, err := req.paymentMethod()
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := req.Options
	if opts == nil {
		opts = &models.TransactionOptions{}
	}
	opts.PayerAuthEnroll = true
	if opts.OrderID == "" {
		opts.OrderID = utils.GenerateOrderID()
	}

	outcome, err := h.paymentService.Authorize(r.Context(), req.money(), pm, opts)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	state := cybersource.EnrollmentStateFor(outcome)
	log.Printf("3DS enrollment check for order %s: %s", opts.OrderID, state)

	if outcome.Pending {
		session, _ := h.sessions.Get(r, threeDSSessionName)
		session.Values["order_id"] = opts.OrderID
		session.Values["amount"] = req.AmountMinorUnits
		session.Values["currency"] = req.Currency
		if outcome.ThreeDSecure != nil {
			session.Values["xid"] = outcome.ThreeDSecure.XID
		}
		if err := session.Save(r, w); err != nil {
			log.Printf("Warning: failed to save 3DS session: %v", err)
		}
	}

	if h.db != nil {
		h.db.SaveTransaction(&models.TransactionRecord{
			RequestID:        outcome.RawFields["requestID"],
			Operation:        "3ds_enroll",
			OrderID:          opts.OrderID,
			AmountMinorUnits: req.AmountMinorUnits,
			Currency:         req.Currency,
			Success:          outcome.Success,
			Pending:          outcome.Pending,
			ReasonCode:       outcome.ReasonCode,
			Message:          outcome.Message,
			Authorization:    outcome.Authorization,
		})
	}
	utils.SendOutcomeResponse(w, outcome)
}

type completeRequest struct {
	Card         *models.CreditCard         `json:"card"`
	NetworkToken *models.NetworkTokenCard   `json:"network_token"`
	PARes        string                     `json:"pares"`
	Options      *models.TransactionOptions `json:"options"`
}

// Complete finishes a suspended payment with the signed PARes from the ACS.
// The amount, currency and order id come from the enrollment session so the
// validated charge cannot drift from what the cardholder authenticated.
func (h *ThreeDSHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.PARes == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "pares is required")
		return
	}

	var pm models.PaymentMethod
	switch {
	case req.Card != nil:
		pm = *req.Card
	case req.NetworkToken != nil:
		pm = *req.NetworkToken
	default:
		utils.SendErrorResponse(w, http.StatusBadRequest, "card or network_token is required")
		return
	}

	session, err := h.sessions.Get(r, threeDSSessionName)
	if err != nil || session.IsNew {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "No pending 3DS transaction for this session")
		return
	}

	orderID, _ := session.Values["order_id"].(string)
	amountUnits, _ := session.Values["amount"].(int64)
	currency, _ := session.Values["currency"].(string)
	if orderID == "" {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "No pending 3DS transaction for this session")
		return
	}

	opts := req.Options
	if opts == nil {
		opts = &models.TransactionOptions{}
	}
	opts.OrderID = orderID
	opts.PayerAuthValidate = true
	opts.PARes = req.PARes

	amount := models.MoneyFromMinorUnits(amountUnits, currency)
	outcome, err := h.paymentService.Authorize(r.Context(), amount, pm, opts)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	state := cybersource.ValidationStateFor(outcome)
	log.Printf("3DS validation for order %s: %s", orderID, state)

	// The step-up is finished either way; drop the pending context.
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Printf("Warning: failed to clear 3DS session: %v", err)
	}

	if h.db != nil {
		h.db.SaveTransaction(&models.TransactionRecord{
			RequestID:        outcome.RawFields["requestID"],
			Operation:        "3ds_complete",
			OrderID:          orderID,
			AmountMinorUnits: amountUnits,
			Currency:         currency,
			Success:          outcome.Success,
			Pending:          outcome.Pending,
			ReasonCode:       outcome.ReasonCode,
			Message:          outcome.Message,
			Authorization:    outcome.Authorization,
		})
	}

	utils.SendOutcomeResponse(w, outcome)
}
