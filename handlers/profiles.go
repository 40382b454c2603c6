package handlers

import (
	"net/http"

	"commercegate-payment-api/database"
	"commercegate-payment-api/models"
	"commercegate-payment-api/queue"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/utils"
)

// ProfileHandler exposes stored payment profile management: create, charge,
// mutate, inspect and destroy provider-held profiles.
type ProfileHandler struct {
	db             *database.Connection
	paymentService *payment.Service
	queue          JobQueue
}

func NewProfileHandler(db *database.Connection, ps *payment.Service, q JobQueue) *ProfileHandler {
	return &ProfileHandler{
		db:             db,
		paymentService: ps,
		queue:          q,
	}
}

type storeRequest struct {
	Card         *models.CreditCard         `json:"card"`
	NetworkToken *models.NetworkTokenCard   `json:"network_token"`
	Options      *models.TransactionOptions `json:"options"`
}

type profileRequest struct {
	Authorization string                     `json:"authorization"`
	Card          *models.CreditCard         `json:"card"`
	Options       *models.TransactionOptions `json:"options"`
}

func (h *ProfileHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
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

	outcome, err := h.paymentService.Store(r.Context(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordProfile("store", req.Options, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var pm models.PaymentMethod
	if req.Card != nil {
		pm = *req.Card
	}

	outcome, err := h.paymentService.Update(r.Context(), req.Authorization, pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordProfile("update", req.Options, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *ProfileHandler) Unstore(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.paymentService.Unstore(r.Context(), req.Authorization, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	utils.SendOutcomeResponse(w, outcome)
}

// UnstoreLater queues profile destruction; used by account-closure flows
// that must not fail when the gateway is briefly unavailable.
func (h *ProfileHandler) UnstoreLater(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Authorization == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "authorization is required")
		return
	}

	err := h.queue.Enqueue(r.Context(), queue.JobTypeUnstoreProfile, map[string]interface{}{
		"authorization": req.Authorization,
	})
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to enqueue unstore")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Profile removal scheduled",
	})
}

func (h *ProfileHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	authorization := r.URL.Query().Get("authorization")
	if authorization == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "authorization is required")
		return
	}

	outcome, err := h.paymentService.Retrieve(r.Context(), authorization, nil)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	utils.SendOutcomeResponse(w, outcome)
}

func (h *ProfileHandler) recordProfile(operation string, opts *models.TransactionOptions, outcome *models.TransactionOutcome) {
	if h.db == nil {
		return
	}

	orderID := ""
	currency := ""
	if opts != nil {
		orderID = opts.OrderID
		currency = opts.Currency
	}

	rec := &models.TransactionRecord{
		RequestID:     outcome.RawFields["requestID"],
		Operation:     operation,
		OrderID:       orderID,
		Currency:      currency,
		Success:       outcome.Success,
		Pending:       outcome.Pending,
		ReasonCode:    outcome.ReasonCode,
		Message:       outcome.Message,
		Authorization: outcome.Authorization,
	}
	h.db.SaveTransaction(rec)
}
