package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"commercegate-payment-api/database"
	"commercegate-payment-api/models"
	"commercegate-payment-api/queue"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/services/payment/cybersource"
	"commercegate-payment-api/utils"
)

// JobQueue is the queue surface the handlers need; *queue.Queue satisfies it.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
	EnqueueDelayed(ctx context.Context, jobType queue.JobType, data map[string]interface{}, delay time.Duration) error
}

// PaymentHandler exposes the money-movement operations over HTTP. Every
// outcome is recorded in the transactions table; follow-up work (delayed
// captures, queued voids) goes through the job queue.
type PaymentHandler struct {
	db             *database.Connection
	paymentService *payment.Service
	queue          JobQueue
}

func NewPaymentHandler(db *database.Connection, ps *payment.Service, q JobQueue) *PaymentHandler {
	return &PaymentHandler{
		db:             db,
		paymentService: ps,
		queue:          q,
	}
}

// transactionRequest is the JSON body for card-based money movement. Exactly
// one payment method shape may be present; unknown keys are rejected.
type transactionRequest struct {
	AmountMinorUnits     int64                      `json:"amount"`
	Currency             string                     `json:"currency"`
	Card                 *models.CreditCard         `json:"card"`
	NetworkToken         *models.NetworkTokenCard   `json:"network_token"`
	ProfileAuthorization string                     `json:"profile_authorization"`
	Options              *models.TransactionOptions `json:"options"`
}

// referenceRequest is the JSON body for token-based follow-on operations.
type referenceRequest struct {
	AmountMinorUnits int64                      `json:"amount"`
	Currency         string                     `json:"currency"`
	Authorization    string                     `json:"authorization"`
	Options          *models.TransactionOptions `json:"options"`
}

func decodeStrict(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func (req *transactionRequest) paymentMethod() (models.PaymentMethod, error) {
	switch {
	case req.Card != nil:
		return *req.Card, nil
	case req.NetworkToken != nil:
		return *req.NetworkToken, nil
	case req.ProfileAuthorization != "":
		return models.ProfileReference{Authorization: req.ProfileAuthorization}, nil
	default:
		return nil, errors.New("one of card, network_token or profile_authorization is required")
	}
}

func (req *transactionRequest) money() models.Money {
	currency := req.Currency
	if currency == "" && req.Options != nil {
		currency = req.Options.Currency
	}
	return models.MoneyFromMinorUnits(req.AmountMinorUnits, currency)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Declines never reach here: they are classified outcomes, not errors.
func writeEngineError(w http.ResponseWriter, err error) {
	var validationErr *cybersource.ValidationError
	var referenceErr *cybersource.InvalidReferenceError
	var authErr *cybersource.ProviderAuthError
	var unsupportedErr *cybersource.UnsupportedOperationError
	var transportErr *cybersource.TransportError

	switch {
	case errors.As(err, &validationErr):
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &referenceErr):
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, referenceErr.Error())
	case errors.As(err, &authErr):
		utils.SendErrorResponse(w, http.StatusBadGateway, "Gateway rejected merchant credentials")
	case errors.As(err, &unsupportedErr):
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, unsupportedErr.Error())
	case errors.As(err, &transportErr):
		utils.SendErrorResponse(w, http.StatusBadGateway, "Gateway unreachable, safe to retry")
	default:
		utils.SendErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *PaymentHandler) record(operation string, req *transactionRequest, outcome *models.TransactionOutcome) {
	if h.db == nil {
		return
	}

	orderID := ""
	currency := req.Currency
	if req.Options != nil {
		orderID = req.Options.OrderID
		if currency == "" {
			currency = req.Options.Currency
		}
	}

	rec := &models.TransactionRecord{
		RequestID:        outcome.RawFields["requestID"],
		Operation:        operation,
		OrderID:          orderID,
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         currency,
		Success:          outcome.Success,
		Pending:          outcome.Pending,
		ReasonCode:       outcome.ReasonCode,
		Message:          outcome.Message,
		Authorization:    outcome.Authorization,
	}
	if err := h.db.SaveTransaction(rec); err != nil {
		log.Printf("Warning: failed to record %s outcome: %v", operation, err)
	}
}

func (h *PaymentHandler) recordReference(operation string, req *referenceRequest, outcome *models.TransactionOutcome) {
	if h.db == nil {
		return
	}

	orderID := ""
	if req.Options != nil {
		orderID = req.Options.OrderID
	}
	if orderID == "" {
		if token, err := cybersource.DecodeToken(req.Authorization); err == nil {
			orderID = token.OrderID
		}
	}

	rec := &models.TransactionRecord{
		RequestID:        outcome.RawFields["requestID"],
		Operation:        operation,
		OrderID:          orderID,
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
		Success:          outcome.Success,
		Pending:          outcome.Pending,
		ReasonCode:       outcome.ReasonCode,
		Message:          outcome.Message,
		Authorization:    outcome.Authorization,
	}
	if err := h.db.SaveTransaction(rec); err != nil {
		log.Printf("Warning: failed to record %s outcome: %v", operation, err)
	}
}

func (h *PaymentHandler) Authorize(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.paymentService.Authorize(r.Context(), req.money(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.record("authorize", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.paymentService.Purchase(r.Context(), req.money(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.record("purchase", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	amount := models.MoneyFromMinorUnits(req.AmountMinorUnits, req.Currency)
	outcome, err := h.paymentService.Capture(r.Context(), amount, req.Authorization, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordReference("capture", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

// CaptureLater schedules a capture through the job queue instead of running
// it inline. Used by integrations that authorize at order time and settle at
// shipment time.
func (h *PaymentHandler) CaptureLater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		referenceRequest
		DelaySeconds int64 `json:"delay_seconds"`
	}
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Authorization == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "authorization is required")
		return
	}

	data := map[string]interface{}{
		"authorization": req.Authorization,
		"amount":        float64(req.AmountMinorUnits),
		"currency":      req.Currency,
	}
	if req.Options != nil {
		data["order_id"] = req.Options.OrderID
	}

	var err error
	if req.DelaySeconds > 0 {
		err = h.queue.EnqueueDelayed(r.Context(), queue.JobTypeCaptureTransaction, data,
			time.Duration(req.DelaySeconds)*time.Second)
	} else {
		err = h.queue.Enqueue(r.Context(), queue.JobTypeCaptureTransaction, data)
	}
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to enqueue capture")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Capture scheduled",
	})
}

func (h *PaymentHandler) Void(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.paymentService.Void(r.Context(), req.Authorization, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordReference("void", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	amount := models.MoneyFromMinorUnits(req.AmountMinorUnits, req.Currency)
	outcome, err := h.paymentService.Refund(r.Context(), amount, req.Authorization, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordReference("refund", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Credit(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.paymentService.Credit(r.Context(), req.money(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.record("credit", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	amount := models.MoneyFromMinorUnits(req.AmountMinorUnits, req.Currency)
	outcome, err := h.paymentService.Adjust(r.Context(), amount, req.Authorization, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.recordReference("adjust", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.paymentService.Verify(r.Context(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// The verification hold is never meant to settle; release it off the
	// request path.
	if outcome.Success && outcome.Authorization != "" && h.queue != nil {
		data := map[string]interface{}{"authorization": outcome.Authorization}
		if token, err := cybersource.DecodeToken(outcome.Authorization); err == nil {
			data["order_id"] = token.OrderID
		}
		if err := h.queue.Enqueue(r.Context(), queue.JobTypeVoidTransaction, data); err != nil {
			log.Printf("Warning: failed to queue release of verification hold: %v", err)
		}
	}

	h.record("verify", &req, outcome)
	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) CalculateTax(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.paymentService.CalculateTax(r.Context(), pm, req.Options)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	utils.SendOutcomeResponse(w, outcome)
}

func (h *PaymentHandler) VerifyCredentials(w http.ResponseWriter, r *http.Request) {
	valid := h.paymentService.VerifyCredentials(r.Context())

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Credential check complete",
		Data:    map[string]bool{"valid": valid},
	})
}

// GetTransaction looks up the latest recorded outcome for an order.
func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "order_id is required")
		return
	}

	record, err := h.db.GetTransactionByOrderID(orderID)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Transaction found",
		Data:    record,
	})
}

// ListTransactions returns recent records for reconciliation dashboards.
func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.db.ListTransactions(limit)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Transactions listed",
		Data:    records,
	})
}
