package models

import "time"

// TransactionRecord is the API layer's persisted view of one gateway call.
// The gateway engine itself holds no state; durability of tokens across
// restarts belongs to the caller, which here is the HTTP API.
type TransactionRecord struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id"`
	Operation        string    `json:"operation"`
	OrderID          string    `json:"order_id"`
	AmountMinorUnits int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Success          bool      `json:"success"`
	Pending          bool      `json:"pending"`
	ReasonCode       string    `json:"reason_code"`
	Message          string    `json:"message"`
	Authorization    string    `json:"authorization,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuthUser is the identity carried by an internal API token.
type AuthUser struct {
	Username string `json:"username"`
	Role     string `json:"role"` // "integration" or "admin"
}
