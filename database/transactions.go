package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"commercegate-payment-api/models"
)

// SaveTransaction records the outcome of one gateway call. The engine is
// stateless; this table is the API's durable record of minted tokens and the
// source for follow-up jobs.
func (c *Connection) SaveTransaction(record *models.TransactionRecord) error {
	if err := c.ensureConnection(); err != nil {
		return fmt.Errorf("database connection check failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
        INSERT INTO payment_transactions (
            request_id, operation, order_id, amount, currency,
            success, pending, reason_code, message, authorization_token, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
    `

	result, err := c.db.ExecContext(ctx, query,
		record.RequestID,
		record.Operation,
		record.OrderID,
		record.AmountMinorUnits,
		record.Currency,
		record.Success,
		record.Pending,
		record.ReasonCode,
		record.Message,
		record.Authorization,
	)
	if err != nil {
		log.Printf("Error saving transaction record: %v", err)
		return fmt.Errorf("failed to save transaction record: %v", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// GetTransactionByOrderID returns the most recent record for an order.
func (c *Connection) GetTransactionByOrderID(orderID string) (*models.TransactionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
        SELECT id, request_id, operation, order_id, amount, currency,
               success, pending, reason_code, message, authorization_token, created_at
        FROM payment_transactions
        WHERE order_id = ?
        ORDER BY id DESC
        LIMIT 1
    `

	var record models.TransactionRecord
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&record.ID,
		&record.RequestID,
		&record.Operation,
		&record.OrderID,
		&record.AmountMinorUnits,
		&record.Currency,
		&record.Success,
		&record.Pending,
		&record.ReasonCode,
		&record.Message,
		&record.Authorization,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no transaction found for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %v", err)
	}

	return &record, nil
}

// ListTransactions returns recent records, newest first.
func (c *Connection) ListTransactions(limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
        SELECT id, request_id, operation, order_id, amount, currency,
               success, pending, reason_code, message, authorization_token, created_at
        FROM payment_transactions
        ORDER BY id DESC
        LIMIT ?
    `

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %v", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var record models.TransactionRecord
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Operation,
			&record.OrderID,
			&record.AmountMinorUnits,
			&record.Currency,
			&record.Success,
			&record.Pending,
			&record.ReasonCode,
			&record.Message,
			&record.Authorization,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
