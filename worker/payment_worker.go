package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"commercegate-payment-api/database"
	"commercegate-payment-api/models"
	"commercegate-payment-api/queue"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/services/payment/cybersource"
)

// Worker executes follow-up gateway operations off the request path: delayed
// captures, voids of abandoned authorizations, profile teardown.
type Worker struct {
	queue          *queue.Queue
	db             *database.Connection
	paymentService *payment.Service
	shutdown       chan struct{}
	isRunning      bool
}

func NewWorker(q *queue.Queue, db *database.Connection, ps *payment.Service) *Worker {
	return &Worker{
		queue:          q,
		db:             db,
		paymentService: ps,
		shutdown:       make(chan struct{}),
	}
}

// Start begins processing jobs with the given number of goroutines, plus one
// sweeper that promotes due delayed jobs.
func (w *Worker) Start(concurrency int) {
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}
	go w.sweepDelayedJobs()

	log.Printf("Started %d worker goroutines", concurrency)
}

func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.isRunning = false
}

func (w *Worker) sweepDelayedJobs() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJobs(workerID int) {
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			cancel()

			if err != nil {
				log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

			jobErr := w.processJob(job)
			if jobErr != nil {
				log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if failErr := w.queue.FailJob(ctx, job, jobErr); failErr != nil {
					log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
				}
				cancel()

				time.Sleep(time.Second)
				continue
			}

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			if completeErr := w.queue.CompleteJob(ctx, job); completeErr != nil {
				log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
			}
			cancel()
		}
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeVoidTransaction:
		return w.processVoid(job)
	case queue.JobTypeCaptureTransaction:
		return w.processCapture(job)
	case queue.JobTypeUnstoreProfile:
		return w.processUnstore(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processVoid(job *queue.Job) error {
	authorization, ok := job.Data["authorization"].(string)
	if !ok || authorization == "" {
		return fmt.Errorf("invalid authorization in job data")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cybersource.RequestTimeout)
	defer cancel()

	outcome, err := w.paymentService.Void(ctx, authorization, nil)
	if err != nil {
		return fmt.Errorf("void failed: %v", err)
	}
	if !outcome.Success {
		// Already-reversed or already-settled voids are terminal; retrying
		// them cannot succeed.
		if outcome.ReasonCode == "237" || outcome.ReasonCode == "243" || outcome.ReasonCode == "246" {
			log.Printf("Void not applicable (reason code %s): %s", outcome.ReasonCode, outcome.Message)
			return nil
		}
		return fmt.Errorf("void declined: %s", outcome.Message)
	}

	w.recordOutcome("void", job, outcome)
	return nil
}

func (w *Worker) processCapture(job *queue.Job) error {
	authorization, ok := job.Data["authorization"].(string)
	if !ok || authorization == "" {
		return fmt.Errorf("invalid authorization in job data")
	}
	amountUnits, ok := job.Data["amount"].(float64)
	if !ok {
		return fmt.Errorf("invalid amount in job data")
	}
	currency, _ := job.Data["currency"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), cybersource.RequestTimeout)
	defer cancel()

	amount := models.MoneyFromMinorUnits(int64(amountUnits), currency)
	outcome, err := w.paymentService.Capture(ctx, amount, authorization, nil)
	if err != nil {
		return fmt.Errorf("capture failed: %v", err)
	}
	if !outcome.Success {
		if outcome.ReasonCode == "238" {
			log.Printf("Capture already completed: %s", outcome.Message)
			return nil
		}
		return fmt.Errorf("capture declined: %s", outcome.Message)
	}

	w.recordOutcome("capture", job, outcome)
	return nil
}

func (w *Worker) processUnstore(job *queue.Job) error {
	authorization, ok := job.Data["authorization"].(string)
	if !ok || authorization == "" {
		return fmt.Errorf("invalid authorization in job data")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cybersource.RequestTimeout)
	defer cancel()

	outcome, err := w.paymentService.Unstore(ctx, authorization, nil)
	if err != nil {
		return fmt.Errorf("unstore failed: %v", err)
	}
	if !outcome.Success {
		return fmt.Errorf("unstore declined: %s", outcome.Message)
	}
	return nil
}

func (w *Worker) recordOutcome(operation string, job *queue.Job, outcome *models.TransactionOutcome) {
	if w.db == nil {
		return
	}

	orderID, _ := job.Data["order_id"].(string)
	amountUnits, _ := job.Data["amount"].(float64)
	currency, _ := job.Data["currency"].(string)
	if currency == "" {
		if token, err := cybersource.DecodeToken(outcome.Authorization); err == nil {
			currency = token.Currency
		}
	}

	record := &models.TransactionRecord{
		RequestID:        outcome.RawFields["requestID"],
		Operation:        operation,
		OrderID:          orderID,
		AmountMinorUnits: int64(amountUnits),
		Currency:         currency,
		Success:          outcome.Success,
		Pending:          outcome.Pending,
		ReasonCode:       outcome.ReasonCode,
		Message:          outcome.Message,
		Authorization:    outcome.Authorization,
	}
	if err := w.db.SaveTransaction(record); err != nil {
		log.Printf("Warning: failed to record %s outcome: %v", operation, err)
	}
}
