package worker

// dlq.go: Dead Letter Queue
// Jobs the pool gives up on land in dlq:{original_queue}. An entry for an
// invoice_issued job names the invoice, so the cashier screen can be told
// which receipt will be read from the database instead of the cache.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// Why a job was dead-lettered.
const (
	ReasonMalformed        = "malformed_job"
	ReasonNoHandler        = "no_handler"
	ReasonRetriesExhausted = "retries_exhausted"
)

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	Error         string          `json:"error,omitempty"`
	InvoiceID     uint            `json:"invoice_id,omitempty"`
	OrderID       uint            `json:"order_id,omitempty"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue string, job Job, reason string, cause error, now time.Time) DLQEntry {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      now.UTC().Format(time.RFC3339),
		Attempts:      job.Attempts,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if job.Type == JobInvoiceIssued {
		var p InvoiceIssuedPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			entry.InvoiceID = p.InvoiceID
			entry.OrderID = p.OrderID
		}
	}
	return entry
}

// SendToDLQ pushes a failed job to the dead letter queue of its source queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string, cause error) {
	entry := newDLQEntry(queue, job, reason, cause, time.Now())

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Uint("invoice_id", entry.InvoiceID).Msg("dlq: failed to push")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", entry.JobType).
		Str("reason", reason).
		Str("error", entry.Error).
		Uint("invoice_id", entry.InvoiceID).
		Uint("order_id", entry.OrderID).
		Int("attempts", entry.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ. Used by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
