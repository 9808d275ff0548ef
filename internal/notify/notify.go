// Package notify announces completed enrollments to downstream automation:
// the n8n webhook and the enrollment.completed Kafka topic.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Completion is the announcement sent when an enrollment completes.
type Completion struct {
	RecordID           int64      `json:"id_preregistro"`
	DocumentNumber     string     `json:"numero_cedula"`
	FullName           string     `json:"nombres_completos"`
	Branch             string     `json:"agencia"`
	ExternalCustomerID *string    `json:"id_tercero_linix"`
	CompletedAt        *time.Time `json:"fecha_completado"`
}

// Delivery is the outcome of one channel. Skipped channels are not configured
// and produce no integration log.
type Delivery struct {
	Channel    string
	Skipped    bool
	Success    bool
	StatusCode int
	Request    json.RawMessage
	Response   json.RawMessage
	Error      string
	Elapsed    time.Duration
}

// Notifier delivers a completion. It never returns an error: failures are
// reported per delivery so the caller can log them and move on.
type Notifier interface {
	Notify(ctx context.Context, c Completion) []Delivery
}

// Multi fans a completion out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, c Completion) []Delivery {
	var out []Delivery
	for _, n := range m {
		if n == nil {
			continue
		}
		out = append(out, n.Notify(ctx, c)...)
	}
	return out
}

// Nop never delivers anything.
type Nop struct{}

func (Nop) Notify(context.Context, Completion) []Delivery { return nil }
