package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"vinculacion/internal/providers"
)

const ChannelKafka = providers.KafkaEvents

// Publisher writes one keyed record.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Event publishes completions as enrollment.completed records keyed by record id.
type Event struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewEvent(publisher Publisher, logger *slog.Logger) *Event {
	if logger == nil {
		logger = slog.Default()
	}
	return &Event{publisher: publisher, logger: logger, now: time.Now}
}

type completedEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Completion
}

func (e *Event) Notify(ctx context.Context, c Completion) []Delivery {
	if e.publisher == nil {
		return []Delivery{{Channel: ChannelKafka, Skipped: true}}
	}
	start := e.now()
	d := Delivery{Channel: ChannelKafka}
	d.Request, _ = json.Marshal(completedEvent{EventID: uuid.NewString(), Type: "enrollment.completed", Completion: c})

	if err := e.publisher.Publish(ctx, strconv.FormatInt(c.RecordID, 10), d.Request); err != nil {
		d.Error = err.Error()
		e.logger.ErrorContext(ctx, "completion event not published", "record_id", c.RecordID, "error", err)
	} else {
		d.Success = true
	}
	d.Elapsed = e.now().Sub(start)
	return []Delivery{d}
}
