package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vinculacion/internal/platform/config"
	"vinculacion/internal/providers"
	"vinculacion/pkg/platform/circuit"
)

const ChannelWebhook = providers.Notifier

// Webhook posts completions to the n8n automation webhook behind a circuit breaker.
type Webhook struct {
	url     string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type WebhookOption func(*Webhook)

func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.http = c
		}
	}
}

func WithWebhookLogger(logger *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		w.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) WebhookOption {
	return func(w *Webhook) {
		if b != nil {
			w.breaker = b
		}
	}
}

func NewWebhook(cfg config.NotifyConfig, opts ...WebhookOption) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerOpts := []circuit.Option{circuit.WithSuccessThreshold(1)}
	if cfg.FailureThreshold > 0 {
		breakerOpts = append(breakerOpts, circuit.WithFailureThreshold(cfg.FailureThreshold))
	}
	if cfg.Cooldown > 0 {
		breakerOpts = append(breakerOpts, circuit.WithCooldown(cfg.Cooldown))
	}
	w := &Webhook{
		url:     strings.TrimSpace(cfg.WebhookURL),
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New(ChannelWebhook, breakerOpts...),
		logger:  slog.Default(),
		tracer:  otel.Tracer("vinculacion/notify"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Webhook) Notify(ctx context.Context, c Completion) []Delivery {
	if w.url == "" {
		w.logger.WarnContext(ctx, "N8N_WEBHOOK_URL not configured, skipping webhook")
		return []Delivery{{Channel: ChannelWebhook, Skipped: true}}
	}
	return []Delivery{w.deliver(ctx, c)}
}

func (w *Webhook) deliver(ctx context.Context, c Completion) (d Delivery) {
	ctx, span := w.tracer.Start(ctx, "notify.Webhook")
	defer span.End()

	start := w.now()
	d.Channel = ChannelWebhook
	d.Request, _ = json.Marshal(c)
	defer func() {
		d.Elapsed = w.now().Sub(start)
		span.SetAttributes(attribute.Bool("notify.success", d.Success))
		if !d.Success {
			span.SetStatus(codes.Error, d.Error)
		}
	}()

	if !w.breaker.Allow() {
		d.Error = "webhook circuit open"
		w.logger.WarnContext(ctx, "n8n webhook skipped, circuit open", "record_id", c.RecordID)
		return d
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(d.Request))
	if err != nil {
		d.Error = err.Error()
		return d
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		d.Error = err.Error()
		w.recordFailure(ctx)
		w.logger.ErrorContext(ctx, "n8n webhook failed", "record_id", c.RecordID, "error", err)
		return d
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	d.StatusCode = resp.StatusCode
	d.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !d.Success {
		d.Error = strings.TrimSpace(string(body))
		if d.Error == "" {
			d.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		w.recordFailure(ctx)
		w.logger.WarnContext(ctx, "n8n webhook rejected", "record_id", c.RecordID, "status", resp.StatusCode)
		return d
	}
	if len(bytes.TrimSpace(body)) > 0 && json.Valid(body) {
		d.Response = body
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "n8n webhook circuit closed")
	}
	w.logger.InfoContext(ctx, "n8n webhook sent", "record_id", c.RecordID, "status", resp.StatusCode)
	return d
}

func (w *Webhook) recordFailure(ctx context.Context) {
	if _, change := w.breaker.RecordFailure(); change.Opened {
		w.logger.WarnContext(ctx, "n8n webhook circuit opened")
	}
}
