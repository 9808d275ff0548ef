// Package service orchestrates the enrollment workflow: submission, biometric
// validation, the core-banking hand-off and completion checks. Every call to
// an external system is written to the integration log before the operation
// returns.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"vinculacion/internal/biometrics"
	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/metrics"
	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/notify"
	"vinculacion/internal/providers"
	dErrors "vinculacion/pkg/domain-errors"
	"vinculacion/pkg/platform/sentinel"
)

type RecordStore interface {
	Create(ctx context.Context, r *models.Record) error
	FindByID(ctx context.Context, id int64) (*models.Record, error)
	FindByDocumentNumber(ctx context.Context, doc string) (*models.Record, error)
	FindByProviderCaseID(ctx context.Context, caseID string) (*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
	List(ctx context.Context, f models.RecordFilter) ([]*models.Record, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LogStore interface {
	Append(ctx context.Context, e *models.LogEntry) error
	ListByRecord(ctx context.Context, recordID int64) ([]*models.LogEntry, error)
}

type BiometricsClient interface {
	RegisterCase(ctx context.Context, req biometrics.RegisterRequest) biometrics.RegisterResult
	QueryCase(ctx context.Context, req biometrics.QueryRequest) biometrics.QueryResult
}

type CoreBankingClient interface {
	CheckExistingCustomer(ctx context.Context, doc string, issueDate time.Time) corebanking.CustomerCheck
	VerifyFlowCompleted(ctx context.Context, doc string) corebanking.FlowCheck
	Ping(ctx context.Context) error
}

type AgileClient interface {
	SubmitEnrollment(ctx context.Context, payload corebanking.Payload) (*corebanking.SubmitResult, error)
}

type PayloadBuilder interface {
	Build(a corebanking.Applicant, record *models.Record) (corebanking.Payload, error)
}

type Notifier interface {
	Notify(ctx context.Context, c notify.Completion) []notify.Delivery
}

var (
	_ BiometricsClient  = (*biometrics.Client)(nil)
	_ CoreBankingClient = (*corebanking.Client)(nil)
	_ AgileClient       = (*corebanking.AgileClient)(nil)
	_ PayloadBuilder    = (*corebanking.PayloadBuilder)(nil)
	_ Notifier          = notify.Multi(nil)
)

const (
	defaultMaxAttempts  = 2
	defaultBatchLimit   = 50
	defaultBatchWorkers = 4
)

// Service owns the enrollment state machine. Handlers stay thin; stores stay
// pure I/O.
type Service struct {
	records      RecordStore
	logs         LogStore
	biometrics   BiometricsClient
	coreBanking  CoreBankingClient
	agile        AgileClient
	builder      PayloadBuilder
	notifier     Notifier
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
	maxAttempts  int
	linkBase     string
	batchLimit   int
	batchWorkers int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAgile enables agile enrollment submissions.
func WithAgile(client AgileClient, builder PayloadBuilder) Option {
	return func(s *Service) {
		s.agile = client
		s.builder = builder
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMaxBiometricAttempts sets how many rejections block a citizen.
func WithMaxBiometricAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithCoreBankingLink sets the base URL of the LINIX assisted-enrollment form.
func WithCoreBankingLink(base string) Option {
	return func(s *Service) {
		s.linkBase = base
	}
}

// WithBatch sets the default batch size and how many records are verified at once.
func WithBatch(limit, workers int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.batchLimit = limit
		}
		if workers > 0 {
			s.batchWorkers = workers
		}
	}
}

func New(records RecordStore, logs LogStore, bio BiometricsClient, core CoreBankingClient, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, errors.New("record store is required")
	}
	if logs == nil {
		return nil, errors.New("log store is required")
	}
	if bio == nil {
		return nil, errors.New("biometrics client is required")
	}
	if core == nil {
		return nil, errors.New("core banking client is required")
	}
	s := &Service{
		records:      records,
		logs:         logs,
		biometrics:   bio,
		coreBanking:  core,
		notifier:     notify.Nop{},
		logger:       slog.Default(),
		now:          time.Now,
		maxAttempts:  defaultMaxAttempts,
		batchLimit:   defaultBatchLimit,
		batchWorkers: defaultBatchWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id int64) (*models.Record, error) {
	return s.findRecord(ctx, id)
}

// Logs returns the integration log of a record, oldest first.
func (s *Service) Logs(ctx context.Context, id int64) ([]*models.LogEntry, error) {
	if _, err := s.findRecord(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.logs.ListByRecord(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list integration logs")
	}
	return entries, nil
}

// Detail returns a record with its integration log and its LINIX form link.
func (s *Service) Detail(ctx context.Context, id int64) (*DetailResult, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.logs.ListByRecord(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list integration logs")
	}
	return &DetailResult{Record: record, Logs: entries, CoreBankingLink: s.coreBankingLink(record)}, nil
}

func (s *Service) findRecord(ctx context.Context, id int64) (*models.Record, error) {
	r, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Pre-registro no encontrado")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, r *models.Record) error {
	r.UpdatedAt = s.now()
	if err := s.records.Update(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save record")
	}
	return nil
}

// recordCall observes the latency of one external call and appends its
// integration log entry.
func (s *Service) recordCall(ctx context.Context, recordID int64, action models.Action, success bool, req, resp json.RawMessage, errMsg string, elapsed time.Duration) {
	s.metrics.ObserveExternalCall(string(action), success, elapsed)
	s.appendLog(ctx, recordID, action, success, req, resp, errMsg, elapsed)
}

// appendLog writes one integration log entry. Calls made before a record
// exists are not logged. A log write failure is reported but does not fail
// the operation that made the call.
func (s *Service) appendLog(ctx context.Context, recordID int64, action models.Action, success bool, req, resp json.RawMessage, errMsg string, elapsed time.Duration) {
	if recordID == 0 {
		return
	}
	entry := models.NewLogEntry(recordID, action, success, req, resp, errMsg, elapsed, s.now())
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append integration log",
			"record_id", recordID,
			"action", action,
			"error", err,
		)
	}
}

// gatewayCode picks the response code for a vendor failure: timeouts answer
// 504, anything else 502.
func gatewayCode(kind providers.ErrorCategory) dErrors.Code {
	if kind == providers.ErrorTimeout {
		return dErrors.CodeTimeout
	}
	return dErrors.CodeBadGateway
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
