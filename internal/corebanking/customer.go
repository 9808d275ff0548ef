// Package corebanking integrates with the LINIX core-banking system: its Oracle
// stored procedures and its agile enrollment REST API.
package corebanking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vinculacion/internal/providers"
)

const (
	procConsultActu  = "SP_CONSULTACTU"
	procFlowComplete = "SP_FLUJOEXITOSO"

	FlowOK      = "OK"
	FlowPending = "PDTE"

	issueDateLayout = "02/01/2006"
)

// CustomerCheck is the outcome of SP_CONSULTACTU. Failure is set only when
// the procedure could not be evaluated.
type CustomerCheck struct {
	AlreadyCustomer bool
	Failure         *providers.Error
	Elapsed         time.Duration
}

func (c CustomerCheck) OK() bool { return c.Failure == nil }

// FlowCheck is the outcome of SP_FLUJOEXITOSO.
type FlowCheck struct {
	Found              bool
	Status             string
	ExternalCustomerID string
	Message            string
	DryRun             bool
	Raw                json.RawMessage
	Failure            *providers.Error
	Elapsed            time.Duration
}

func (f FlowCheck) OK() bool { return f.Failure == nil }

type flowRaw struct {
	Procedure          string `json:"procedimiento"`
	DocumentNumber     string `json:"cedula"`
	Status             string `json:"estado"`
	StatusRaw          string `json:"estado_raw,omitempty"`
	ExternalCustomerID string `json:"id_tercero,omitempty"`
	Message            string `json:"mensaje,omitempty"`
	DryRun             bool   `json:"dry_run,omitempty"`
}

// Client evaluates the customer checks against the stored procedures.
type Client struct {
	procs   Procedures
	timeout time.Duration
	dryRun  bool
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type ClientOption func(*Client)

// WithProcedureTimeout bounds every procedure call. Defaults to 15s.
func WithProcedureTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDryRun simulates a confirmed flow without touching Oracle.
func WithDryRun(enabled bool) ClientOption {
	return func(c *Client) {
		c.dryRun = enabled
	}
}

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(procs Procedures, opts ...ClientOption) *Client {
	c := &Client{
		procs:   procs,
		timeout: 15 * time.Second,
		logger:  slog.Default(),
		tracer:  otel.Tracer("vinculacion/corebanking"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckExistingCustomer reports whether the citizen is already an associate.
// A "no existe el asociado" error from the procedure is a successful negative.
func (c *Client) CheckExistingCustomer(ctx context.Context, documentNumber string, issueDate time.Time) (out CustomerCheck) {
	ctx, span := c.tracer.Start(ctx, "corebanking.CheckExistingCustomer")
	defer span.End()
	start := c.now()
	defer func() { out.Elapsed = c.now().Sub(start) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	first, found, err := c.procs.ConsultCustomer(ctx, documentNumber, issueDate.Format(issueDateLayout))
	if err != nil {
		if isNotAssociate(err) {
			c.logger.InfoContext(ctx, "associate not found, enrollment may continue", "procedure", procConsultActu)
			return out
		}
		out.Failure = procedureFailure(err)
		c.logger.ErrorContext(ctx, "consult procedure failed", "procedure", procConsultActu, "error", err)
		recordSpanFailure(span, out.Failure)
		return out
	}
	out.AlreadyCustomer = found && first != "Error"
	span.SetAttributes(attribute.Bool("corebanking.already_customer", out.AlreadyCustomer))
	return out
}

// VerifyFlowCompleted asks whether the assisted enrollment flow finished for
// the document. OK means found; PDTE means pending; anything else is a
// contract failure.
func (c *Client) VerifyFlowCompleted(ctx context.Context, documentNumber string) (out FlowCheck) {
	ctx, span := c.tracer.Start(ctx, "corebanking.VerifyFlowCompleted")
	defer span.End()
	start := c.now()
	defer func() { out.Elapsed = c.now().Sub(start) }()

	if c.dryRun {
		c.logger.WarnContext(ctx, "flow verification simulated", "procedure", procFlowComplete)
		out.Found = true
		out.Status = FlowOK
		out.ExternalCustomerID = "DRY-" + documentNumber
		out.DryRun = true
		out.Message = "Flujo confirmado en modo de prueba local."
		out.Raw = marshalRaw(flowRaw{Procedure: procFlowComplete, DocumentNumber: documentNumber, Status: FlowOK,
			ExternalCustomerID: out.ExternalCustomerID, Message: out.Message, DryRun: true})
		return out
	}

	procCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.procs.FlowStatus(procCtx, documentNumber)
	if err != nil {
		out.Failure = procedureFailure(err)
		out.Raw = marshalRaw(flowRaw{Procedure: procFlowComplete, DocumentNumber: documentNumber, Message: out.Failure.Message})
		c.logger.ErrorContext(ctx, "flow procedure failed", "procedure", procFlowComplete, "error", err)
		recordSpanFailure(span, out.Failure)
		return out
	}

	status := strings.ToUpper(strings.TrimSpace(raw))
	out.Status = status
	switch status {
	case FlowOK:
		out.Found = true
		out.Message = "Flujo confirmado en LINIX."
		out.ExternalCustomerID = c.lookupThirdParty(procCtx, documentNumber)
	case FlowPending:
		out.Message = "Flujo pendiente en LINIX o con novedad (PDTE)."
	default:
		out.Failure = providers.NewError(providers.ErrorContractMismatch, providers.Oracle,
			fmt.Sprintf("Respuesta inesperada de %s: '%s'", procFlowComplete, raw), nil)
		out.Raw = marshalRaw(flowRaw{Procedure: procFlowComplete, DocumentNumber: documentNumber,
			Status: status, StatusRaw: raw, Message: out.Failure.Message})
		recordSpanFailure(span, out.Failure)
		return out
	}
	out.Raw = marshalRaw(flowRaw{Procedure: procFlowComplete, DocumentNumber: documentNumber, Status: status,
		ExternalCustomerID: out.ExternalCustomerID, Message: out.Message})
	span.SetAttributes(attribute.String("corebanking.flow_status", status))
	return out
}

// lookupThirdParty is best-effort: a confirmed flow stays confirmed even
// when the id cannot be read.
func (c *Client) lookupThirdParty(ctx context.Context, documentNumber string) string {
	id, err := c.procs.ThirdPartyID(ctx, documentNumber)
	if err != nil {
		c.logger.WarnContext(ctx, "third party id lookup failed", "error", err)
		return ""
	}
	return id
}

// Ping runs a trivial query to prove connectivity.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.procs.Ping(ctx); err != nil {
		return procedureFailure(err)
	}
	return nil
}

func isNotAssociate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ORA-20050") || strings.Contains(msg, "No existe el asociado")
}

func procedureFailure(err error) *providers.Error {
	switch providers.ClassifyTransport(err) {
	case providers.ErrorTimeout:
		return providers.NewError(providers.ErrorTimeout, providers.Oracle, "Error de base de datos: tiempo de espera agotado", err)
	case providers.ErrorConnection:
		return providers.NewError(providers.ErrorConnection, providers.Oracle, "Error de base de datos: "+err.Error(), err)
	}
	if strings.Contains(err.Error(), "ORA-") || errors.Is(err, errNoConnection) {
		return providers.NewError(providers.ErrorRejected, providers.Oracle, "Error de base de datos: "+err.Error(), err)
	}
	return providers.NewError(providers.ErrorInternal, providers.Oracle, "Error inesperado: "+err.Error(), err)
}

func marshalRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func recordSpanFailure(span trace.Span, err *providers.Error) {
	span.SetAttributes(attribute.String("corebanking.failure_kind", string(err.Category)))
	span.SetStatus(codes.Error, err.Message)
}
