// Package biometrics is the client for the DECRIM identity validation vendor.
//
// Every operation returns a tagged result instead of an error: timeouts,
// connection failures and unexpected responses all become a Failure so the
// workflow can log the attempt and answer the citizen.
package biometrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vinculacion/internal/platform/config"
	"vinculacion/internal/providers"
)

const (
	msgTimeout    = "Timeout: El proveedor no respondio a tiempo"
	msgConnection = "No se pudo conectar con el proveedor de validacion"
)

// Client calls the vendor's registration and case-query endpoints.
type Client struct {
	registerURL string
	queryURL    string
	username    string
	password    string
	canal       string
	certificado string
	http        *http.Client
	logger      *slog.Logger
	tracer      trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New builds a client from configuration. The HTTP timeout defaults to 30s.
func New(cfg config.BiometricsConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		registerURL: cfg.RegisterURL,
		queryURL:    cfg.QueryURL,
		username:    cfg.Username,
		password:    cfg.Password,
		canal:       defaultString(cfg.Canal, "0"),
		certificado: defaultString(cfg.Certificado, "0"),
		http:        &http.Client{Timeout: timeout},
		logger:      slog.Default(),
		tracer:      otel.Tracer("vinculacion/biometrics"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterRequest identifies the citizen for a new vendor case.
type RegisterRequest struct {
	DocumentNumber string
	DocumentType   int
	FullName       string
}

type registerPayload struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Dni      string `json:"Dni"`
	TipoDni  string `json:"TipoDni"`
	Nombres  string `json:"Nombres"`
}

// RegisterCase creates a digital validation case and returns its code and URL.
func (c *Client) RegisterCase(ctx context.Context, req RegisterRequest) RegisterResult {
	ctx, span := c.tracer.Start(ctx, "biometrics.RegisterCase")
	defer span.End()

	payload := registerPayload{
		Username: c.username,
		Password: c.password,
		Dni:      req.DocumentNumber,
		TipoDni:  strconv.Itoa(req.DocumentType),
		Nombres:  req.FullName,
	}
	redacted := payload
	redacted.Password = redactedValue

	resp := c.post(ctx, c.registerURL, payload, redacted)
	result := RegisterResult{Exchange: resp.exchange}
	if resp.failure != nil {
		result.Failure = resp.failure
		recordSpanFailure(span, resp.failure)
		return result
	}

	if resp.status == http.StatusOK && resp.body.Status.Int() == http.StatusOK {
		var data struct {
			Codigo flexString `json:"Codigo"`
			URL    string     `json:"Url"`
		}
		if err := json.Unmarshal(resp.body.Data, &data); err != nil || data.Codigo == "" {
			result.Failure = &Failure{Kind: providers.ErrorBadData, Message: "Respuesta del proveedor sin codigo de caso"}
			recordSpanFailure(span, result.Failure)
			return result
		}
		result.Success = &RegisterSuccess{CaseID: string(data.Codigo), ValidationURL: data.URL}
		span.SetAttributes(attribute.String("biometrics.case_id", result.Success.CaseID))
		return result
	}

	result.Failure = &Failure{
		Kind:    providers.ErrorRejected,
		Message: defaultString(resp.body.Message, fmt.Sprintf("Error del proveedor: %d", resp.status)),
	}
	recordSpanFailure(span, result.Failure)
	return result
}

// QueryRequest selects a case either by vendor case id or by document number.
type QueryRequest struct {
	DocumentNumber string
	CaseID         string
	IncludeImages  bool
	// IncludeCertificate overrides the configured default when non-nil.
	IncludeCertificate *bool
}

type queryPayload struct {
	Username    string `json:"Username"`
	Password    string `json:"Password"`
	Idcaso      string `json:"Idcaso"`
	Dni         string `json:"Dni"`
	Canal       string `json:"Canal"`
	Imagenes    string `json:"Imagenes"`
	Certificado string `json:"Certificado"`
}

// QueryCase asks the vendor for the current verdict of a case.
func (c *Client) QueryCase(ctx context.Context, req QueryRequest) QueryResult {
	ctx, span := c.tracer.Start(ctx, "biometrics.QueryCase")
	defer span.End()

	payload := queryPayload{
		Username:    c.username,
		Password:    c.password,
		Idcaso:      "0",
		Dni:         defaultString(req.DocumentNumber, "0"),
		Canal:       c.canal,
		Imagenes:    flag(req.IncludeImages),
		Certificado: c.certificado,
	}
	if req.CaseID != "" {
		payload.Idcaso = req.CaseID
		payload.Dni = "0"
	}
	if req.IncludeCertificate != nil {
		payload.Certificado = flag(*req.IncludeCertificate)
	}
	redacted := payload
	redacted.Password = redactedValue

	resp := c.post(ctx, c.queryURL, payload, redacted)
	result := QueryResult{Exchange: resp.exchange}
	if resp.failure != nil {
		result.Failure = resp.failure
		recordSpanFailure(span, resp.failure)
		return result
	}

	bodyStatus := resp.body.Status.Int()
	switch {
	case resp.status == http.StatusOK && bodyStatus == http.StatusOK:
		var data struct {
			Estado        flexString `json:"Estado"`
			Idcaso        flexString `json:"Idcaso"`
			Justificacion string     `json:"Justificacion"`
		}
		if err := json.Unmarshal(resp.body.Data, &data); err != nil {
			result.Failure = &Failure{Kind: providers.ErrorBadData, Message: "Respuesta del proveedor con formato invalido"}
			recordSpanFailure(span, result.Failure)
			return result
		}
		result.Success = &QuerySuccess{
			StatusCode:    string(data.Estado),
			CaseID:        string(data.Idcaso),
			Justification: data.Justificacion,
		}
		span.SetAttributes(attribute.String("biometrics.status_code", result.Success.StatusCode))
		return result
	case resp.status == http.StatusNotFound || bodyStatus == http.StatusNotFound:
		result.Failure = &Failure{Kind: providers.ErrorRejected, Hint: HintNotFound,
			Message: defaultString(resp.body.Message, "Caso no encontrado")}
	case resp.status == http.StatusConflict || bodyStatus == http.StatusConflict:
		result.Failure = &Failure{Kind: providers.ErrorRejected, Hint: HintInProgress,
			Message: defaultString(resp.body.Message, "Caso aun no disponible")}
	case resp.status == http.StatusForbidden || bodyStatus == http.StatusForbidden:
		c.logger.WarnContext(ctx, "biometric case not authorized for this entity", "case_id", req.CaseID)
		result.Failure = &Failure{Kind: providers.ErrorAuthentication, Hint: HintNotAuthorized,
			Message: defaultString(resp.body.Message, "Caso no pertenece a la entidad")}
	default:
		result.Failure = &Failure{Kind: providers.ErrorRejected,
			Message: defaultString(resp.body.Message, fmt.Sprintf("Error del proveedor: %d", resp.status))}
	}
	recordSpanFailure(span, result.Failure)
	return result
}

const redactedValue = "***"

type envelope struct {
	Status  flexString      `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type rawResponse struct {
	status   int
	body     envelope
	exchange Exchange
	failure  *Failure
}

// post sends payload and decodes the vendor envelope. Transport problems and
// panics in decoding are folded into a Failure.
func (c *Client) post(ctx context.Context, url string, payload, logged any) (out rawResponse) {
	start := time.Now()
	out.exchange.Request, _ = json.Marshal(logged)
	defer func() {
		out.exchange.Elapsed = time.Since(start)
		if rec := recover(); rec != nil {
			c.logger.ErrorContext(ctx, "unexpected panic calling biometrics vendor", "panic", rec)
			out.failure = &Failure{Kind: providers.ErrorInternal, Message: fmt.Sprintf("Error inesperado: %v", rec)}
		}
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		out.failure = &Failure{Kind: providers.ErrorInternal, Message: "Error inesperado: " + err.Error()}
		return out
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		out.failure = &Failure{Kind: providers.ErrorInternal, Message: "Error inesperado: " + err.Error()}
		return out
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		out.failure = transportFailure(err)
		c.logger.WarnContext(ctx, "biometrics vendor call failed", "url", url, "error", err)
		return out
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		out.failure = transportFailure(err)
		return out
	}
	out.status = resp.StatusCode
	if len(bytes.TrimSpace(raw)) > 0 {
		if json.Valid(raw) {
			out.exchange.Response = raw
			_ = json.Unmarshal(raw, &out.body)
		} else {
			out.exchange.Response, _ = json.Marshal(map[string]string{"raw": truncate(string(raw), 2000)})
		}
	}
	return out
}

func transportFailure(err error) *Failure {
	switch providers.ClassifyTransport(err) {
	case providers.ErrorTimeout:
		return &Failure{Kind: providers.ErrorTimeout, Message: msgTimeout}
	case providers.ErrorConnection:
		return &Failure{Kind: providers.ErrorConnection, Message: msgConnection}
	default:
		return &Failure{Kind: providers.ErrorInternal, Message: "Error inesperado: " + err.Error()}
	}
}

func recordSpanFailure(span trace.Span, f *Failure) {
	span.SetAttributes(attribute.String("biometrics.failure_kind", string(f.Kind)))
	span.SetStatus(codes.Error, f.Message)
}

// flexString accepts JSON strings and numbers; the vendor sends both for codes.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

func (f flexString) Int() int {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0
	}
	return n
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
