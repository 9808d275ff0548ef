package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/enrollment/service"
)

// RecordResponse is the full enrollment record as the frontend reads it.
type RecordResponse struct {
	ID                 int64                  `json:"id"`
	DocumentNumber     string                 `json:"numero_cedula"`
	FullName           string                 `json:"nombres_completos"`
	DocumentType       int                    `json:"tipo_documento"`
	DocumentTypeCode   string                 `json:"tipo_documento_display"`
	IssueDate          string                 `json:"fecha_expedicion"`
	Branch             string                 `json:"agencia"`
	BiometricStatus    models.BiometricStatus `json:"estado_biometria"`
	Justification      string                 `json:"justificacion_biometria"`
	BiometricDecidedAt *time.Time             `json:"fecha_validacion_biometria"`
	ValidationURL      string                 `json:"url_biometria"`
	FailedAttempts     int                    `json:"intentos_biometria"`
	Blocked            bool                   `json:"vetado"`
	WorkflowStatus     models.WorkflowStatus  `json:"estado_vinculacion"`
	ExternalCustomerID string                 `json:"id_tercero_linix"`
	FlowCreated        bool                   `json:"flujo_linix_creado"`
	CompletedAt        *time.Time             `json:"fecha_completado"`
	LastError          string                 `json:"mensaje_error"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	CanContinue        bool                   `json:"puede_continuar_a_linix"`
	BiometricLink      string                 `json:"link_biometria"`
	CoreBankingLink    string                 `json:"link_linix"`
	Logs               []LogResponse          `json:"logs,omitempty"`
}

type LogResponse struct {
	ID         uuid.UUID       `json:"id"`
	Action     models.Action   `json:"accion"`
	Success    bool            `json:"exitoso"`
	Request    json.RawMessage `json:"request_data,omitempty"`
	Response   json.RawMessage `json:"response_data,omitempty"`
	Error      string          `json:"error_message,omitempty"`
	ResponseMS int64           `json:"tiempo_respuesta_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

func FromRecord(r *models.Record, coreBankingLink string, logs []*models.LogEntry) *RecordResponse {
	resp := &RecordResponse{
		ID:                 r.ID,
		DocumentNumber:     r.DocumentNumber,
		FullName:           r.FullName,
		DocumentType:       int(r.DocumentType),
		DocumentTypeCode:   r.DocumentType.Code(),
		Branch:             r.Branch,
		BiometricStatus:    r.BiometricStatus,
		Justification:      r.Justification,
		BiometricDecidedAt: r.BiometricDecidedAt,
		ValidationURL:      r.ValidationURL,
		FailedAttempts:     r.FailedAttempts,
		Blocked:            r.Blocked,
		WorkflowStatus:     r.WorkflowStatus,
		ExternalCustomerID: r.ExternalCustomerID,
		FlowCreated:        r.FlowCreated,
		CompletedAt:        r.CompletedAt,
		LastError:          r.LastError,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		CanContinue:        r.CanContinue(),
		BiometricLink:      r.ValidationURL,
		CoreBankingLink:    coreBankingLink,
	}
	if !r.IssueDate.IsZero() {
		resp.IssueDate = r.IssueDate.Format(dateLayout)
	}
	for _, e := range logs {
		resp.Logs = append(resp.Logs, LogResponse{
			ID:         e.ID,
			Action:     e.Action,
			Success:    e.Success,
			Request:    e.RequestPayload,
			Response:   e.ResponsePayload,
			Error:      e.ErrorMessage,
			ResponseMS: e.LatencyMS,
			CreatedAt:  e.CreatedAt,
		})
	}
	return resp
}

type BiometricStatusResponse struct {
	Status        models.BiometricStatus `json:"estado_biometria"`
	CanContinue   bool                   `json:"puede_continuar"`
	Justification string                 `json:"justificacion"`
	Message       string                 `json:"mensaje"`
	Blocked       bool                   `json:"vetado,omitempty"`
}

func FromBiometricStatus(r *service.BiometricStatusResult) *BiometricStatusResponse {
	return &BiometricStatusResponse{
		Status:        r.Status,
		CanContinue:   r.CanContinue,
		Justification: r.Justification,
		Message:       r.Message,
		Blocked:       r.Blocked,
	}
}

type LinkResponse struct {
	Link    string `json:"link_linix"`
	Message string `json:"mensaje"`
}

type VerificationResponse struct {
	Completed          bool            `json:"completado"`
	ExternalCustomerID *string         `json:"id_tercero"`
	Message            string          `json:"mensaje"`
	Suggestion         string          `json:"sugerencia,omitempty"`
	CoreBankingData    json.RawMessage `json:"datos_oracle,omitempty"`
}

func FromVerification(r *service.VerificationResult) *VerificationResponse {
	resp := &VerificationResponse{
		Completed:       r.Completed,
		Message:         r.Message,
		Suggestion:      r.Suggestion,
		CoreBankingData: r.CoreBankingData,
	}
	if r.ExternalCustomerID != "" {
		id := r.ExternalCustomerID
		resp.ExternalCustomerID = &id
	}
	return resp
}

type BatchResponse struct {
	Processed int                       `json:"processed"`
	Completed []service.BatchCompletion `json:"completed"`
	Errors    []service.BatchFailure    `json:"errors"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// VendorStatus is the {status, message} body the biometrics vendor expects
// from the webhook.
type VendorStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AgileResponse struct {
	OK       bool            `json:"ok"`
	Response json.RawMessage `json:"respuesta_linix"`
	Message  string          `json:"mensaje"`
	DryRun   bool            `json:"dry_run,omitempty"`
}
