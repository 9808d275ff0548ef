package service

import (
	"encoding/json"
	"time"

	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
)

type SubmitCommand struct {
	DocumentNumber string
	FullName       string
	DocumentType   models.DocumentType
	IssueDate      time.Time
	Branch         string
	ClientIP       string
	UserAgent      string
}

// SubmitResult carries the record after submission. Created is false when an
// in-flight validation was reused.
type SubmitResult struct {
	Record          *models.Record
	Created         bool
	CoreBankingLink string
}

type DetailResult struct {
	Record          *models.Record
	Logs            []*models.LogEntry
	CoreBankingLink string
}

type BiometricStatusResult struct {
	Status        models.BiometricStatus
	CanContinue   bool
	Blocked       bool
	Justification string
	Message       string
}

type LinkResult struct {
	Link    string
	Message string
}

type VerificationResult struct {
	Completed          bool
	ExternalCustomerID string
	Message            string
	Suggestion         string
	CoreBankingData    json.RawMessage
}

type BatchCommand struct {
	Limit int
	IDs   []int64
}

type BatchCompletion struct {
	ID                 int64      `json:"id"`
	DocumentNumber     string     `json:"numero_cedula"`
	FullName           string     `json:"nombres_completos"`
	Branch             string     `json:"agencia"`
	ExternalCustomerID string     `json:"id_tercero_linix"`
	CompletedAt        *time.Time `json:"fecha_completado"`
}

type BatchFailure struct {
	ID             int64  `json:"id"`
	DocumentNumber string `json:"numero_cedula"`
	Error          string `json:"error"`
}

type BatchResult struct {
	Processed int
	Completed []BatchCompletion
	Errors    []BatchFailure
}

// CallbackCommand is a verdict pushed by the biometrics vendor. At least one
// of CaseID and DocumentNumber identifies the record.
type CallbackCommand struct {
	CaseID         string
	DocumentNumber string
	Status         string
	Justification  string
}

type CallbackResult struct {
	RecordID int64
	Status   models.BiometricStatus
	Message  string
}

type AgileCommand struct {
	Applicant corebanking.Applicant
}

type AgileResult struct {
	StatusCode int
	Response   json.RawMessage
	DryRun     bool
	Message    string
}

type ConnectivityResult struct {
	Message string
}
