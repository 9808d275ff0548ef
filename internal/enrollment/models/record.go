package models

import (
	"encoding/json"
	"strings"
	"time"

	dErrors "vinculacion/pkg/domain-errors"
)

// BiometricStatus is the vendor-reported identity verification state.
type BiometricStatus string

const (
	BiometricPending    BiometricStatus = "PENDIENTE"
	BiometricInProgress BiometricStatus = "EN_PROCESO"
	BiometricApproved   BiometricStatus = "APROBADO"
	BiometricRejected   BiometricStatus = "RECHAZADO"
)

// IsTerminal reports whether the vendor has issued a final verdict.
func (s BiometricStatus) IsTerminal() bool {
	return s == BiometricApproved || s == BiometricRejected
}

// WorkflowStatus is the overall enrollment state.
type WorkflowStatus string

const (
	WorkflowStarted       WorkflowStatus = "INICIADO"
	WorkflowBiometryOK    WorkflowStatus = "BIOMETRIA_OK"
	WorkflowInCoreBanking WorkflowStatus = "EN_LINIX"
	WorkflowCompleted     WorkflowStatus = "COMPLETADO"
	WorkflowError         WorkflowStatus = "ERROR"
)

var workflowRank = map[WorkflowStatus]int{
	WorkflowStarted:       0,
	WorkflowBiometryOK:    1,
	WorkflowInCoreBanking: 2,
	WorkflowCompleted:     3,
}

// CanTransitionTo enforces STARTED -> BIOMETRY_OK -> IN_CORE_BANKING -> COMPLETED,
// with ERROR reachable from any non-terminal state. Staying in place is allowed.
func (s WorkflowStatus) CanTransitionTo(next WorkflowStatus) bool {
	if s == next {
		return true
	}
	if s == WorkflowCompleted {
		return false
	}
	if next == WorkflowError {
		return true
	}
	if s == WorkflowError {
		// re-entry after a failed attempt restarts the flow
		return next == WorkflowStarted
	}
	return workflowRank[next] > workflowRank[s]
}

// Record is one citizen's enrollment attempt, unique per document number.
type Record struct {
	ID             int64
	DocumentNumber string
	FullName       string
	DocumentType   DocumentType
	IssueDate      time.Time
	Branch         string

	ProviderCaseID     string
	ValidationURL      string
	BiometricStatus    BiometricStatus
	Justification      string
	BiometricDecidedAt *time.Time
	FailedAttempts     int
	Blocked            bool

	RedirectedAt       *time.Time
	ExternalCustomerID string
	FlowCreated        bool
	CoreBankingPayload json.RawMessage
	WorkflowStatus     WorkflowStatus
	CompletedAt        *time.Time
	LastError          string

	ClientIP  string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord validates identity fields and returns a record in STARTED/PENDING.
func NewRecord(doc, fullName string, docType DocumentType, issueDate time.Time, branch string, now time.Time) (*Record, error) {
	doc = strings.TrimSpace(doc)
	fullName = strings.TrimSpace(fullName)
	if doc == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document number is required")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name is required")
	}
	if !docType.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document type is not in the catalog")
	}
	return &Record{
		DocumentNumber:  doc,
		FullName:        fullName,
		DocumentType:    docType,
		IssueDate:       issueDate,
		Branch:          strings.TrimSpace(branch),
		BiometricStatus: BiometricPending,
		WorkflowStatus:  WorkflowStarted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// TransitionTo moves the workflow, rejecting backwards or post-completion moves.
func (r *Record) TransitionTo(next WorkflowStatus) error {
	if !r.WorkflowStatus.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot move workflow from "+string(r.WorkflowStatus)+" to "+string(next))
	}
	r.WorkflowStatus = next
	return nil
}

// HasActiveValidation reports whether a re-submission can reuse the current vendor case.
func (r *Record) HasActiveValidation() bool {
	if r.ValidationURL == "" {
		return false
	}
	switch r.BiometricStatus {
	case BiometricPending, BiometricInProgress, BiometricApproved:
		return r.WorkflowStatus != WorkflowError
	default:
		return false
	}
}

// ResetForRetry prepares an existing record for a fresh biometric attempt.
func (r *Record) ResetForRetry(fullName string, docType DocumentType, issueDate time.Time, branch string) {
	r.FullName = strings.TrimSpace(fullName)
	r.DocumentType = docType
	r.IssueDate = issueDate
	r.Branch = strings.TrimSpace(branch)
	r.ProviderCaseID = ""
	r.ValidationURL = ""
	r.BiometricStatus = BiometricPending
	r.Justification = ""
	r.BiometricDecidedAt = nil
	r.WorkflowStatus = WorkflowStarted
	r.LastError = ""
}

// CanContinue reports whether the citizen may proceed to the core-banking form.
func (r *Record) CanContinue() bool {
	return r.BiometricStatus == BiometricApproved
}
