package biometrics

import (
	"encoding/json"
	"time"

	"vinculacion/internal/providers"
)

// StatusHint narrows a failed query to the cases the workflow treats specially.
type StatusHint string

const (
	HintNone          StatusHint = ""
	HintNotFound      StatusHint = "NO_ENCONTRADO"
	HintInProgress    StatusHint = "EN_PROCESO"
	HintNotAuthorized StatusHint = "NO_AUTORIZADO"
)

// Failure is the failed variant shared by all vendor operations.
type Failure struct {
	Kind    providers.ErrorCategory
	Hint    StatusHint
	Message string
}

// Exchange carries what was sent and received, for the integration log.
// Credentials are redacted from Request.
type Exchange struct {
	Request  json.RawMessage
	Response json.RawMessage
	Elapsed  time.Duration
}

// RegisterSuccess is the vendor case created for a citizen.
type RegisterSuccess struct {
	CaseID        string
	ValidationURL string
}

// RegisterResult holds exactly one of Success or Failure.
type RegisterResult struct {
	Success *RegisterSuccess
	Failure *Failure
	Exchange
}

func (r RegisterResult) OK() bool { return r.Success != nil }

// QuerySuccess is a case verdict as reported by the vendor, before normalization.
type QuerySuccess struct {
	StatusCode    string
	CaseID        string
	Justification string
}

// QueryResult holds exactly one of Success or Failure.
type QueryResult struct {
	Success *QuerySuccess
	Failure *Failure
	Exchange
}

func (r QueryResult) OK() bool { return r.Success != nil }

// ErrorMessage returns the failure message or "" on success.
func (r QueryResult) ErrorMessage() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Message
}

// ErrorMessage returns the failure message or "" on success.
func (r RegisterResult) ErrorMessage() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Message
}
