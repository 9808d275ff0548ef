package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action identifies which external system a log entry refers to.
type Action string

const (
	ActionBiometricQuery          Action = "CONSULTA_BIOMETRIA"
	ActionBiometricRegistration   Action = "REGISTRO_DECRIM"
	ActionCoreBankingVerification Action = "VERIFICACION_ORACLE"
	ActionNotificationWebhook     Action = "WEBHOOK_N8N"
	ActionAgileEnrollment         Action = "VINCULACION_AGIL"
)

// LogEntry is an immutable record of one external call attempt.
type LogEntry struct {
	ID              uuid.UUID
	RecordID        int64
	Action          Action
	Success         bool
	RequestPayload  json.RawMessage
	ResponsePayload json.RawMessage
	ErrorMessage    string
	LatencyMS       int64
	CreatedAt       time.Time
}

// NewLogEntry stamps an id and creation time.
func NewLogEntry(recordID int64, action Action, success bool, req, resp json.RawMessage, errMsg string, latency time.Duration, now time.Time) *LogEntry {
	return &LogEntry{
		ID:              uuid.New(),
		RecordID:        recordID,
		Action:          action,
		Success:         success,
		RequestPayload:  req,
		ResponsePayload: resp,
		ErrorMessage:    errMsg,
		LatencyMS:       latency.Milliseconds(),
		CreatedAt:       now,
	}
}
