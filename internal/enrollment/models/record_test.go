package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vinculacion/pkg/domain-errors"
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("starts pending", func(t *testing.T) {
		r, err := NewRecord(" 123456789 ", "Ana Ruiz", DocumentCC, now.AddDate(-10, 0, 0), "PRINCIPAL", now)
		require.NoError(t, err)
		assert.Equal(t, "123456789", r.DocumentNumber)
		assert.Equal(t, BiometricPending, r.BiometricStatus)
		assert.Equal(t, WorkflowStarted, r.WorkflowStatus)
	})

	t.Run("rejects unknown document type", func(t *testing.T) {
		_, err := NewRecord("123456789", "Ana Ruiz", DocumentType(42), now, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestWorkflowTransitions(t *testing.T) {
	tests := []struct {
		from, to WorkflowStatus
		allowed  bool
	}{
		{WorkflowStarted, WorkflowBiometryOK, true},
		{WorkflowBiometryOK, WorkflowInCoreBanking, true},
		{WorkflowBiometryOK, WorkflowCompleted, true},
		{WorkflowInCoreBanking, WorkflowCompleted, true},
		{WorkflowStarted, WorkflowError, true},
		{WorkflowInCoreBanking, WorkflowError, true},
		{WorkflowError, WorkflowStarted, true},
		{WorkflowInCoreBanking, WorkflowBiometryOK, false},
		{WorkflowCompleted, WorkflowError, false},
		{WorkflowCompleted, WorkflowStarted, false},
		{WorkflowError, WorkflowCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestHasActiveValidation(t *testing.T) {
	r := &Record{ValidationURL: "https://vendor/case/1", BiometricStatus: BiometricInProgress, WorkflowStatus: WorkflowStarted}
	assert.True(t, r.HasActiveValidation())

	r.BiometricStatus = BiometricRejected
	assert.False(t, r.HasActiveValidation())

	r.BiometricStatus = BiometricApproved
	r.ValidationURL = ""
	assert.False(t, r.HasActiveValidation())
}

func TestDocumentTypeCatalog(t *testing.T) {
	for d := DocumentCC; d <= DocumentVISA; d++ {
		assert.True(t, d.Valid(), "type %d", d)
	}
	assert.False(t, DocumentType(0).Valid())
	assert.False(t, DocumentType(10).Valid())
	assert.Equal(t, "PAS", DocumentPAS.Code())
}
