package biometrics

import (
	"context"
	"log/slog"
	"strings"
)

// Verdict is the normalized vendor decision.
type Verdict string

const (
	VerdictApproved   Verdict = "APROBADO"
	VerdictRejected   Verdict = "RECHAZADO"
	VerdictInProgress Verdict = "EN_PROCESO"
)

type verdictEntry struct {
	verdict     Verdict
	description string
}

var statusTable = map[string]verdictEntry{
	"5": {VerdictApproved, "Validación biométrica exitosa"},
	"3": {VerdictRejected, "Devuelto"},
	"2": {VerdictRejected, "Validación rechazada"},
	"1": {VerdictApproved, "Validado"},
}

// NormalizeStatus maps a vendor status code to a verdict and description.
// Unknown codes map to in-progress; the logger, when non-nil, receives a warning.
func NormalizeStatus(ctx context.Context, logger *slog.Logger, code string) (Verdict, string) {
	if e, ok := statusTable[strings.TrimSpace(code)]; ok {
		return e.verdict, e.description
	}
	if logger != nil {
		logger.WarnContext(ctx, "unknown biometric status code", "code", code)
	}
	return VerdictInProgress, "Estado desconocido"
}
