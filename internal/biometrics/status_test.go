package biometrics

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		code    string
		verdict Verdict
		desc    string
	}{
		{"5", VerdictApproved, "Validación biométrica exitosa"},
		{"1", VerdictApproved, "Validado"},
		{"2", VerdictRejected, "Validación rechazada"},
		{"3", VerdictRejected, "Devuelto"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			v, d := NormalizeStatus(ctx, nil, tt.code)
			assert.Equal(t, tt.verdict, v)
			assert.Equal(t, tt.desc, d)

			// same input, same output
			v2, d2 := NormalizeStatus(ctx, nil, tt.code)
			assert.Equal(t, v, v2)
			assert.Equal(t, d, d2)
		})
	}
}

func TestNormalizeStatusUnknownWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	v, d := NormalizeStatus(context.Background(), logger, "9")

	assert.Equal(t, VerdictInProgress, v)
	assert.Equal(t, "Estado desconocido", d)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "code=9")
}
