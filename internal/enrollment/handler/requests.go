package handler

import (
	"strings"
	"time"

	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
	dErrors "vinculacion/pkg/domain-errors"
)

const (
	dateLayout       = "2006-01-02"
	maxIssueAge      = 100 * 365 * 24 * time.Hour
	minDocumentLen   = 6
	maxDocumentLen   = 20
	maxFullNameLen   = 200
	maxBranchNameLen = 100
)

// SubmitRequest is the HTTP request body for POST /preregistro/iniciar.
type SubmitRequest struct {
	DocumentNumber string `json:"numero_cedula"`
	FullName       string `json:"nombres_completos"`
	IssueDate      string `json:"fecha_expedicion"`
	DocumentType   *int   `json:"tipo_documento"`
	Branch         string `json:"agencia"`

	parsedIssueDate time.Time
	now             func() time.Time
}

func (r *SubmitRequest) Normalize() {
	r.DocumentNumber = strings.TrimSpace(r.DocumentNumber)
	r.FullName = strings.Join(strings.Fields(r.FullName), " ")
	r.IssueDate = strings.TrimSpace(r.IssueDate)
	r.Branch = strings.TrimSpace(r.Branch)
}

// Validate checks every field and reports all offending ones at once under
// "detalles".
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	now := time.Now()
	if r.now != nil {
		now = r.now()
	}

	problems := map[string]string{}
	switch {
	case r.DocumentNumber == "":
		problems["numero_cedula"] = "Este campo es requerido."
	case !digitsOnly(r.DocumentNumber):
		problems["numero_cedula"] = "La cédula solo puede contener dígitos"
	case len(r.DocumentNumber) < minDocumentLen:
		problems["numero_cedula"] = "La cédula debe tener al menos 6 dígitos"
	case len(r.DocumentNumber) > maxDocumentLen:
		problems["numero_cedula"] = "La cédula no puede tener más de 20 dígitos"
	}

	switch {
	case r.FullName == "":
		problems["nombres_completos"] = "Este campo es requerido."
	case len([]rune(r.FullName)) > maxFullNameLen:
		problems["nombres_completos"] = "El nombre no puede tener más de 200 caracteres"
	}

	if r.IssueDate == "" {
		problems["fecha_expedicion"] = "Este campo es requerido."
	} else if issued, err := time.Parse(dateLayout, r.IssueDate); err != nil {
		problems["fecha_expedicion"] = "Formato de fecha inválido. Use AAAA-MM-DD"
	} else if issued.After(now) {
		problems["fecha_expedicion"] = "La fecha de expedición no puede ser futura"
	} else if issued.Before(now.Add(-maxIssueAge)) {
		problems["fecha_expedicion"] = "La fecha de expedición parece incorrecta"
	} else {
		r.parsedIssueDate = issued
	}

	if r.DocumentType == nil {
		problems["tipo_documento"] = "El tipo de documento es obligatorio"
	} else if !models.DocumentType(*r.DocumentType).Valid() {
		problems["tipo_documento"] = "Tipo de documento no válido"
	}

	if len([]rune(r.Branch)) > maxBranchNameLen {
		problems["agencia"] = "La agencia no puede tener más de 100 caracteres"
	}

	if len(problems) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "Datos inválidos", map[string]any{
			"detalles": problems,
		})
	}
	return nil
}

// ParsedIssueDate returns the validated issue date.
func (r *SubmitRequest) ParsedIssueDate() time.Time {
	return r.parsedIssueDate
}

func digitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CallbackRequest is the verdict the biometrics vendor pushes. The vendor
// sends ids as strings or numbers.
type CallbackRequest struct {
	CaseID         corebanking.Text `json:"Idcaso"`
	DocumentNumber corebanking.Text `json:"Dni"`
	Status         corebanking.Text `json:"Estado"`
	Justification  corebanking.Text `json:"Justificacion"`
}

// TokenRequest carries the vendor's shared credentials.
type TokenRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (r *TokenRequest) Normalize() {
	r.User = strings.TrimSpace(r.User)
}

// BatchRequest is the optional body of POST /linix/verificar-pendientes.
type BatchRequest struct {
	Limit int     `json:"limit"`
	IDs   []int64 `json:"ids"`
}

func (r *BatchRequest) Normalize() {
	if r.Limit < 0 {
		r.Limit = 0
	}
}
