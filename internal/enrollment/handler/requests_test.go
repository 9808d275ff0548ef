package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "vinculacion/pkg/domain-errors"
)

// SubmitRequestSuite tests SubmitRequest normalization and validation.
type SubmitRequestSuite struct {
	suite.Suite
	now time.Time
}

func TestSubmitRequestSuite(t *testing.T) {
	suite.Run(t, new(SubmitRequestSuite))
}

func (s *SubmitRequestSuite) SetupTest() {
	s.now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
}

func (s *SubmitRequestSuite) validRequest() *SubmitRequest {
	docType := 1
	return &SubmitRequest{
		DocumentNumber: "123456789",
		FullName:       "Ana Ruiz",
		IssueDate:      "2015-01-01",
		DocumentType:   &docType,
		Branch:         "PRINCIPAL",
		now:            func() time.Time { return s.now },
	}
}

func (s *SubmitRequestSuite) fieldErrors(err error) map[string]string {
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, de.Code)
	details, ok := de.Details["detalles"].(map[string]string)
	s.Require().True(ok)
	return details
}

func (s *SubmitRequestSuite) TestNormalize() {
	req := s.validRequest()
	req.DocumentNumber = " 123456789 "
	req.FullName = "  Ana   Maria  Ruiz "
	req.Normalize()

	s.Equal("123456789", req.DocumentNumber)
	s.Equal("Ana Maria Ruiz", req.FullName)
}

func (s *SubmitRequestSuite) TestValidation() {
	s.Run("valid request passes and parses the date", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())
		s.Equal(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), req.ParsedIssueDate())
	})

	s.Run("document number rules", func() {
		cases := map[string]string{
			"":                      "Este campo es requerido.",
			"12345":                 "La cédula debe tener al menos 6 dígitos",
			"12345a":                "La cédula solo puede contener dígitos",
			"123456789012345678901": "La cédula no puede tener más de 20 dígitos",
		}
		for doc, want := range cases {
			req := s.validRequest()
			req.DocumentNumber = doc
			s.Equal(want, s.fieldErrors(req.Validate())["numero_cedula"], doc)
		}
	})

	s.Run("issue date in the future", func() {
		req := s.validRequest()
		req.IssueDate = "2026-10-18"
		s.Equal("La fecha de expedición no puede ser futura", s.fieldErrors(req.Validate())["fecha_expedicion"])
	})

	s.Run("issue date older than a century", func() {
		req := s.validRequest()
		req.IssueDate = "1920-01-01"
		s.Equal("La fecha de expedición parece incorrecta", s.fieldErrors(req.Validate())["fecha_expedicion"])
	})

	s.Run("issue date format", func() {
		req := s.validRequest()
		req.IssueDate = "01/01/2015"
		s.Contains(s.fieldErrors(req.Validate()), "fecha_expedicion")
	})

	s.Run("document type is required and in the catalog", func() {
		req := s.validRequest()
		req.DocumentType = nil
		s.Contains(s.fieldErrors(req.Validate()), "tipo_documento")

		bad := 10
		req.DocumentType = &bad
		s.Equal("Tipo de documento no válido", s.fieldErrors(req.Validate())["tipo_documento"])
	})

	s.Run("every offending field is reported", func() {
		req := &SubmitRequest{now: func() time.Time { return s.now }}
		fields := s.fieldErrors(req.Validate())
		s.Len(fields, 4)
	})
}

func TestBatchRequestNormalize(t *testing.T) {
	req := &BatchRequest{Limit: -5}
	req.Normalize()
	if req.Limit != 0 {
		t.Fatalf("expected negative limit to fall back to the default, got %d", req.Limit)
	}
}
