package corebanking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/platform/config"
	dErrors "vinculacion/pkg/domain-errors"
)

func completeApplicant() Applicant {
	return Applicant{
		PreRegistrationID:           7,
		TipoDocumento:               "1",
		Identificacion:              "1032456789",
		PrimerNombre:                "maría",
		SegundoNombre:               "josé",
		PrimerApellido:              "núñez",
		SegundoApellido:             "",
		FechaNacimiento:             "1990-05-17",
		Genero:                      "F",
		EstadoCivil:                 "S",
		Email:                       " Maria@Example.COM ",
		Celular:                     "3001234567",
		Direccion:                   "calle 10 # 5-20",
		Barrio:                      "centro",
		Ciudad:                      "50001",
		Estrato:                     "3",
		TipoVivienda:                "P",
		NivelEstudio:                "U",
		ActividadEconomica:          "EM",
		Ocupacion:                   "1",
		ActividadCIIU:               "0010",
		ActividadCIIUSecundaria:     "000",
		PoblacionVulnerable:         "N",
		PublicamenteExpuesto:        "N",
		PersonasCargo:               "0",
		Salario:                     "1.500.000",
		OperacionesMonedaExtranjera: "N",
		DeclaraRenta:                "N",
		AdministraRecursosPublicos:  "N",
		VinculadoRecursosPublicos:   "N",
		Sucursal:                    "PRINCIPAL",
		FechaAfiliacion:             "2026-10-17",
	}
}

func testBuilder() *PayloadBuilder {
	return NewPayloadBuilder(config.AgileConfig{
		CountryCode:       "169",
		DepartmentCode:    "11",
		DefaultBranchCode: "102",
		CatalogDefaults:   map[string]string{"A_CARGO": "9"},
	}, NewBranchCatalog(map[string]string{"PRINCIPAL": "102", "ACACIAS": "110"}, "102"))
}

func TestBuildEnrollmentPayload(t *testing.T) {
	t.Run("complete applicant maps every section", func(t *testing.T) {
		p, err := testBuilder().Build(completeApplicant(), nil)
		require.NoError(t, err)

		assert.Equal(t, "Y", p.Activo)
		assert.Equal(t, "1032456789", p.CodigoCliente)
		assert.Equal(t, "MARÍA", p.PrimerNombre)
		assert.Equal(t, "JOSÉ", p.SegundoNombre)
		assert.Equal(t, "NÚÑEZ MARÍA JOSÉ", p.Nombre, "surnames first, empty parts skipped")
		assert.Equal(t, "maria@example.com", p.Email)
		assert.Equal(t, "102", p.Sucursal)
		assert.Equal(t, "1990-05-17", p.FechaNacimiento)
		for _, d := range []string{p.Antiguedad, p.PrimeraAfilia, p.UltimaAfilia, p.Aprobacion} {
			assert.Equal(t, "2026-10-17", d)
		}
		assert.Equal(t, "9", p.Cargo, "catalog defaults override")
		assert.Equal(t, "1", p.Seccion)
		assert.Equal(t, "CALLE 10 # 5-20", p.Contacto.Direccion)
		assert.Equal(t, "50", p.Contacto.Departamento)
		assert.Equal(t, "169", p.Contacto.Pais)
		assert.Equal(t, 3, p.Socioeconomica.Estrato)
		assert.Equal(t, "1500000", p.Socioeconomica.Sueldo)
		assert.Equal(t, "01", p.Laboral.TipoContrato)

		raw, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"R_Activos":[]`)
		assert.Contains(t, string(raw), `"A_ESTRATO":3`)
	})

	t.Run("short city code falls back to default department", func(t *testing.T) {
		a := completeApplicant()
		a.Ciudad = "5"
		p, err := testBuilder().Build(a, nil)
		require.NoError(t, err)
		assert.Equal(t, "11", p.Contacto.Departamento)
	})

	t.Run("single missing field is named", func(t *testing.T) {
		a := completeApplicant()
		a.Barrio = "  "
		_, err := testBuilder().Build(a, nil)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"barrio"}, de.Details["campos_faltantes"])
		assert.Equal(t, "Campos obligatorios faltantes: barrio", de.Message)
	})

	t.Run("missing fields keep form order", func(t *testing.T) {
		a := completeApplicant()
		a.FechaAfiliacion = ""
		a.Email = ""
		a.Estrato = ""
		_, err := testBuilder().Build(a, nil)

		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"email", "estrato", "fechaAfiliacion"}, de.Details["campos_faltantes"])
	})

	t.Run("optional fields may be empty", func(t *testing.T) {
		a := completeApplicant()
		a.SegundoNombre, a.SegundoApellido, a.Telefono = "", "", ""
		_, err := testBuilder().Build(a, nil)
		assert.NoError(t, err)
	})

	t.Run("record fills document and branch", func(t *testing.T) {
		rec, err := models.NewRecord("1032456789", "Maria Nunez", models.DocumentCE, time.Now(), "ACACIAS", time.Now())
		require.NoError(t, err)
		a := completeApplicant()
		a.Identificacion, a.TipoDocumento, a.Sucursal = "", "", ""

		p, err := testBuilder().Build(a, rec)
		require.NoError(t, err)
		assert.Equal(t, "1032456789", p.CodigoCliente)
		assert.Equal(t, "4", p.TipoDoc)
		assert.Equal(t, "110", p.Sucursal)
	})

	t.Run("document must match the record", func(t *testing.T) {
		rec, err := models.NewRecord("999999", "Otro", models.DocumentCC, time.Now(), "", time.Now())
		require.NoError(t, err)
		_, err = testBuilder().Build(completeApplicant(), rec)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("invalid formats are reported", func(t *testing.T) {
		a := completeApplicant()
		a.Estrato = "tres"
		a.FechaNacimiento = "17 de mayo"
		_, err := testBuilder().Build(a, nil)

		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"fechaNacimiento", "estrato"}, de.Details["campos_invalidos"])
	})
}

func TestApplicantDecodesLooseTypes(t *testing.T) {
	var a Applicant
	err := json.Unmarshal([]byte(`{"preregistroId":7,"estrato":3,"personasCargo":0,"salario":1500000,"publicamenteExpuesto":false}`), &a)
	require.NoError(t, err)

	assert.Equal(t, int64(7), a.PreRegistrationID)
	assert.Equal(t, "3", a.Estrato.String())
	assert.Equal(t, "0", a.PersonasCargo.String())
	assert.Equal(t, "1500000", a.Salario.String())
	assert.Equal(t, "N", a.PublicamenteExpuesto.String())
}

func TestPlainDecimal(t *testing.T) {
	cases := map[string]string{
		"1500000":        "1500000",
		"1.500.000":      "1500000",
		"$ 1.500.000,50": "1500000.50",
		"1,500,000.50":   "1500000.50",
		"2500.5":         "2500.5",
		"1,000":          "1000",
		"1200,75":        "1200.75",
	}
	for in, want := range cases {
		got, err := PlainDecimal(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "-100", "1e6"} {
		_, err := PlainDecimal(bad)
		assert.Error(t, err, bad)
	}
}
