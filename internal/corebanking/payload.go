package corebanking

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/platform/config"
	dErrors "vinculacion/pkg/domain-errors"
)

// Text is a form value that may arrive as a JSON string, number or boolean.
// Booleans become "S" or "N".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case bytes.Equal(b, []byte("true")):
		*t = "S"
	case bytes.Equal(b, []byte("false")):
		*t = "N"
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Applicant is the reduced profile the enrollment form sends.
type Applicant struct {
	PreRegistrationID           int64 `json:"preregistroId"`
	TipoDocumento               Text  `json:"tipoDocumento"`
	Identificacion              Text  `json:"identificacion"`
	PrimerNombre                Text  `json:"primerNombre"`
	SegundoNombre               Text  `json:"segundoNombre"`
	PrimerApellido              Text  `json:"primerApellido"`
	SegundoApellido             Text  `json:"segundoApellido"`
	FechaNacimiento             Text  `json:"fechaNacimiento"`
	Genero                      Text  `json:"genero"`
	EstadoCivil                 Text  `json:"estadoCivil"`
	Email                       Text  `json:"email"`
	Celular                     Text  `json:"celular"`
	Telefono                    Text  `json:"telefono"`
	Direccion                   Text  `json:"direccion"`
	Barrio                      Text  `json:"barrio"`
	Ciudad                      Text  `json:"ciudad"`
	Estrato                     Text  `json:"estrato"`
	TipoVivienda                Text  `json:"tipoVivienda"`
	NivelEstudio                Text  `json:"nivelEstudio"`
	ActividadEconomica          Text  `json:"actividadEconomica"`
	Ocupacion                   Text  `json:"ocupacion"`
	ActividadCIIU               Text  `json:"actividadCIIU"`
	ActividadCIIUSecundaria     Text  `json:"actividadCIIUSecundaria"`
	PoblacionVulnerable         Text  `json:"poblacionVulnerable"`
	PublicamenteExpuesto        Text  `json:"publicamenteExpuesto"`
	PersonasCargo               Text  `json:"personasCargo"`
	Salario                     Text  `json:"salario"`
	OperacionesMonedaExtranjera Text  `json:"operacionesMonedaExtranjera"`
	DeclaraRenta                Text  `json:"declaraRenta"`
	AdministraRecursosPublicos  Text  `json:"administraRecursosPublicos"`
	VinculadoRecursosPublicos   Text  `json:"vinculadoRecursosPublicos"`
	Sucursal                    Text  `json:"sucursal"`
	FechaAfiliacion             Text  `json:"fechaAfiliacion"`
}

// Payload is the full LINIX enrollment frame.
type Payload struct {
	Activo          string `json:"A_ACTIVO"`
	Asocon          string `json:"A_ASOCON"`
	Autoretenedor   string `json:"A_AUTORETENEDOR"`
	Empresa         string `json:"A_EMPRESA"`
	EstadoCliente   string `json:"A_ESTADO_CLIENTE"`
	Funcionalidad   string `json:"A_FUNCIONALIDAD"`
	Naturaleza      string `json:"A_NATURALEZA"`
	Nomina          string `json:"A_NOMINA"`
	TipoAsociado    string `json:"A_TIPASO"`
	TipoCon         string `json:"A_TIPO_CON"`
	TipoCuenta      string `json:"A_TIPO_CUENTA"`
	TipoDoc         string `json:"A_TIPO_DOC"`
	CodigoCliente   string `json:"A_CODIGO_CLIENTE"`
	FechaNacimiento string `json:"F_NACIMIENTO"`
	PrimerNombre    string `json:"A_PRIMER_NOMBRE"`
	SegundoNombre   string `json:"A_SEGUNDO_NOMBRE"`
	PrimerApellido  string `json:"A_PRIMER_APELLIDO"`
	SegundoApellido string `json:"A_SEGUNDO_APELLIDO"`
	Nombre          string `json:"A_NOMBRE"`
	Genero          string `json:"A_GENERO"`
	EstadoCivil     string `json:"A_ESTADO_CIVIL"`
	Email           string `json:"A_EMAIL"`
	NumCelular      string `json:"A_NUM_CELULAR"`
	Telefono        string `json:"A_TELEFONO"`
	Sucursal        string `json:"A_SUCURSAL"`
	Antiguedad      string `json:"F_ANTIGUEDAD"`
	PrimeraAfilia   string `json:"F_PRIMERA_AFILIA"`
	UltimaAfilia    string `json:"F_ULTIMA_AFILIA"`
	Aprobacion      string `json:"F_APROBACION"`
	UbicacionUno    string `json:"A_UBICACION_UNO"`
	UbicacionDos    string `json:"A_UBICACION_DOS"`
	Seccion         string `json:"A_SECCION"`
	Cencos          string `json:"A_CENCOS"`
	Cargo           string `json:"A_CARGO"`
	Dependencia     string `json:"A_DEPENDENCIA"`

	Contacto       Contacto          `json:"R_Contacto"`
	Estatutarias   Estatutarias      `json:"R_Estatutarias"`
	Financiera     Financiera        `json:"R_Financiera"`
	Socioeconomica Socioeconomica    `json:"R_Socioeconomica"`
	Laboral        Laboral           `json:"R_Laboral"`
	Activos        []json.RawMessage `json:"R_Activos"`
	Pasivos        []json.RawMessage `json:"R_Pasivos"`
}

type Contacto struct {
	TipoDireccion string `json:"A_TIPO_DIRECCION"`
	Direccion     string `json:"A_DIRECCION_CONTACTO"`
	Barrio        string `json:"A_BARRIO"`
	Ciudad        string `json:"A_CIUDAD_DIR"`
	Departamento  string `json:"A_CODIGO_DEPART"`
	Pais          string `json:"A_CODIGO_PAIS"`
}

type Estatutarias struct {
	ValorFactor string `json:"V_VALOR_FACTOR"`
}

type Financiera struct {
	OperacionesMonExt  string `json:"A_OPERACIONES_MONEXT"`
	DeclaraRenta       string `json:"A_DECLARA_RENTA"`
	AdministraRecursos string `json:"A_ADMINTRA_RECURSOS"`
	VinculadoRecPub    string `json:"I_VINCULADO_RECPU"`
}

type Socioeconomica struct {
	Estrato              int    `json:"A_ESTRATO"`
	TipoVivienda         string `json:"A_TIPO_VIVIENDA"`
	NivelEstudio         string `json:"A_NIVEL_ESTUDIO"`
	ActividadEconomica   string `json:"A_ACTIVIDAD_ECONOMICA"`
	Ocupacion            string `json:"A_OCUPACION"`
	ActividadCIIU        string `json:"A_ACTIVIDAD_CIIU"`
	ActividadCIIUSecu    string `json:"A_ACTIVIDAD_CIIU_SECU"`
	PoblacionVulnerable  string `json:"A_POBVULNERABLE"`
	PublicamenteExpuesto string `json:"A_PUBEXP"`
	PersonasCargo        int    `json:"A_NUM_PERCARGO"`
	Sueldo               string `json:"V_SUELDO_ASOC"`
}

type Laboral struct {
	EstadoLaboral string `json:"A_ESTADO_LABORAL"`
	TipoContrato  string `json:"A_TIPO_CONTRATO"`
}

// PayloadBuilder holds the institution defaults the frame needs.
type PayloadBuilder struct {
	countryCode    string
	departmentCode string
	autoretenedor  string
	tipoCon        string
	tipoCuenta     string
	valorFactor    string
	catalog        map[string]string
	branches       *BranchCatalog
}

func NewPayloadBuilder(cfg config.AgileConfig, branches *BranchCatalog) *PayloadBuilder {
	if branches == nil {
		branches = NewBranchCatalog(cfg.Branches, cfg.DefaultBranchCode)
	}
	return &PayloadBuilder{
		countryCode:    orDefault(cfg.CountryCode, "169"),
		departmentCode: orDefault(cfg.DepartmentCode, "11"),
		autoretenedor:  orDefault(cfg.Autoretenedor, "N"),
		tipoCon:        orDefault(cfg.TipoCon, "D"),
		tipoCuenta:     orDefault(cfg.TipoCuenta, "A"),
		valorFactor:    orDefault(cfg.ValorFactor, "1"),
		catalog:        cfg.CatalogDefaults,
		branches:       branches,
	}
}

// Build maps the applicant onto the LINIX frame. record, when non-nil,
// supplies document and branch values the form left empty and must agree on
// the document number.
func (b *PayloadBuilder) Build(a Applicant, record *models.Record) (Payload, error) {
	if record != nil {
		if a.Identificacion.String() == "" {
			a.Identificacion = Text(record.DocumentNumber)
		} else if a.Identificacion.String() != record.DocumentNumber {
			return Payload{}, dErrors.New(dErrors.CodeValidation, "La identificacion no coincide con el pre-registro")
		}
		if a.TipoDocumento.String() == "" {
			a.TipoDocumento = Text(strconv.Itoa(int(record.DocumentType)))
		}
		if a.Sucursal.String() == "" {
			a.Sucursal = Text(record.Branch)
		}
	}

	if missing := missingFields(a); len(missing) > 0 {
		return Payload{}, dErrors.WithDetails(dErrors.CodeValidation,
			"Campos obligatorios faltantes: "+strings.Join(missing, ", "),
			map[string]any{"campos_faltantes": missing})
	}

	var invalid []string
	birth, err := isoDate(a.FechaNacimiento.String())
	if err != nil {
		invalid = append(invalid, "fechaNacimiento")
	}
	affiliation, err := isoDate(a.FechaAfiliacion.String())
	if err != nil {
		invalid = append(invalid, "fechaAfiliacion")
	}
	estrato, err := strconv.Atoi(a.Estrato.String())
	if err != nil {
		invalid = append(invalid, "estrato")
	}
	dependents, err := strconv.Atoi(a.PersonasCargo.String())
	if err != nil {
		invalid = append(invalid, "personasCargo")
	}
	salary, err := PlainDecimal(a.Salario.String())
	if err != nil {
		invalid = append(invalid, "salario")
	}
	if len(invalid) > 0 {
		return Payload{}, dErrors.WithDetails(dErrors.CodeValidation,
			"Campos con formato invalido: "+strings.Join(invalid, ", "),
			map[string]any{"campos_invalidos": invalid})
	}

	city := a.Ciudad.String()
	department := b.departmentCode
	if len(city) >= 2 {
		department = city[:2]
	}

	return Payload{
		Activo:          "Y",
		Asocon:          "1",
		Autoretenedor:   b.autoretenedor,
		Empresa:         "0",
		EstadoCliente:   "A",
		Funcionalidad:   "6",
		Naturaleza:      "N",
		Nomina:          "999",
		TipoAsociado:    "5",
		TipoCon:         b.tipoCon,
		TipoCuenta:      b.tipoCuenta,
		TipoDoc:         a.TipoDocumento.String(),
		CodigoCliente:   a.Identificacion.String(),
		FechaNacimiento: birth,
		PrimerNombre:    upperText(a.PrimerNombre),
		SegundoNombre:   upperText(a.SegundoNombre),
		PrimerApellido:  upperText(a.PrimerApellido),
		SegundoApellido: upperText(a.SegundoApellido),
		Nombre:          FullName(a.PrimerApellido, a.SegundoApellido, a.PrimerNombre, a.SegundoNombre),
		Genero:          a.Genero.String(),
		EstadoCivil:     a.EstadoCivil.String(),
		Email:           strings.ToLower(a.Email.String()),
		NumCelular:      a.Celular.String(),
		Telefono:        a.Telefono.String(),
		Sucursal:        b.branches.Code(a.Sucursal.String()),
		Antiguedad:      affiliation,
		PrimeraAfilia:   affiliation,
		UltimaAfilia:    affiliation,
		Aprobacion:      affiliation,
		UbicacionUno:    b.catalogValue("A_UBICACION_UNO", "1"),
		UbicacionDos:    b.catalogValue("A_UBICACION_DOS", "1"),
		Seccion:         b.catalogValue("A_SECCION", "1"),
		Cencos:          b.catalogValue("A_CENCOS", "1"),
		Cargo:           b.catalogValue("A_CARGO", "1"),
		Dependencia:     b.catalogValue("A_DEPENDENCIA", "1"),
		Contacto: Contacto{
			TipoDireccion: "C",
			Direccion:     upperText(a.Direccion),
			Barrio:        upperText(a.Barrio),
			Ciudad:        city,
			Departamento:  department,
			Pais:          b.countryCode,
		},
		Estatutarias: Estatutarias{ValorFactor: b.valorFactor},
		Financiera: Financiera{
			OperacionesMonExt:  a.OperacionesMonedaExtranjera.String(),
			DeclaraRenta:       a.DeclaraRenta.String(),
			AdministraRecursos: a.AdministraRecursosPublicos.String(),
			VinculadoRecPub:    a.VinculadoRecursosPublicos.String(),
		},
		Socioeconomica: Socioeconomica{
			Estrato:              estrato,
			TipoVivienda:         a.TipoVivienda.String(),
			NivelEstudio:         a.NivelEstudio.String(),
			ActividadEconomica:   a.ActividadEconomica.String(),
			Ocupacion:            a.Ocupacion.String(),
			ActividadCIIU:        a.ActividadCIIU.String(),
			ActividadCIIUSecu:    a.ActividadCIIUSecundaria.String(),
			PoblacionVulnerable:  a.PoblacionVulnerable.String(),
			PublicamenteExpuesto: a.PublicamenteExpuesto.String(),
			PersonasCargo:        dependents,
			Sueldo:               salary,
		},
		Laboral: Laboral{
			EstadoLaboral: b.catalogValue("A_ESTADO_LABORAL", "A"),
			TipoContrato:  b.catalogValue("A_TIPO_CONTRATO", "01"),
		},
		Activos: []json.RawMessage{},
		Pasivos: []json.RawMessage{},
	}, nil
}

// missingFields lists the empty required fields in form order.
func missingFields(a Applicant) []string {
	required := []struct {
		name  string
		value Text
	}{
		{"tipoDocumento", a.TipoDocumento},
		{"identificacion", a.Identificacion},
		{"primerNombre", a.PrimerNombre},
		{"primerApellido", a.PrimerApellido},
		{"fechaNacimiento", a.FechaNacimiento},
		{"genero", a.Genero},
		{"estadoCivil", a.EstadoCivil},
		{"email", a.Email},
		{"celular", a.Celular},
		{"direccion", a.Direccion},
		{"barrio", a.Barrio},
		{"ciudad", a.Ciudad},
		{"estrato", a.Estrato},
		{"tipoVivienda", a.TipoVivienda},
		{"nivelEstudio", a.NivelEstudio},
		{"actividadEconomica", a.ActividadEconomica},
		{"ocupacion", a.Ocupacion},
		{"actividadCIIU", a.ActividadCIIU},
		{"actividadCIIUSecundaria", a.ActividadCIIUSecundaria},
		{"poblacionVulnerable", a.PoblacionVulnerable},
		{"publicamenteExpuesto", a.PublicamenteExpuesto},
		{"personasCargo", a.PersonasCargo},
		{"salario", a.Salario},
		{"operacionesMonedaExtranjera", a.OperacionesMonedaExtranjera},
		{"declaraRenta", a.DeclaraRenta},
		{"administraRecursosPublicos", a.AdministraRecursosPublicos},
		{"vinculadoRecursosPublicos", a.VinculadoRecursosPublicos},
		{"sucursal", a.Sucursal},
		{"fechaAfiliacion", a.FechaAfiliacion},
	}
	var missing []string
	for _, f := range required {
		if f.value.String() == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// FullName joins surnames then given names, skipping empty parts.
func FullName(parts ...Text) string {
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := p.String(); s != "" {
			words = append(words, s)
		}
	}
	return upperString(strings.Join(words, " "))
}

func upperText(t Text) string {
	return upperString(t.String())
}

// upperString builds a Caser per call; Casers are not safe for concurrent use.
func upperString(s string) string {
	return cases.Upper(language.Spanish).String(norm.NFC.String(s))
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "02/01/2006"}

func isoDate(raw string) (string, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.Format("2006-01-02"), nil
		}
		lastErr = err
	}
	return "", lastErr
}

// PlainDecimal normalizes a monetary amount such as "$ 1.500.000,50" to
// "1500000.50". A single separator followed by exactly three digits is read
// as a thousands separator.
func PlainDecimal(raw string) (string, error) {
	s := strings.NewReplacer("$", "", " ", "", "COP", "", "cop", "").Replace(strings.TrimSpace(raw))
	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots == 1 || commas == 1:
		sep := "."
		if commas == 1 {
			sep = ","
		}
		if len(s)-strings.Index(s, sep)-1 == 3 {
			s = strings.Replace(s, sep, "", 1)
		} else {
			s = strings.Replace(s, sep, ".", 1)
		}
	}
	if !isDecimal(s) {
		return "", dErrors.New(dErrors.CodeValidation, "salario invalido")
	}
	return s, nil
}

func isDecimal(s string) bool {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) {
		return false
	}
	return !hasFrac || isDigits(frac)
}

func (b *PayloadBuilder) catalogValue(key, def string) string {
	if v := strings.TrimSpace(b.catalog[key]); v != "" {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
