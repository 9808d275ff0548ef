package models

import "strconv"

// DocumentType is the identity document catalog shared with the biometrics vendor.
type DocumentType int

const (
	DocumentCC   DocumentType = 1 // Cédula de ciudadanía
	DocumentTI   DocumentType = 2 // Tarjeta de identidad
	DocumentRC   DocumentType = 3 // Registro civil
	DocumentCE   DocumentType = 4 // Cédula de extranjería
	DocumentDIAN DocumentType = 5
	DocumentNIT  DocumentType = 6
	DocumentPEP  DocumentType = 7 // Permiso especial de permanencia
	DocumentPAS  DocumentType = 8 // Pasaporte
	DocumentVISA DocumentType = 9
)

var documentCodes = map[DocumentType]string{
	DocumentCC:   "CC",
	DocumentTI:   "TI",
	DocumentRC:   "RC",
	DocumentCE:   "CE",
	DocumentDIAN: "DIAN",
	DocumentNIT:  "NIT",
	DocumentPEP:  "PEP",
	DocumentPAS:  "PAS",
	DocumentVISA: "VISA",
}

func (d DocumentType) Valid() bool {
	_, ok := documentCodes[d]
	return ok
}

// Code returns the short catalog label, or the number for unknown values.
func (d DocumentType) Code() string {
	if c, ok := documentCodes[d]; ok {
		return c
	}
	return strconv.Itoa(int(d))
}
