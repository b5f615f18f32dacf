package model

import "errors"

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformed
	KindValidation
	KindIntegrity
	KindNotFound
	KindIO
)

var (
	// Malformed input
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrInvalidStructure = errors.New("invalid input structure")
	ErrReadingSource    = errors.New("reading transaction file")

	// Field validation
	ErrFromIBANNotValid     = errors.New("from iban not valid")
	ErrToIBANNotValid       = errors.New("to iban not valid")
	ErrConceptNotValid      = errors.New("concept not valid")
	ErrTransferTypeNotValid = errors.New("transfer type not valid")
	ErrDateNotValid         = errors.New("date not valid")
	ErrAmountNotValid       = errors.New("amount not valid")
	ErrIBANNotValid         = errors.New("iban not valid")
	ErrAmountFormat         = errors.New("amount format invalid")

	// Integrity
	ErrTransferExists = errors.New("transfer already exists")
	ErrIBANNotFound   = errors.New("iban not found")

	// I/O
	ErrInputNotFound  = errors.New("input file not found")
	ErrReadingInput   = errors.New("reading input file")
	ErrSourceNotFound = errors.New("file not found")
)

// kinds is ordered: for a chain holding several sentinels the first listed wins.
var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidJSON, KindMalformed},
	{ErrInvalidStructure, KindMalformed},
	{ErrReadingSource, KindMalformed},
	{ErrFromIBANNotValid, KindValidation},
	{ErrToIBANNotValid, KindValidation},
	{ErrConceptNotValid, KindValidation},
	{ErrTransferTypeNotValid, KindValidation},
	{ErrDateNotValid, KindValidation},
	{ErrAmountNotValid, KindValidation},
	{ErrIBANNotValid, KindValidation},
	{ErrAmountFormat, KindValidation},
	{ErrTransferExists, KindIntegrity},
	{ErrIBANNotFound, KindNotFound},
	{ErrInputNotFound, KindIO},
	{ErrReadingInput, KindIO},
	{ErrSourceNotFound, KindIO},
}

// KindOf returns the kind of the first listed sentinel found in err's chain.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
