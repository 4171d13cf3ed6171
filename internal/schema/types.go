// Package schema implements the Schema Validator (spec §4.1, C1): it
// loads XSDs once at startup, validates inbound XML against the schema
// matching its message type, and safely extracts a UETR from documents
// that may themselves be invalid.
package schema

// MessageType is one of the eleven ISO 20022 message families the
// gateway handles (spec §4.1).
type MessageType string

const (
	Pacs00800113 MessageType = "pacs.008.001.13"
	Pacs00200115 MessageType = "pacs.002.001.15"
	Acmt02300104 MessageType = "acmt.023.001.04"
	Acmt02400104 MessageType = "acmt.024.001.04"
	Camt05400113 MessageType = "camt.054.001.13"
	Camt10300103 MessageType = "camt.103.001.03"
	Pain00100112 MessageType = "pain.001.001.12"
	Pacs00400114 MessageType = "pacs.004.001.14"
	Pacs02800106 MessageType = "pacs.028.001.06"
	Camt05600111 MessageType = "camt.056.001.11"
	Camt02900113 MessageType = "camt.029.001.13"
)

// SupportedMessageTypes lists every message family the Schema Validator loads.
var SupportedMessageTypes = []MessageType{
	Pacs00800113, Pacs00200115, Acmt02300104, Acmt02400104, Camt05400113,
	Camt10300103, Pain00100112, Pacs00400114, Pacs02800106, Camt05600111,
	Camt02900113,
}

// ValidationErrorKind is one of the failure kinds the validator reports (spec §4.1).
type ValidationErrorKind string

const (
	ErrKindSchemaNotLoaded     ValidationErrorKind = "SCHEMA_NOT_LOADED"
	ErrKindXMLParseError       ValidationErrorKind = "XML_PARSE_ERROR"
	ErrKindXSDValidationFailed ValidationErrorKind = "XSD_VALIDATION_FAILED"
)

// ValidationError is one line-annotated reason a document failed to validate.
type ValidationError struct {
	Kind    ValidationErrorKind
	Line    int
	Column  int
	Message string
}

// Result is the structured outcome of Validate; the validator never
// throws to callers (spec §4.1 contract), so every failure mode is
// represented here.
type Result struct {
	Valid       bool
	MessageType MessageType
	Errors      []ValidationError
	Warnings    []string
}
