package iso20022

import "github.com/shopspring/decimal"

// PaymentInstruction is the semantic record parsed from a pacs.008
// FIToFICstmrCdtTrf document (spec §3, §4.5), grounded on the field
// ordering documented in original_source's builders.py
// (PmtId -> ... -> RmtInf).
type PaymentInstruction struct {
	UETR                string
	MsgID               string
	SourceCurrency      string
	DestinationCurrency string
	InterbankAmount     decimal.Decimal // IntrBkSttlmAmt, source currency
	InstructedAmount    decimal.Decimal // InstdAmt, destination currency
	DebtorName          string
	DebtorAccount       string
	DebtorBIC           string
	CreditorName        string
	CreditorAccount     string
	CreditorBIC         string
	SourceSapBIC        string
	DestinationSapBIC   string
	RemittanceInfo      string
}

// StatusReport is the semantic record parsed from a pacs.002
// FIToFIPmtStsRpt document.
type StatusReport struct {
	OriginalUETR string
	TxStatus     TxStatus
	ReasonCode   ReasonCode
	AdditionalInfo string
}

// ProxyResolutionRequest is parsed from an acmt.023 document (spec §4.8).
type ProxyResolutionRequest struct {
	CorrelationID string
	ProxyType     string
	ProxyValue    string
	RequestingBIC string
}

// ProxyResolutionResponse is parsed from an acmt.024 document (spec §4.8).
type ProxyResolutionResponse struct {
	CorrelationID string
	Resolved      bool
	AccountID     string
	MaskedName    string
	BIC           string
}

// CustomerInitiation is parsed from a pain.001 document.
type CustomerInitiation struct {
	EndToEndID      string
	Amount          decimal.Decimal
	Currency        string
	DebtorName      string
	DebtorAccount   string
	CreditorName    string
	CreditorAccount string
}

// Reservation is parsed from a camt.103 document.
type Reservation struct {
	ReservationID string
	Amount        decimal.Decimal
	Currency      string
}

// Return is parsed from a pacs.004 document. OriginalUETR is the
// document's OrgnlEndToEndId; HandlePacs004 falls back to the
// NEXUSORIGINALUETR marker in the document text when it is empty
// (spec §3, §4.5).
type Return struct {
	ReturnID     string
	OriginalUETR string
	Amount       decimal.Decimal
	Currency     string
	ReasonCode   ReasonCode
}

// StatusQuery is parsed from a pacs.028 document.
type StatusQuery struct {
	RequestID    string
	OriginalUETR string
}

// CancellationRequest is parsed from a camt.056 document.
type CancellationRequest struct {
	CaseID       string
	OriginalUETR string
	ReasonCode   ReasonCode
	ReasonDesc   string
}

// InvestigationResolution is parsed from a camt.029 document. A
// ConfirmationCode of "CNCL" on a resolution referencing a
// camt.056-originated case drives the ACCEPTED->RECALLED transition
// (spec §4.5).
type InvestigationResolution struct {
	CaseID           string
	OriginalUETR     string
	ConfirmationCode string
}
