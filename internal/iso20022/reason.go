package iso20022

// ReasonCode is one of the fixed closed set of pacs.002 status reason
// codes (spec §4.5, §6). Implementations must use these verbatim.
type ReasonCode string

const (
	ReasonTransactionAborted   ReasonCode = "AB03"
	ReasonQuoteExpiredOrRate   ReasonCode = "AB04"
	ReasonInvalidCutOffTime    ReasonCode = "TM01"
	ReasonIncorrectAccount     ReasonCode = "AC01"
	ReasonClosedAccount        ReasonCode = "AC04"
	ReasonAmountAboveLimit     ReasonCode = "AM02"
	ReasonInsufficientFunds    ReasonCode = "AM04"
	ReasonDuplicatePayment     ReasonCode = "DUPL"
	ReasonNotSpecified         ReasonCode = "MS02"
	ReasonRegulatoryBlock      ReasonCode = "RR04"
	ReasonInvalidProxy         ReasonCode = "BE23"
	ReasonInvalidSettlementAgt ReasonCode = "RC11"
	ReasonNarrative            ReasonCode = "NARR"
)

// TxStatus is a pacs.002 terminal status code (spec GLOSSARY).
type TxStatus string

const (
	TxStatusAccepted TxStatus = "ACCC"
	TxStatusRejected TxStatus = "RJCT"
)
