package iso20022

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParsePacs002_RoundTrips(t *testing.T) {
	xmlDoc := BuildPacs002("uetr-123", TxStatusRejected, ReasonQuoteExpiredOrRate, "quote expired", "THB", decimal.NewFromFloat(25720.70))

	report, err := ParsePacs002([]byte(xmlDoc))
	require.NoError(t, err)
	assert.Equal(t, "uetr-123", report.OriginalUETR)
	assert.Equal(t, TxStatusRejected, report.TxStatus)
	assert.Equal(t, ReasonQuoteExpiredOrRate, report.ReasonCode)
	assert.Equal(t, "quote expired", report.AdditionalInfo)
}

func TestBuildPacs002_AcceptedHasNoReasonBlock(t *testing.T) {
	xmlDoc := BuildPacs002("uetr-456", TxStatusAccepted, "", "", "SGD", decimal.NewFromFloat(1000))
	report, err := ParsePacs002([]byte(xmlDoc))
	require.NoError(t, err)
	assert.Equal(t, TxStatusAccepted, report.TxStatus)
	assert.Equal(t, ReasonCode(""), report.ReasonCode)
}

func TestParsePacs008_ExtractsFieldsInDocumentOrder(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.13">
  <FIToFICstmrCdtTrf>
    <CdtTrfTxInf>
      <PmtId><UETR>c5f8d5a0-1234-4abc-8def-000000000001</UETR></PmtId>
      <IntrBkSttlmAmt Ccy="SGD">1000.00</IntrBkSttlmAmt>
      <InstdAmt Ccy="THB">25720.70</InstdAmt>
      <InstgAgt><FinInstnId><BICFI>SRCPSPBIC</BICFI></FinInstnId></InstgAgt>
      <InstdAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></InstdAgt>
      <Dbtr><Nm>Alice Tan</Nm></Dbtr>
      <DbtrAcct><Id><Othr><Id>SG1234567890</Id></Othr></Id></DbtrAcct>
      <DbtrAgt><FinInstnId><BICFI>SRCSAPBIC</BICFI></FinInstnId></DbtrAgt>
      <CdtrAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></CdtrAgt>
      <Cdtr><Nm>Somchai P</Nm></Cdtr>
      <CdtrAcct><Id><Othr><Id>TH9876543210</Id></Othr></Id></CdtrAcct>
      <RmtInf><Ustrd>invoice 42</Ustrd></RmtInf>
    </CdtTrfTxInf>
  </FIToFICstmrCdtTrf>
</Document>`

	pi, err := ParsePacs008([]byte(xmlDoc))
	require.NoError(t, err)
	assert.Equal(t, "c5f8d5a0-1234-4abc-8def-000000000001", pi.UETR)
	assert.Equal(t, "SGD", pi.SourceCurrency)
	assert.Equal(t, "THB", pi.DestinationCurrency)
	assert.True(t, pi.InterbankAmount.Equal(decimal.NewFromFloat(1000.00)))
	assert.True(t, pi.InstructedAmount.Equal(decimal.NewFromFloat(25720.70)))
	assert.Equal(t, "Alice Tan", pi.DebtorName)
	assert.Equal(t, "Somchai P", pi.CreditorName)
}

func TestExtractOriginalUetrFromReturnNarrative(t *testing.T) {
	uetr, ok := ExtractOriginalUetrFromReturn("return ref NEXUSORIGINALUETR:c5f8d5a0-1234-4abc-8def-000000000001 processed")
	require.True(t, ok)
	assert.Equal(t, "c5f8d5a0-1234-4abc-8def-000000000001", uetr)
}
