package iso20022

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/quote"
	"github.com/nexusgw/gateway/internal/store/memory"
)

type fixedOffer struct {
	offer quote.FXPOffer
}

func (f fixedOffer) SelectFXP(quote.Request) (quote.FXPOffer, error) { return f.offer, nil }

func testPipeline(t *testing.T, now time.Time) (*Pipeline, *quote.Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	qe := quote.New(
		quote.NewMemoryStore(),
		fixedOffer{offer: quote.FXPOffer{FxpID: "fxp-1", BaseRate: decimal.NewFromFloat(25.7207), BaseSpreadBps: decimal.NewFromInt(50)}},
		quote.StaticImprovementPolicy{Tier: decimal.Zero, PSP: decimal.Zero},
		zap.NewNop(),
		quote.WithClock(func() time.Time { return now }),
	)
	p := &Pipeline{
		Quotes: qe,
		Store:  st,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return now },
	}
	return p, qe, st
}

func pacs008XML(uetr, srcCcy, dstCcy string, interbank, instructed decimal.Decimal, creditorAcct, debtorAcct string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.13">
  <FIToFICstmrCdtTrf>
    <CdtTrfTxInf>
      <PmtId><UETR>%s</UETR></PmtId>
      <IntrBkSttlmAmt Ccy="%s">%s</IntrBkSttlmAmt>
      <InstdAmt Ccy="%s">%s</InstdAmt>
      <InstgAgt><FinInstnId><BICFI>SRCPSPBIC</BICFI></FinInstnId></InstgAgt>
      <InstdAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></InstdAgt>
      <Dbtr><Nm>Alice Tan</Nm></Dbtr>
      <DbtrAcct><Id><Othr><Id>%s</Id></Othr></Id></DbtrAcct>
      <DbtrAgt><FinInstnId><BICFI>SRCSAPBIC</BICFI></FinInstnId></DbtrAgt>
      <CdtrAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></CdtrAgt>
      <Cdtr><Nm>Somchai P</Nm></Cdtr>
      <CdtrAcct><Id><Othr><Id>%s</Id></Othr></Id></CdtrAcct>
      <RmtInf><Ustrd>invoice 42</Ustrd></RmtInf>
    </CdtTrfTxInf>
  </FIToFICstmrCdtTrf>
</Document>`, uetr, srcCcy, interbank.StringFixed(2), dstCcy, instructed.StringFixed(2), debtorAcct, creditorAcct)
}

func TestHandlePacs008_AcceptsWhenBoundToLiveQuote(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	p, qe, st := testPipeline(t, now)

	q, err := qe.Create(context.Background(), quote.CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromInt(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	xmlDoc := pacs008XML("c5f8d5a0-1234-4abc-8def-000000000001", "SGD", "THB", q.SourceInterbankAmount, q.DestinationInterbankAmount, "TH9876543210", "SG1234567890")

	ack, verr := p.HandlePacs008(context.Background(), []byte(xmlDoc), q.QuoteID, "https://psp.example.com/cb")
	require.Nil(t, verr)
	assert.Equal(t, string(model.StatusAccepted), ack.Status)

	payment, ok, err := st.GetLatestPaymentByUETR(context.Background(), "c5f8d5a0-1234-4abc-8def-000000000001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusAccepted, payment.Status)
}

func TestHandlePacs008_RejectsOnAmountMismatch(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	p, qe, st := testPipeline(t, now)

	q, err := qe.Create(context.Background(), quote.CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromInt(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	wrongAmount := q.SourceInterbankAmount.Add(decimal.NewFromInt(500))
	xmlDoc := pacs008XML("c5f8d5a0-1234-4abc-8def-000000000002", "SGD", "THB", wrongAmount, q.DestinationInterbankAmount, "TH9876543210", "SG1234567890")

	ack, verr := p.HandlePacs008(context.Background(), []byte(xmlDoc), q.QuoteID, "https://psp.example.com/cb")
	require.Nil(t, verr)
	assert.Equal(t, string(model.StatusReceived), ack.Status)

	payment, ok, err := st.GetLatestPaymentByUETR(context.Background(), "c5f8d5a0-1234-4abc-8def-000000000002")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusRejected, payment.Status)
}

func TestHandlePacs008_ResubmissionIsIdempotent(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	p, qe, _ := testPipeline(t, now)

	q, err := qe.Create(context.Background(), quote.CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromInt(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	xmlDoc := pacs008XML("c5f8d5a0-1234-4abc-8def-000000000003", "SGD", "THB", q.SourceInterbankAmount, q.DestinationInterbankAmount, "TH9876543210", "SG1234567890")

	first, verr := p.HandlePacs008(context.Background(), []byte(xmlDoc), q.QuoteID, "https://psp.example.com/cb")
	require.Nil(t, verr)

	second, verr := p.HandlePacs008(context.Background(), []byte(xmlDoc), q.QuoteID, "https://psp.example.com/cb")
	require.Nil(t, verr)
	assert.Equal(t, first.Status, second.Status)
}

func TestHandlePacs008_ReturnMarkerTransitionsAcceptedToReturned(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	p, qe, st := testPipeline(t, now)

	q, err := qe.Create(context.Background(), quote.CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromInt(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	originalXML := pacs008XML("c5f8d5a0-1234-4abc-8def-000000000004", "SGD", "THB", q.SourceInterbankAmount, q.DestinationInterbankAmount, "TH9876543210", "SG1234567890")
	_, verr := p.HandlePacs008(context.Background(), []byte(originalXML), q.QuoteID, "https://psp.example.com/cb")
	require.Nil(t, verr)

	returnXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.13">
  <FIToFICstmrCdtTrf>
    <CdtTrfTxInf>
      <PmtId><UETR>c5f8d5a0-1234-4abc-8def-000000000005</UETR></PmtId>
      <IntrBkSttlmAmt Ccy="THB">1000.00</IntrBkSttlmAmt>
      <InstdAmt Ccy="SGD">1000.00</InstdAmt>
      <InstgAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></InstgAgt>
      <InstdAgt><FinInstnId><BICFI>SRCSAPBIC</BICFI></FinInstnId></InstdAgt>
      <Dbtr><Nm>Somchai P</Nm></Dbtr>
      <DbtrAcct><Id><Othr><Id>TH9876543210</Id></Othr></Id></DbtrAcct>
      <DbtrAgt><FinInstnId><BICFI>DSTSAPBIC</BICFI></FinInstnId></DbtrAgt>
      <CdtrAgt><FinInstnId><BICFI>SRCSAPBIC</BICFI></FinInstnId></CdtrAgt>
      <Cdtr><Nm>Alice Tan</Nm></Cdtr>
      <CdtrAcct><Id><Othr><Id>SG1234567890</Id></Othr></Id></CdtrAcct>
      <RmtInf><Ustrd>return ref NEXUSORIGINALUETR:c5f8d5a0-1234-4abc-8def-000000000004</Ustrd></RmtInf>
    </CdtTrfTxInf>
  </FIToFICstmrCdtTrf>
</Document>`)

	_, verr = p.HandlePacs008(context.Background(), []byte(returnXML), "", "")
	require.Nil(t, verr)

	payment, ok, err := st.GetLatestPaymentByUETR(context.Background(), "c5f8d5a0-1234-4abc-8def-000000000004")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusReturned, payment.Status)
}
