package iso20022

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildPacs002 renders the outbound pacs.002.001.15 status report the
// Callback Dispatcher delivers, grounded on original_source's
// PACS002_TEMPLATE (callbacks.py) and builders.py's element ordering.
func BuildPacs002(uetr string, status TxStatus, reason ReasonCode, additionalInfo, currency string, amount decimal.Decimal) string {
	msgID := fmt.Sprintf("PSR%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	if reason == "" && status == TxStatusRejected {
		reason = ReasonNarrative
	}

	var rsnBlock string
	if reason != "" {
		rsnBlock = fmt.Sprintf(`
      <StsRsnInf>
        <Rsn>
          <Cd>%s</Cd>
        </Rsn>
        <AddtlInf>%s</AddtlInf>
      </StsRsnInf>`, reason, additionalInfo)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.002.001.15">
  <FIToFIPmtStsRpt>
    <GrpHdr>
      <MsgId>%s</MsgId>
      <CreDtTm>%s</CreDtTm>
    </GrpHdr>
    <TxInfAndSts>
      <OrgnlEndToEndId>%s</OrgnlEndToEndId>
      <TxSts>%s</TxSts>%s
      <OrgnlTxRef>
        <IntrBkSttlmAmt Ccy="%s">%s</IntrBkSttlmAmt>
      </OrgnlTxRef>
    </TxInfAndSts>
  </FIToFIPmtStsRpt>
</Document>`, msgID, now, uetr, status, rsnBlock, currency, amount.StringFixed(2))
}
