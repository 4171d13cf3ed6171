package iso20022

import (
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"
)

// The wire-format structs below mirror the element shapes used by
// original_source's builders.py; field order matches so a document this
// package builds round-trips through its own parser.

type pacs008Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		Tx struct {
			PmtID struct {
				UETR string `xml:"UETR"`
			} `xml:"PmtId"`
			IntrBkSttlmAmt struct {
				Ccy   string `xml:"Ccy,attr"`
				Value string `xml:",chardata"`
			} `xml:"IntrBkSttlmAmt"`
			InstdAmt struct {
				Ccy   string `xml:"Ccy,attr"`
				Value string `xml:",chardata"`
			} `xml:"InstdAmt"`
			InstgAgt struct {
				FinInstnID struct {
					BICFI string `xml:"BICFI"`
				} `xml:"FinInstnId"`
			} `xml:"InstgAgt"`
			InstdAgt struct {
				FinInstnID struct {
					BICFI string `xml:"BICFI"`
				} `xml:"FinInstnId"`
			} `xml:"InstdAgt"`
			Dbtr struct {
				Nm string `xml:"Nm"`
			} `xml:"Dbtr"`
			DbtrAcct struct {
				ID struct {
					Othr struct {
						ID string `xml:"Id"`
					} `xml:"Othr"`
				} `xml:"Id"`
			} `xml:"DbtrAcct"`
			DbtrAgt struct {
				FinInstnID struct {
					BICFI string `xml:"BICFI"`
				} `xml:"FinInstnId"`
			} `xml:"DbtrAgt"`
			CdtrAgt struct {
				FinInstnID struct {
					BICFI string `xml:"BICFI"`
				} `xml:"FinInstnId"`
			} `xml:"CdtrAgt"`
			Cdtr struct {
				Nm string `xml:"Nm"`
			} `xml:"Cdtr"`
			CdtrAcct struct {
				ID struct {
					Othr struct {
						ID string `xml:"Id"`
					} `xml:"Othr"`
				} `xml:"Id"`
			} `xml:"CdtrAcct"`
			RmtInf struct {
				Ustrd string `xml:"Ustrd"`
			} `xml:"RmtInf"`
		} `xml:"CdtTrfTxInf"`
	} `xml:"FIToFICstmrCdtTrf"`
}

// ParsePacs008 decodes a pacs.008 FIToFICstmrCdtTrf document (spec §3, §4.5).
func ParsePacs008(xmlBytes []byte) (PaymentInstruction, error) {
	var doc pacs008Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return PaymentInstruction{}, fmt.Errorf("parse pacs.008: %w", err)
	}
	tx := doc.Body.Tx

	interbank, err := parseDecimal(tx.IntrBkSttlmAmt.Value)
	if err != nil {
		return PaymentInstruction{}, fmt.Errorf("parse IntrBkSttlmAmt: %w", err)
	}
	instructed, err := parseDecimal(tx.InstdAmt.Value)
	if err != nil {
		return PaymentInstruction{}, fmt.Errorf("parse InstdAmt: %w", err)
	}

	return PaymentInstruction{
		UETR:                tx.PmtID.UETR,
		SourceCurrency:      tx.IntrBkSttlmAmt.Ccy,
		DestinationCurrency: tx.InstdAmt.Ccy,
		InterbankAmount:     interbank,
		InstructedAmount:    instructed,
		DebtorName:          tx.Dbtr.Nm,
		DebtorAccount:       tx.DbtrAcct.ID.Othr.ID,
		DebtorBIC:           tx.InstgAgt.FinInstnID.BICFI,
		CreditorName:        tx.Cdtr.Nm,
		CreditorAccount:     tx.CdtrAcct.ID.Othr.ID,
		CreditorBIC:         tx.CdtrAgt.FinInstnID.BICFI,
		SourceSapBIC:        tx.DbtrAgt.FinInstnID.BICFI,
		DestinationSapBIC:   tx.InstdAgt.FinInstnID.BICFI,
		RemittanceInfo:      tx.RmtInf.Ustrd,
	}, nil
}

type pacs002Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		TxInf struct {
			OrgnlEndToEndID string `xml:"OrgnlEndToEndId"`
			TxSts           string `xml:"TxSts"`
			StsRsnInf       struct {
				Rsn struct {
					Cd string `xml:"Cd"`
				} `xml:"Rsn"`
				AddtlInf string `xml:"AddtlInf"`
			} `xml:"StsRsnInf"`
		} `xml:"TxInfAndSts"`
	} `xml:"FIToFIPmtStsRpt"`
}

// ParsePacs002 decodes a pacs.002 FIToFIPmtStsRpt document.
func ParsePacs002(xmlBytes []byte) (StatusReport, error) {
	var doc pacs002Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return StatusReport{}, fmt.Errorf("parse pacs.002: %w", err)
	}
	return StatusReport{
		OriginalUETR:   doc.Body.TxInf.OrgnlEndToEndID,
		TxStatus:       TxStatus(doc.Body.TxInf.TxSts),
		ReasonCode:     ReasonCode(doc.Body.TxInf.StsRsnInf.Rsn.Cd),
		AdditionalInfo: doc.Body.TxInf.StsRsnInf.AddtlInf,
	}, nil
}

type acmt023Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		CorrelationID string `xml:"CorrelationId"`
		ProxyType     string `xml:"Rslvd>PxyTp>Cd"`
		ProxyValue    string `xml:"Rslvd>PxyVal"`
		RequestingBIC string `xml:"ReqstgAgt>FinInstnId>BICFI"`
	} `xml:"AcctIdReq"`
}

// ParseAcmt023 decodes an acmt.023 proxy-resolution request (spec §4.8).
func ParseAcmt023(xmlBytes []byte) (ProxyResolutionRequest, error) {
	var doc acmt023Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return ProxyResolutionRequest{}, fmt.Errorf("parse acmt.023: %w", err)
	}
	return ProxyResolutionRequest{
		CorrelationID: doc.Body.CorrelationID,
		ProxyType:     doc.Body.ProxyType,
		ProxyValue:    doc.Body.ProxyValue,
		RequestingBIC: doc.Body.RequestingBIC,
	}, nil
}

type acmt024Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		CorrelationID string `xml:"CorrelationId"`
		Sts           string `xml:"Sts>Cd"`
		AccountID     string `xml:"Acct>Id"`
		MaskedName    string `xml:"Acct>Ownr>Nm"`
		BIC           string `xml:"Acct>Svcr>FinInstnId>BICFI"`
	} `xml:"AcctIdRspn"`
}

// ParseAcmt024 decodes an acmt.024 proxy-resolution response (spec §4.8).
func ParseAcmt024(xmlBytes []byte) (ProxyResolutionResponse, error) {
	var doc acmt024Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return ProxyResolutionResponse{}, fmt.Errorf("parse acmt.024: %w", err)
	}
	return ProxyResolutionResponse{
		CorrelationID: doc.Body.CorrelationID,
		Resolved:      doc.Body.Sts == "RSLV",
		AccountID:     doc.Body.AccountID,
		MaskedName:    doc.Body.MaskedName,
		BIC:           doc.Body.BIC,
	}, nil
}

type pain001Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		PmtInf struct {
			CdtTrfTxInf struct {
				PmtID struct {
					EndToEndID string `xml:"EndToEndId"`
				} `xml:"PmtId"`
				Amt struct {
					InstdAmt struct {
						Ccy   string `xml:"Ccy,attr"`
						Value string `xml:",chardata"`
					} `xml:"InstdAmt"`
				} `xml:"Amt"`
				Cdtr struct {
					Nm string `xml:"Nm"`
				} `xml:"Cdtr"`
				CdtrAcct struct {
					ID struct {
						IBAN string `xml:"IBAN"`
					} `xml:"Id"`
				} `xml:"CdtrAcct"`
			} `xml:"CdtTrfTxInf"`
			Dbtr struct {
				Nm string `xml:"Nm"`
			} `xml:"Dbtr"`
			DbtrAcct struct {
				ID struct {
					IBAN string `xml:"IBAN"`
				} `xml:"Id"`
			} `xml:"DbtrAcct"`
		} `xml:"PmtInf"`
	} `xml:"CstmrCdtTrfInitn"`
}

// ParsePain001 decodes a pain.001 customer credit transfer initiation.
func ParsePain001(xmlBytes []byte) (CustomerInitiation, error) {
	var doc pain001Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return CustomerInitiation{}, fmt.Errorf("parse pain.001: %w", err)
	}
	pi := doc.Body.PmtInf
	amt, err := parseDecimal(pi.CdtTrfTxInf.Amt.InstdAmt.Value)
	if err != nil {
		return CustomerInitiation{}, fmt.Errorf("parse InstdAmt: %w", err)
	}
	return CustomerInitiation{
		EndToEndID:      pi.CdtTrfTxInf.PmtID.EndToEndID,
		Amount:          amt,
		Currency:        pi.CdtTrfTxInf.Amt.InstdAmt.Ccy,
		DebtorName:      pi.Dbtr.Nm,
		DebtorAccount:   pi.DbtrAcct.ID.IBAN,
		CreditorName:    pi.CdtTrfTxInf.Cdtr.Nm,
		CreditorAccount: pi.CdtTrfTxInf.CdtrAcct.ID.IBAN,
	}, nil
}

type camt103Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		RsvatnID struct {
			RsvatnID string `xml:"RsvatnId"`
		} `xml:"RsvatnId"`
		ValSet struct {
			Amt struct {
				AmtWthCcy struct {
					Ccy   string `xml:"Ccy,attr"`
					Value string `xml:",chardata"`
				} `xml:"AmtWthCcy"`
			} `xml:"Amt"`
		} `xml:"ValSet"`
	} `xml:"CretRsvatn"`
}

// ParseCamt103 decodes a camt.103 create-reservation document.
func ParseCamt103(xmlBytes []byte) (Reservation, error) {
	var doc camt103Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return Reservation{}, fmt.Errorf("parse camt.103: %w", err)
	}
	amt, err := parseDecimal(doc.Body.ValSet.Amt.AmtWthCcy.Value)
	if err != nil {
		return Reservation{}, fmt.Errorf("parse AmtWthCcy: %w", err)
	}
	return Reservation{
		ReservationID: doc.Body.RsvatnID.RsvatnID,
		Amount:        amt,
		Currency:      doc.Body.ValSet.Amt.AmtWthCcy.Ccy,
	}, nil
}

type pacs004Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		TxInf struct {
			RtrID             string `xml:"RtrId"`
			OrgnlEndToEndID   string `xml:"OrgnlEndToEndId"`
			RtrdIntrBkSttlmAmt struct {
				Ccy   string `xml:"Ccy,attr"`
				Value string `xml:",chardata"`
			} `xml:"RtrdIntrBkSttlmAmt"`
			RtrRsnInf struct {
				Rsn struct {
					Cd string `xml:"Cd"`
				} `xml:"Rsn"`
			} `xml:"RtrRsnInf"`
		} `xml:"TxInf"`
	} `xml:"PmtRtr"`
}

// ParsePacs004 decodes a pacs.004 payment return document. OriginalUETR
// is taken from OrgnlEndToEndId only; when that is absent, HandlePacs004
// falls back to searching the whole document for the NEXUSORIGINALUETR
// marker a pacs.008-driven return carries (spec §3).
func ParsePacs004(xmlBytes []byte) (Return, error) {
	var doc pacs004Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return Return{}, fmt.Errorf("parse pacs.004: %w", err)
	}
	amt, err := parseDecimal(doc.Body.TxInf.RtrdIntrBkSttlmAmt.Value)
	if err != nil {
		return Return{}, fmt.Errorf("parse RtrdIntrBkSttlmAmt: %w", err)
	}
	return Return{
		ReturnID:     doc.Body.TxInf.RtrID,
		OriginalUETR: doc.Body.TxInf.OrgnlEndToEndID,
		Amount:       amt,
		Currency:     doc.Body.TxInf.RtrdIntrBkSttlmAmt.Ccy,
		ReasonCode:   ReasonCode(doc.Body.TxInf.RtrRsnInf.Rsn.Cd),
	}, nil
}

type pacs028Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		TxInf struct {
			StsReqID        string `xml:"StsReqId"`
			OrgnlEndToEndID string `xml:"OrgnlEndToEndId"`
		} `xml:"TxInf"`
	} `xml:"FIToFIPmtStsReq"`
}

// ParsePacs028 decodes a pacs.028 payment status query document.
func ParsePacs028(xmlBytes []byte) (StatusQuery, error) {
	var doc pacs028Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return StatusQuery{}, fmt.Errorf("parse pacs.028: %w", err)
	}
	return StatusQuery{
		RequestID:    doc.Body.TxInf.StsReqID,
		OriginalUETR: doc.Body.TxInf.OrgnlEndToEndID,
	}, nil
}

type camt056Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		Case struct {
			ID string `xml:"Id"`
		} `xml:"Case"`
		Undrlyg struct {
			OrgnlEndToEndID string `xml:"OrgnlGrpInfAndCxl>OrgnlEndToEndId"`
		} `xml:"Undrlyg"`
		CxlRsnInf struct {
			Rsn struct {
				Cd string `xml:"Cd"`
			} `xml:"Rsn"`
			AddtlInf string `xml:"AddtlInf"`
		} `xml:"CxlRsnInf"`
	} `xml:"FIToFIPmtCxlReq"`
}

// ParseCamt056 decodes a camt.056 payment cancellation request.
func ParseCamt056(xmlBytes []byte) (CancellationRequest, error) {
	var doc camt056Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return CancellationRequest{}, fmt.Errorf("parse camt.056: %w", err)
	}
	return CancellationRequest{
		CaseID:       doc.Body.Case.ID,
		OriginalUETR: doc.Body.Undrlyg.OrgnlEndToEndID,
		ReasonCode:   ReasonCode(doc.Body.CxlRsnInf.Rsn.Cd),
		ReasonDesc:   doc.Body.CxlRsnInf.AddtlInf,
	}, nil
}

type camt029Doc struct {
	XMLName xml.Name `xml:"Document"`
	Body    struct {
		Assgnmt struct {
			CaseID string `xml:"Case>Id"`
		} `xml:"Assgnmt"`
		RsltnOfInvstgtn struct {
			Sts struct {
				Cnf string `xml:"Conf"`
			} `xml:"Sts"`
		} `xml:"RsltnOfInvstgtn"`
		OrgnlEndToEndID string `xml:"OrgnlEndToEndId"`
	} `xml:"ResolutionOfInvestigation"`
}

// ParseCamt029 decodes a camt.029 resolution-of-investigation document.
// ConfirmationCode "CNCL" confirms the underlying cancellation request
// and is the trigger checked by the ACCEPTED->RECALLED transition (spec §4.5).
func ParseCamt029(xmlBytes []byte) (InvestigationResolution, error) {
	var doc camt029Doc
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return InvestigationResolution{}, fmt.Errorf("parse camt.029: %w", err)
	}
	return InvestigationResolution{
		CaseID:           doc.Body.Assgnmt.CaseID,
		OriginalUETR:     doc.Body.OrgnlEndToEndID,
		ConfirmationCode: doc.Body.RsltnOfInvstgtn.Sts.Cnf,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
