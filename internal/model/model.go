// Package model holds the gateway's shared domain types (spec §3):
// quotes, payments, payment events, and participant actors. Kept
// dependency-free of any one component so store, quote, iso20022,
// callback, and registry can all reference it without cycles.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountType is how a quote's requested amount is interpreted.
type AmountType string

const (
	AmountTypeSourceFixed      AmountType = "SOURCE_FIXED"
	AmountTypeDestinationFixed AmountType = "DESTINATION_FIXED"
)

// Quote is immutable once issued (spec §3).
type Quote struct {
	QuoteID             string
	FxpID               string
	SourceCurrency      string
	DestinationCurrency string
	RequestedAmount     decimal.Decimal
	AmountType          AmountType

	BaseRate  decimal.Decimal
	FinalRate decimal.Decimal

	BaseSpreadBps       decimal.Decimal
	TierImprovementBps  decimal.Decimal
	PSPImprovementBps   decimal.Decimal
	AppliedSpreadBps    decimal.Decimal

	SourceInterbankAmount      decimal.Decimal
	DestinationInterbankAmount decimal.Decimal
	CreditorAccountAmount      decimal.Decimal
	DestinationPspFee          decimal.Decimal

	PSPBic string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsLive reports whether the quote is still bindable at t (spec §4.4, I7).
func (q Quote) IsLive(t time.Time) bool {
	return t.Before(q.ExpiresAt)
}

// PaymentStatus is the payment state machine's current state (spec §4.5).
type PaymentStatus string

const (
	StatusReceived  PaymentStatus = "RECEIVED"
	StatusSubmitted PaymentStatus = "SUBMITTED"
	StatusAccepted  PaymentStatus = "ACCEPTED"
	StatusRejected  PaymentStatus = "REJECTED"
	StatusReturned  PaymentStatus = "RETURNED"
	StatusRecalled  PaymentStatus = "RECALLED"
)

// IsTerminal reports whether s is one of the state machine's terminal states.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusReturned, StatusRecalled:
		return true
	default:
		return false
	}
}

// Payment is uniquely identified by (UETR, InitiatedAt) (spec §3).
type Payment struct {
	UETR        string
	InitiatedAt time.Time

	QuoteID string

	SourceCurrency      string
	DestinationCurrency string
	SourceInterbankAmount      decimal.Decimal
	DestinationInterbankAmount decimal.Decimal
	FinalRate                  decimal.Decimal
	CreditorAccountAmount      decimal.Decimal
	DestinationPspFee          decimal.Decimal

	DebtorName      string
	DebtorAccount   string
	CreditorName    string
	CreditorAccount string

	SourcePSPBic      string
	DestinationPSPBic string

	Status PaymentStatus

	CallbackURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the payment's compound primary key (spec §3).
func (p Payment) Key() PaymentKey {
	return PaymentKey{UETR: p.UETR, InitiatedAt: p.InitiatedAt}
}

// PaymentKey is the (uetr, initiatedAt) compound key naming a payment (spec §3, I8).
type PaymentKey struct {
	UETR        string
	InitiatedAt time.Time
}

// EventType enumerates the kinds of rows appended to the payment event log.
type EventType string

const (
	EventPaymentReceived       EventType = "PAYMENT_RECEIVED"
	EventPaymentSubmitted      EventType = "PAYMENT_SUBMITTED"
	EventPaymentAccepted       EventType = "PAYMENT_ACCEPTED"
	EventPaymentRejected       EventType = "PAYMENT_REJECTED"
	EventPaymentReturned       EventType = "PAYMENT_RETURNED"
	EventPaymentRecalled       EventType = "PAYMENT_RECALLED"
	EventSchemaValidationFailed EventType = "SCHEMA_VALIDATION_FAILED"
	EventProxyRequest          EventType = "PROXY_REQUEST_RECEIVED"
	EventProxyResponse         EventType = "PROXY_RESPONSE_RECEIVED"
	EventNotificationReceived  EventType = "NOTIFICATION_RECEIVED"
	EventReservationReceived   EventType = "RESERVATION_RECEIVED"
	EventCustomerInitiation    EventType = "CUSTOMER_INITIATION_RECEIVED"
	EventReturnReceived        EventType = "RETURN_RECEIVED"
	EventStatusQueryReceived   EventType = "STATUS_QUERY_RECEIVED"
	EventCancellationReceived  EventType = "CANCELLATION_REQUEST_RECEIVED"
	EventInvestigationResolved EventType = "INVESTIGATION_RESOLUTION_RECEIVED"
	EventCallbackDelivered     EventType = "CALLBACK_DELIVERED"
	EventCallbackFailed        EventType = "CALLBACK_DELIVERY_FAILED"
)

// RawMessageSlot names which single raw-message column a PaymentEvent populates.
type RawMessageSlot string

const (
	SlotPaymentInstruction    RawMessageSlot = "pacs008"
	SlotStatusReport          RawMessageSlot = "pacs002"
	SlotProxyRequest          RawMessageSlot = "acmt023"
	SlotProxyResponse         RawMessageSlot = "acmt024"
	SlotNotification          RawMessageSlot = "camt103"
	SlotReservation           RawMessageSlot = "camt054"
	SlotCustomerInitiation    RawMessageSlot = "pain001"
	SlotReturn                RawMessageSlot = "pacs004"
	SlotStatusQuery           RawMessageSlot = "pacs028"
	SlotCancellationRequest   RawMessageSlot = "camt056"
	SlotInvestigationResolved RawMessageSlot = "camt029"
)

// PaymentEvent is one append-only row of the audit log (spec §3, §4.3).
// A row populates at most one raw-message column: RawSlot names it and
// RawMessage holds its text, and rows without a raw message leave both
// empty, matching the "one nullable column per message family" storage
// contract (spec §6).
type PaymentEvent struct {
	EventID       string
	UETR          string // may be a generated placeholder for malformed traffic
	CorrelationID string // populated for proxy-resolution events (C8), empty otherwise
	EventType     EventType
	Actor         string
	Data          map[string]any

	RawSlot    RawMessageSlot
	RawMessage string

	OccurredAt time.Time
	Sequence   int64 // monotonic insertion order, the I8/§4.3 tiebreak
}

// ActorKind enumerates the five Nexus participant roles (spec §3, GLOSSARY).
type ActorKind string

const (
	ActorFXP ActorKind = "FXP"
	ActorIPSO ActorKind = "IPSO"
	ActorPSP  ActorKind = "PSP"
	ActorSAP  ActorKind = "SAP"
	ActorPDO  ActorKind = "PDO"
)

// Actor is a registered Nexus participant (spec §3, C7).
type Actor struct {
	ActorID        string
	ActorKind      ActorKind
	LegalName      string
	BICFI          string
	CallbackURL    string
	CallbackSecret string // stored opaque; see registry package for sandbox/prod handling
	CreatedAt      time.Time

	// AssociatedFxpID names the FXP a SAP actor settles for; empty for
	// every other ActorKind. Used to answer /quotes/{id}/intermediary-agents.
	AssociatedFxpID string
}
