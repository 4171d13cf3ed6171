// Package postgres is the Postgres-backed half of the Event & Payment
// Store: the canonical payments table, unique on (uetr, initiated_at)
// (spec §3, §6), matching the teacher's internal/adapters/repository/postgres
// single-row-lock upsert style.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
)

// Repository is the payments-table half of the hybrid Store.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to dsn and returns a ready Repository. The schema is
// applied out of band by cmd/migrate (see migrations/).
func New(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("connect: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("ping: %w", err))
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

// Upsert writes payment, relying on the (uetr, initiated_at) unique
// constraint to make re-submission idempotent (I8): ON CONFLICT updates
// only the mutable status/updated_at columns, never the immutable
// quote-bound amounts.
func (r *Repository) Upsert(ctx context.Context, p model.Payment) error {
	const q = `
INSERT INTO payments (
	uetr, initiated_at, quote_id, source_currency, destination_currency,
	source_interbank_amount, destination_interbank_amount, final_rate,
	creditor_account_amount, destination_psp_fee,
	debtor_name, debtor_account, creditor_name, creditor_account,
	source_psp_bic, destination_psp_bic, status, callback_url,
	created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
)
ON CONFLICT (uetr, initiated_at) DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at
`
	_, err := r.pool.Exec(ctx, q,
		p.UETR, p.InitiatedAt, p.QuoteID, p.SourceCurrency, p.DestinationCurrency,
		p.SourceInterbankAmount, p.DestinationInterbankAmount, p.FinalRate,
		p.CreditorAccountAmount, p.DestinationPspFee,
		p.DebtorName, p.DebtorAccount, p.CreditorName, p.CreditorAccount,
		p.SourcePSPBic, p.DestinationPSPBic, p.Status, p.CallbackURL,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errs.ErrDBUnavailable.With(fmt.Errorf("upsert payment %s: %w", p.UETR, err))
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, uetr string, initiatedAt time.Time) (model.Payment, bool, error) {
	const q = `
SELECT uetr, initiated_at, quote_id, source_currency, destination_currency,
	source_interbank_amount, destination_interbank_amount, final_rate,
	creditor_account_amount, destination_psp_fee,
	debtor_name, debtor_account, creditor_name, creditor_account,
	source_psp_bic, destination_psp_bic, status, callback_url,
	created_at, updated_at
FROM payments WHERE uetr = $1 AND initiated_at = $2
`
	row := r.pool.QueryRow(ctx, q, uetr, initiatedAt)
	p, err := scanPayment(row)
	if err == pgx.ErrNoRows {
		return model.Payment{}, false, nil
	}
	if err != nil {
		return model.Payment{}, false, errs.ErrDBUnavailable.With(err)
	}
	return p, true, nil
}

func (r *Repository) GetLatestByUETR(ctx context.Context, uetr string) (model.Payment, bool, error) {
	const q = `
SELECT uetr, initiated_at, quote_id, source_currency, destination_currency,
	source_interbank_amount, destination_interbank_amount, final_rate,
	creditor_account_amount, destination_psp_fee,
	debtor_name, debtor_account, creditor_name, creditor_account,
	source_psp_bic, destination_psp_bic, status, callback_url,
	created_at, updated_at
FROM payments WHERE uetr = $1 ORDER BY initiated_at DESC LIMIT 1
`
	row := r.pool.QueryRow(ctx, q, uetr)
	p, err := scanPayment(row)
	if err == pgx.ErrNoRows {
		return model.Payment{}, false, nil
	}
	if err != nil {
		return model.Payment{}, false, errs.ErrDBUnavailable.With(err)
	}
	return p, true, nil
}

// ListPayments answers the "/payments" audit view (spec §6), grounded
// on payments_explorer.py's list_payments: optional status filter,
// ORDER BY initiated_at DESC, capped at limit.
func (r *Repository) ListPayments(ctx context.Context, status model.PaymentStatus, limit int) ([]model.Payment, error) {
	q := `
SELECT uetr, initiated_at, quote_id, source_currency, destination_currency,
	source_interbank_amount, destination_interbank_amount, final_rate,
	creditor_account_amount, destination_psp_fee,
	debtor_name, debtor_account, creditor_name, creditor_account,
	source_psp_bic, destination_psp_bic, status, callback_url,
	created_at, updated_at
FROM payments
`
	args := []any{}
	argIdx := 1
	if status != "" {
		q += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	q += fmt.Sprintf(" ORDER BY initiated_at DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("list payments: %w", err))
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, errs.ErrDBUnavailable.With(fmt.Errorf("scan payment: %w", err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ErrDBUnavailable.With(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (model.Payment, error) {
	var p model.Payment
	var sia, dia, fr, caa, dpf decimal.Decimal
	err := row.Scan(
		&p.UETR, &p.InitiatedAt, &p.QuoteID, &p.SourceCurrency, &p.DestinationCurrency,
		&sia, &dia, &fr, &caa, &dpf,
		&p.DebtorName, &p.DebtorAccount, &p.CreditorName, &p.CreditorAccount,
		&p.SourcePSPBic, &p.DestinationPSPBic, &p.Status, &p.CallbackURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	p.SourceInterbankAmount, p.DestinationInterbankAmount, p.FinalRate = sia, dia, fr
	p.CreditorAccountAmount, p.DestinationPspFee = caa, dpf
	return p, err
}
