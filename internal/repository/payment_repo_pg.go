package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pvolkov-dev/skyfare/internal/domain"
)

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PGPaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, amount_cents, status, provider_ref, settled_at, created_at, updated_at FROM payments WHERE booking_id=$1`, bookingID)
	var p domain.Payment
	if err := scanPayment(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus, settledAt *time.Time) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1, settled_at=$2, updated_at=now() WHERE id=$3 RETURNING id, booking_id, amount_cents, status, provider_ref, settled_at, created_at, updated_at`, status, settledAt, paymentID)
	var p domain.Payment
	if err := scanPayment(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPayment(row pgx.Row, p *domain.Payment) error {
	return row.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.ProviderRef, &p.SettledAt, &p.CreatedAt, &p.UpdatedAt)
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
