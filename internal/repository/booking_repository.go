package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
)

// SQLBookingRepo stores bookings in the bookings table.
type SQLBookingRepo struct {
	db *sql.DB
}

// NewSQLBookingRepo constructs a SQLBookingRepo with the given DB handle.
func NewSQLBookingRepo(db *sql.DB) *SQLBookingRepo {
	return &SQLBookingRepo{db: db}
}

const bookingColumns = `id, venue_id, contact_name, contact_email, contact_phone, start_ms, end_ms, total_price, status, created_at, updated_at`

// FindByID returns the booking with the given id or ErrNotFound.
func (r *SQLBookingRepo) FindByID(ctx context.Context, id string) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	return b, nil
}

// FindAll returns bookings ordered by creation time, restricted to one
// venue when f.VenueID is set.
func (r *SQLBookingRepo) FindAll(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	var args []any
	if f.VenueID != "" {
		q += ` WHERE venue_id = ?`
		args = append(args, f.VenueID)
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save inserts the booking or overwrites the stored copy with the same id.
func (r *SQLBookingRepo) Save(ctx context.Context, b model.Booking) error {
	if !b.Status.Valid() {
		return fmt.Errorf("save booking %s: %w", b.ID, lifecycle.ErrUnknownStatus)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, b.ID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE bookings
			 SET venue_id = ?, contact_name = ?, contact_email = ?, contact_phone = ?, start_ms = ?, end_ms = ?,
			     total_price = ?, status = ?, created_at = ?, updated_at = ?
			 WHERE id = ?`,
			b.VenueID, b.Contact.Name, b.Contact.Email, b.Contact.Phone,
			windowMillis(b.Window.Start), windowMillis(b.Window.End), b.TotalPrice, b.Status.String(),
			toMillis(b.CreatedAt), toMillis(b.UpdatedAt), b.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.VenueID, b.Contact.Name, b.Contact.Email, b.Contact.Phone,
			windowMillis(b.Window.Start), windowMillis(b.Window.End), b.TotalPrice, b.Status.String(),
			toMillis(b.CreatedAt), toMillis(b.UpdatedAt))
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes the booking row. It returns ErrNotFound when absent.
func (r *SQLBookingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b                                  model.Booking
		startMs, endMs, createdAt, updated int64
		status                             string
	)
	if err := s.Scan(&b.ID, &b.VenueID, &b.Contact.Name, &b.Contact.Email, &b.Contact.Phone,
		&startMs, &endMs, &b.TotalPrice, &status, &createdAt, &updated); err != nil {
		return model.Booking{}, err
	}
	st, err := lifecycle.ParseStatus(status)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	b.Status = st
	b.Window.Start, b.Window.End = windowFromMillis(startMs), windowFromMillis(endMs)
	b.CreatedAt, b.UpdatedAt = fromMillis(createdAt), fromMillis(updated)
	return b, nil
}
