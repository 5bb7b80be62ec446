package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
)

// SQLVenueRepo stores venues in the venues and venue_blocked_intervals
// tables. Queries use "?" placeholders and run on MySQL and SQLite.
type SQLVenueRepo struct {
	db *sql.DB
}

// NewSQLVenueRepo constructs a SQLVenueRepo with the given DB handle.
func NewSQLVenueRepo(db *sql.DB) *SQLVenueRepo {
	return &SQLVenueRepo{db: db}
}

const venueColumns = `id, name, description, address_json, capacity, amenities_json, price_per_hour, images_json, created_at, updated_at`

// FindByID loads a venue and its blocked intervals in insertion order.
// It returns ErrNotFound when no row matches.
func (r *SQLVenueRepo) FindByID(ctx context.Context, id string) (model.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Venue{}, ErrNotFound
		}
		return model.Venue{}, err
	}
	blocked, err := r.blockedIntervals(ctx, `WHERE venue_id = ?`, id)
	if err != nil {
		return model.Venue{}, err
	}
	v.BlockedIntervals = blocked[v.ID]
	return v, nil
}

// FindAll returns every venue ordered by creation time.
func (r *SQLVenueRepo) FindAll(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	blocked, err := r.blockedIntervals(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].BlockedIntervals = blocked[out[i].ID]
	}
	return out, nil
}

// Save inserts or replaces the venue together with its blocked intervals
// inside one transaction.
func (r *SQLVenueRepo) Save(ctx context.Context, v model.Venue) error {
	address, err := json.Marshal(v.Address)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	amenities, err := marshalList(v.Amenities)
	if err != nil {
		return fmt.Errorf("encode amenities: %w", err)
	}
	images, err := marshalList(v.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
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
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues WHERE id = ?`, v.ID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE venues
			 SET name = ?, description = ?, address_json = ?, capacity = ?, amenities_json = ?,
			     price_per_hour = ?, images_json = ?, created_at = ?, updated_at = ?
			 WHERE id = ?`,
			v.Name, v.Description, string(address), v.Capacity, amenities,
			v.PricePerHour, images, toMillis(v.CreatedAt), toMillis(v.UpdatedAt), v.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO venues (`+venueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Name, v.Description, string(address), v.Capacity, amenities,
			v.PricePerHour, images, toMillis(v.CreatedAt), toMillis(v.UpdatedAt))
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM venue_blocked_intervals WHERE venue_id = ?`, v.ID); err != nil {
		return err
	}
	for i, b := range v.BlockedIntervals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO venue_blocked_intervals (venue_id, seq, start_ms, end_ms, reason, booking_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, i, windowMillis(b.Start), windowMillis(b.End), b.Reason, b.BookingID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a venue and its blocked intervals. It returns ErrNotFound
// for an unknown id and ErrConflict while non-cancelled bookings reference
// the venue.
func (r *SQLVenueRepo) Delete(ctx context.Context, id string) error {
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

	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE venue_id = ? AND status <> 'cancelled'`, id,
	).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM venue_blocked_intervals WHERE venue_id = ?`, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// blockedIntervals loads blocked intervals grouped by venue id, optionally
// restricted by a WHERE clause.
func (r *SQLVenueRepo) blockedIntervals(ctx context.Context, where string, args ...any) (map[string][]model.BlockedInterval, error) {
	q := `SELECT venue_id, start_ms, end_ms, reason, booking_id FROM venue_blocked_intervals ` +
		where + ` ORDER BY venue_id, seq`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.BlockedInterval)
	for rows.Next() {
		var (
			venueID      string
			startMs, end int64
			b            model.BlockedInterval
		)
		if err := rows.Scan(&venueID, &startMs, &end, &b.Reason, &b.BookingID); err != nil {
			return nil, err
		}
		b.Start, b.End = windowFromMillis(startMs), windowFromMillis(end)
		out[venueID] = append(out[venueID], b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenue(s rowScanner) (model.Venue, error) {
	var (
		v                          model.Venue
		address, amenities, images string
		createdAt, updatedAt       int64
	)
	if err := s.Scan(&v.ID, &v.Name, &v.Description, &address, &v.Capacity, &amenities,
		&v.PricePerHour, &images, &createdAt, &updatedAt); err != nil {
		return model.Venue{}, err
	}
	if err := json.Unmarshal([]byte(address), &v.Address); err != nil {
		return model.Venue{}, fmt.Errorf("decode address of venue %s: %w", v.ID, err)
	}
	if err := json.Unmarshal([]byte(amenities), &v.Amenities); err != nil {
		return model.Venue{}, fmt.Errorf("decode amenities of venue %s: %w", v.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &v.Images); err != nil {
		return model.Venue{}, fmt.Errorf("decode images of venue %s: %w", v.ID, err)
	}
	v.CreatedAt, v.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return v, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	bs, err := json.Marshal(items)
	return string(bs), err
}
