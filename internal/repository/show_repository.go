package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type ShowRepo struct{ db *sql.DB }

func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// showSelect joins the optional settlement so a show is read in one row.
const showSelect = `SELECT s.id, s.tour_id, s.venue, s.city, s.state, s.country, s.show_date,
	s.load_in, s.soundcheck, s.doors, s.show_time, s.curfew,
	s.contact_name, s.contact_email, s.contact_phone, s.capacity, s.status, s.notes,
	s.created_at, s.updated_at,
	st.guarantee_cents, st.gross_cents, st.expenses_cents, st.percentage, st.merch_cents, st.notes, st.updated_at
	FROM shows s LEFT JOIN settlements st ON st.show_id = s.id`

func scanShow(row interface{ Scan(...any) error }) (model.Show, error) {
	var (
		s                                 model.Show
		guarantee, gross, expenses, merch sql.NullInt64
		percentage                        sql.NullFloat64
		setNotes                          sql.NullString
		setUpdated                        sql.NullTime
	)
	err := row.Scan(&s.ID, &s.TourID, &s.Venue, &s.City, &s.State, &s.Country, &s.Date,
		&s.Timeline.LoadIn, &s.Timeline.Soundcheck, &s.Timeline.Doors, &s.Timeline.ShowTime, &s.Timeline.Curfew,
		&s.Contact.Name, &s.Contact.Email, &s.Contact.Phone, &s.Capacity, &s.Status, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
		&guarantee, &gross, &expenses, &percentage, &merch, &setNotes, &setUpdated)
	if err != nil {
		return s, err
	}
	if setUpdated.Valid {
		s.Settlement = &model.Settlement{
			ShowID:         s.ID,
			GuaranteeCents: guarantee.Int64,
			GrossCents:     gross.Int64,
			ExpensesCents:  expenses.Int64,
			Percentage:     percentage.Float64,
			MerchCents:     merch.Int64,
			Notes:          setNotes.String,
			UpdatedAt:      setUpdated.Time,
		}
	}
	return s, nil
}

func queryShows(ctx context.Context, db *sql.DB, q string, args ...any) ([]model.Show, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	now := time.Now().UTC()
	s.ID = model.NewID()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shows (id, tour_id, venue, city, state, country, show_date,
		 load_in, soundcheck, doors, show_time, curfew,
		 contact_name, contact_email, contact_phone, capacity, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TourID, s.Venue, s.City, s.State, s.Country, s.Date,
		s.Timeline.LoadIn, s.Timeline.Soundcheck, s.Timeline.Doors, s.Timeline.ShowTime, s.Timeline.Curfew,
		s.Contact.Name, s.Contact.Email, s.Contact.Phone, s.Capacity, s.Status, s.Notes, now, now)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE tours SET updated_at = ? WHERE id = ?", now, s.TourID)
	return err
}

func (r *ShowRepo) GetByID(ctx context.Context, id string) (*model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, showSelect+" WHERE s.id = ?", id))
	if err != nil {
		return nil, notFound(err, ErrShowNotFound)
	}
	return &s, nil
}

// ListByTour returns the tour's shows in date order.
func (r *ShowRepo) ListByTour(ctx context.Context, tourID string) ([]model.Show, error) {
	return queryShows(ctx, r.db, showSelect+" WHERE s.tour_id = ? ORDER BY s.show_date, s.created_at", tourID)
}

func (r *ShowRepo) Update(ctx context.Context, s *model.Show) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE shows SET venue = ?, city = ?, state = ?, country = ?, show_date = ?,
		 load_in = ?, soundcheck = ?, doors = ?, show_time = ?, curfew = ?,
		 contact_name = ?, contact_email = ?, contact_phone = ?, capacity = ?, status = ?, notes = ?,
		 updated_at = ?
		 WHERE id = ?`,
		s.Venue, s.City, s.State, s.Country, s.Date,
		s.Timeline.LoadIn, s.Timeline.Soundcheck, s.Timeline.Doors, s.Timeline.ShowTime, s.Timeline.Curfew,
		s.Contact.Name, s.Contact.Email, s.Contact.Phone, s.Capacity, s.Status, s.Notes,
		s.UpdatedAt, s.ID)
	return affected(res, err, ErrShowNotFound)
}

// Delete removes a show and its settlement; tasks pointing at it are detached.
func (r *ShowRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, "UPDATE tasks SET show_id = NULL WHERE show_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM settlements WHERE show_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM shows WHERE id = ?", id)
	return affected(res, err, ErrShowNotFound)
}

// UpsertSettlement creates or replaces the settlement of a show.
func (r *ShowRepo) UpsertSettlement(ctx context.Context, st *model.Settlement) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settlements (show_id, guarantee_cents, gross_cents, expenses_cents, percentage, merch_cents, notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE guarantee_cents = VALUES(guarantee_cents), gross_cents = VALUES(gross_cents),
		 expenses_cents = VALUES(expenses_cents), percentage = VALUES(percentage),
		 merch_cents = VALUES(merch_cents), notes = VALUES(notes), updated_at = VALUES(updated_at)`,
		st.ShowID, st.GuaranteeCents, st.GrossCents, st.ExpensesCents, st.Percentage, st.MerchCents, st.Notes, st.UpdatedAt)
	return err
}
