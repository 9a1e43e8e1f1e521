package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type TourRepo struct{ db *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

const tourCols = "t.id, t.owner_id, t.name, t.artist, t.status, t.start_date, t.end_date, t.created_at, t.updated_at"

// accessibleTours selects the ids of tours a user owns or belongs to. It
// takes the user id twice.
const accessibleTours = "SELECT t.id FROM tours t WHERE t.owner_id = ? OR t.id IN (SELECT tour_id FROM tour_members WHERE user_id = ?)"

func scanTour(row interface{ Scan(...any) error }) (model.Tour, error) {
	var t model.Tour
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Artist, &t.Status, &t.StartDate, &t.EndDate, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	now := time.Now().UTC()
	t.ID = model.NewID()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Shows == nil {
		t.Shows = []model.Show{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tours (id, owner_id, name, artist, status, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Name, t.Artist, t.Status, t.StartDate, t.EndDate, now, now)
	return err
}

// Access reports the caller's access level on a tour: owner, admin, member
// or none. A missing tour yields ErrTourNotFound.
func (r *TourRepo) Access(ctx context.Context, tourID string, userID uint64) (string, error) {
	var (
		ownerID uint64
		role    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.owner_id, m.role FROM tours t
		 LEFT JOIN tour_members m ON m.tour_id = t.id AND m.user_id = ?
		 WHERE t.id = ?`, userID, tourID).Scan(&ownerID, &role)
	if err != nil {
		return model.AccessNone, notFound(err, ErrTourNotFound)
	}
	switch {
	case ownerID == userID:
		return model.AccessOwner, nil
	case role.Valid && role.String == string(model.CrewAdmin):
		return model.AccessAdmin, nil
	case role.Valid:
		return model.AccessMember, nil
	}
	return model.AccessNone, nil
}

// GetByID returns a tour with its shows.
func (r *TourRepo) GetByID(ctx context.Context, id string) (*model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourCols+" FROM tours t WHERE t.id = ?", id))
	if err != nil {
		return nil, notFound(err, ErrTourNotFound)
	}
	shows, err := queryShows(ctx, r.db, showSelect+" WHERE s.tour_id = ? ORDER BY s.show_date, s.created_at", id)
	if err != nil {
		return nil, err
	}
	t.Shows = shows
	return &t, nil
}

// ListForUser returns every tour the user owns or is a member of, each with
// its shows, ordered by start date.
func (r *TourRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Tour, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tourCols+" FROM tours t WHERE t.id IN ("+accessibleTours+") ORDER BY t.start_date, t.created_at",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tour{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		t.Shows = []model.Show{}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	shows, err := queryShows(ctx, r.db,
		showSelect+" WHERE s.tour_id IN ("+accessibleTours+") ORDER BY s.show_date, s.created_at",
		userID, userID)
	if err != nil {
		return nil, err
	}
	for _, sh := range shows {
		if i, ok := index[sh.TourID]; ok {
			out[i].Shows = append(out[i].Shows, sh)
		}
	}
	return out, nil
}

// Update writes the editable columns of t.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE tours SET name = ?, artist = ?, status = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Artist, t.Status, t.StartDate, t.EndDate, t.UpdatedAt, t.ID)
	return affected(res, err, ErrTourNotFound)
}

// Delete removes a tour owned by ownerID together with its shows,
// settlements, members and invitations. Tasks and documents pointing at the
// tour are detached, not deleted.
func (r *TourRepo) Delete(ctx context.Context, id string, ownerID uint64) (err error) {
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

	var dbOwner uint64
	if err = tx.QueryRowContext(ctx, "SELECT owner_id FROM tours WHERE id = ? FOR UPDATE", id).Scan(&dbOwner); err != nil {
		return notFound(err, ErrTourNotFound)
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	steps := []string{
		"UPDATE tasks SET show_id = NULL WHERE show_id IN (SELECT id FROM shows WHERE tour_id = ?)",
		"UPDATE tasks SET tour_id = NULL WHERE tour_id = ?",
		"UPDATE documents SET tour_id = NULL WHERE tour_id = ?",
		"UPDATE input_lists SET tour_id = NULL WHERE tour_id = ?",
		"DELETE st FROM settlements st JOIN shows s ON s.id = st.show_id WHERE s.tour_id = ?",
		"DELETE FROM shows WHERE tour_id = ?",
		"DELETE FROM invitations WHERE tour_id = ?",
		"DELETE FROM tour_members WHERE tour_id = ?",
		"DELETE FROM tours WHERE id = ?",
	}
	for _, q := range steps {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete tour: %w", err)
		}
	}
	return nil
}

// SweepStatuses rewrites the status of every dated tour whose stored status
// disagrees with its date range on day. It returns the number of tours
// changed.
func (r *TourRepo) SweepStatuses(ctx context.Context, day time.Time) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, status, start_date, end_date FROM tours WHERE start_date <> ''")
	if err != nil {
		return 0, err
	}
	var stale []model.Tour
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(&t.ID, &t.Status, &t.StartDate, &t.EndDate); err != nil {
			rows.Close()
			return 0, err
		}
		if want := t.StatusOn(day); want != t.Status {
			t.Status = want
			stale = append(stale, t)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, t := range stale {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE tours SET status = ?, updated_at = ? WHERE id = ?",
			t.Status, time.Now().UTC(), t.ID); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
