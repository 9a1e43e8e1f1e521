package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type TaskRepo struct{ db *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

type TaskFilter struct {
	TourID string
	ShowID string
	Status model.TaskStatus
}

const taskCols = "id, owner_id, title, status, priority, tour_id, show_id, due_date, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var (
		t              model.Task
		tourID, showID sql.NullString
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Status, &t.Priority, &tourID, &showID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	t.TourID, t.ShowID = tourID.String, showID.String
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC()
	t.ID = model.NewID()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.OwnerID, t.Title, t.Status, t.Priority, nullID(t.TourID), nullID(t.ShowID), t.DueDate, now, now)
	return err
}

func (r *TaskRepo) GetByIDAndOwner(ctx context.Context, id string, ownerID uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID))
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return &t, nil
}

// List returns the owner's tasks: open ones first, then by due date.
func (r *TaskRepo) List(ctx context.Context, ownerID uint64, f TaskFilter) ([]model.Task, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if f.TourID != "" {
		where = append(where, "tour_id = ?")
		args = append(args, f.TourID)
	}
	if f.ShowID != "" {
		where = append(where, "show_id = ?")
		args = append(args, f.ShowID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE "+strings.Join(where, " AND ")+
			" ORDER BY status = 'done', due_date = '', due_date, created_at", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, status = ?, priority = ?, tour_id = ?, show_id = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		t.Title, t.Status, t.Priority, nullID(t.TourID), nullID(t.ShowID), t.DueDate, t.UpdatedAt, t.ID, t.OwnerID)
	return affected(res, err, ErrTaskNotFound)
}

func (r *TaskRepo) Delete(ctx context.Context, id string, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	return affected(res, err, ErrTaskNotFound)
}
