package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type DocumentRepo struct{ db *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

const docCols = "d.id, d.owner_id, d.tour_id, d.name, d.type, d.content, d.created_at, d.updated_at"

func scanDocument(row interface{ Scan(...any) error }) (model.Document, error) {
	var (
		d      model.Document
		tourID sql.NullString
	)
	err := row.Scan(&d.ID, &d.OwnerID, &tourID, &d.Name, &d.Type, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	d.TourID = tourID.String
	return d, err
}

func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	now := time.Now().UTC()
	d.ID = model.NewID()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner_id, tour_id, name, type, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, nullID(d.TourID), d.Name, d.Type, d.Content, now, now)
	return err
}

// GetForUser returns a document the user owns or that was shared with a
// crew the user belongs to.
func (r *DocumentRepo) GetForUser(ctx context.Context, id string, userID uint64) (*model.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx,
		`SELECT `+docCols+` FROM documents d
		 WHERE d.id = ? AND (d.owner_id = ? OR EXISTS (
		   SELECT 1 FROM crew_documents cd JOIN crew_members m ON m.crew_id = cd.crew_id
		   WHERE cd.document_id = d.id AND m.user_id = ?))`, id, userID, userID))
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound)
	}
	return &d, nil
}

// List returns the owner's documents, optionally for one tour and type.
func (r *DocumentRepo) List(ctx context.Context, ownerID uint64, tourID string, typ model.DocType) ([]model.Document, error) {
	q := "SELECT " + docCols + " FROM documents d WHERE d.owner_id = ?"
	args := []any{ownerID}
	if tourID != "" {
		q += " AND d.tour_id = ?"
		args = append(args, tourID)
	}
	if typ != "" {
		q += " AND d.type = ?"
		args = append(args, typ)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY d.updated_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentRepo) Update(ctx context.Context, d *model.Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET tour_id = ?, name = ?, type = ?, content = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
		nullID(d.TourID), d.Name, d.Type, d.Content, d.UpdatedAt, d.ID, d.OwnerID)
	return affected(res, err, ErrDocumentNotFound)
}

func (r *DocumentRepo) Delete(ctx context.Context, id string, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ? AND owner_id = ?", id, ownerID)
	return affected(res, err, ErrDocumentNotFound)
}
