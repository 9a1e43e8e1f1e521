package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type CrewRepo struct{ db *sql.DB }

func NewCrewRepo(db *sql.DB) *CrewRepo { return &CrewRepo{db: db} }

func (r *CrewRepo) Create(ctx context.Context, c *model.Crew) error {
	c.ID = model.NewID()
	c.CreatedAt = time.Now().UTC()
	c.Members = []model.CrewMemberLink{}
	c.Documents = []model.CrewDocument{}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO crews (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)",
		c.ID, c.OwnerID, c.Name, c.CreatedAt)
	return err
}

// Access reports the caller's level on a crew, mirroring TourRepo.Access.
func (r *CrewRepo) Access(ctx context.Context, crewID string, userID uint64) (string, error) {
	var (
		ownerID uint64
		role    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT c.owner_id, (SELECT m.role FROM crew_members m WHERE m.crew_id = c.id AND m.user_id = ? LIMIT 1)
		 FROM crews c WHERE c.id = ?`, userID, crewID).Scan(&ownerID, &role)
	if err != nil {
		return model.AccessNone, notFound(err, ErrCrewNotFound)
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

// ListForUser returns crews the user owns or is linked to, without members.
func (r *CrewRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Crew, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.owner_id, c.name, c.created_at FROM crews c
		 WHERE c.owner_id = ? OR c.id IN (SELECT crew_id FROM crew_members WHERE user_id = ?)
		 ORDER BY c.name`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Crew{}
	for rows.Next() {
		var c model.Crew
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns a crew with its members and shared documents.
func (r *CrewRepo) GetByID(ctx context.Context, id string) (*model.Crew, error) {
	var c model.Crew
	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, created_at FROM crews WHERE id = ?", id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, ErrCrewNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, crew_id, user_id, name, email, position, role FROM crew_members WHERE crew_id = ? ORDER BY name", id)
	if err != nil {
		return nil, err
	}
	c.Members = []model.CrewMemberLink{}
	for rows.Next() {
		var (
			m      model.CrewMemberLink
			userID sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.CrewID, &userID, &m.Name, &m.Email, &m.Position, &m.Role); err != nil {
			rows.Close()
			return nil, err
		}
		m.UserID = uint64(userID.Int64)
		c.Members = append(c.Members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docs, err := r.db.QueryContext(ctx,
		`SELECT cd.crew_id, cd.document_id, d.name, d.type, cd.shared_at
		 FROM crew_documents cd JOIN documents d ON d.id = cd.document_id
		 WHERE cd.crew_id = ? ORDER BY cd.shared_at`, id)
	if err != nil {
		return nil, err
	}
	defer docs.Close()
	c.Documents = []model.CrewDocument{}
	for docs.Next() {
		var d model.CrewDocument
		if err := docs.Scan(&d.CrewID, &d.DocumentID, &d.Name, &d.Type, &d.SharedAt); err != nil {
			return nil, err
		}
		c.Documents = append(c.Documents, d)
	}
	return &c, docs.Err()
}

// Delete removes a crew owned by ownerID with its links.
func (r *CrewRepo) Delete(ctx context.Context, id string, ownerID uint64) (err error) {
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
	if err = tx.QueryRowContext(ctx, "SELECT owner_id FROM crews WHERE id = ? FOR UPDATE", id).Scan(&dbOwner); err != nil {
		return notFound(err, ErrCrewNotFound)
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	for _, q := range []string{
		"DELETE FROM crew_documents WHERE crew_id = ?",
		"DELETE FROM crew_members WHERE crew_id = ?",
		"DELETE FROM crews WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

// AddMember links a person to a crew. When the email belongs to an account
// the member is tied to that user.
func (r *CrewRepo) AddMember(ctx context.Context, m *model.CrewMemberLink) error {
	m.ID = model.NewID()
	m.Email = NormalizeEmail(m.Email)
	if m.UserID == 0 && m.Email != "" {
		var uid uint64
		err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", m.Email).Scan(&uid)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		m.UserID = uid
	}
	var userID any
	if m.UserID != 0 {
		userID = m.UserID
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO crew_members (id, crew_id, user_id, name, email, position, role) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.CrewID, userID, m.Name, m.Email, m.Position, m.Role)
	return err
}

func (r *CrewRepo) RemoveMember(ctx context.Context, crewID, memberID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM crew_members WHERE id = ? AND crew_id = ?", memberID, crewID)
	return affected(res, err, ErrMemberNotFound)
}

// ShareDocument links a document to a crew; sharing twice keeps the first
// shared_at.
func (r *CrewRepo) ShareDocument(ctx context.Context, crewID, documentID string) (model.CrewDocument, error) {
	d := model.CrewDocument{CrewID: crewID, DocumentID: documentID}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO crew_documents (crew_id, document_id, shared_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE shared_at = shared_at`,
		crewID, documentID, time.Now().UTC()); err != nil {
		return d, err
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT d.name, d.type, cd.shared_at FROM crew_documents cd JOIN documents d ON d.id = cd.document_id
		 WHERE cd.crew_id = ? AND cd.document_id = ?`, crewID, documentID).Scan(&d.Name, &d.Type, &d.SharedAt)
	return d, notFound(err, ErrDocumentNotFound)
}
