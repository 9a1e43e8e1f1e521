package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

// MemberRepo manages tour membership and invitations.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// List returns the members of a tour with their account emails.
func (r *MemberRepo) List(ctx context.Context, tourID string) ([]model.TourMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.tour_id, m.user_id, u.email, m.role, m.joined_at
		 FROM tour_members m JOIN users u ON u.id = m.user_id
		 WHERE m.tour_id = ? ORDER BY m.joined_at`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TourMember{}
	for rows.Next() {
		var m model.TourMember
		if err := rows.Scan(&m.TourID, &m.UserID, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepo) Remove(ctx context.Context, tourID string, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tour_members WHERE tour_id = ? AND user_id = ?", tourID, userID)
	return affected(res, err, ErrMemberNotFound)
}

// CreateInvitation stores a pending invitation. Only inv.TokenHash is
// written; the raw token never reaches the database.
func (r *MemberRepo) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	inv.ID = model.NewID()
	inv.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, tour_id, email, role, invited_by, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TourID, inv.Email, inv.Role, inv.InvitedBy, inv.TokenHash, inv.ExpiresAt, inv.CreatedAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// PendingInvitations lists unaccepted, unexpired invitations of a tour.
func (r *MemberRepo) PendingInvitations(ctx context.Context, tourID string, now time.Time) ([]model.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tour_id, email, role, invited_by, expires_at, created_at
		 FROM invitations WHERE tour_id = ? AND accepted_at IS NULL AND expires_at > ?
		 ORDER BY created_at`, tourID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Invitation{}
	for rows.Next() {
		var inv model.Invitation
		if err := rows.Scan(&inv.ID, &inv.TourID, &inv.Email, &inv.Role, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// AcceptInvitation redeems the invitation with the given token hash for a
// user and creates (or upgrades) the membership. The invitation must be
// addressed to email, unexpired and not yet used.
func (r *MemberRepo) AcceptInvitation(ctx context.Context, tokenHash string, userID uint64, email string, now time.Time) (inv model.Invitation, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return inv, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var accepted sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT id, tour_id, email, role, invited_by, expires_at, accepted_at, created_at
		 FROM invitations WHERE token_hash = ? FOR UPDATE`, tokenHash).
		Scan(&inv.ID, &inv.TourID, &inv.Email, &inv.Role, &inv.InvitedBy, &inv.ExpiresAt, &accepted, &inv.CreatedAt)
	if err != nil {
		return inv, notFound(err, ErrInvitationNotFound)
	}
	switch {
	case accepted.Valid:
		return inv, ErrConflict
	case inv.Expired(now):
		return inv, ErrInvitationExpired
	case inv.Email != NormalizeEmail(email):
		return inv, ErrForbidden
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO tour_members (tour_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE role = VALUES(role)`,
		inv.TourID, userID, inv.Role, now); err != nil {
		return inv, err
	}
	if _, err = tx.ExecContext(ctx, "UPDATE invitations SET accepted_at = ? WHERE id = ?", now, inv.ID); err != nil {
		return inv, err
	}
	inv.AcceptedAt = &now
	return inv, nil
}

// DeleteExpiredInvitations removes pending invitations past their expiry.
func (r *MemberRepo) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
