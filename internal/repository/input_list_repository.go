package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type InputListRepo struct{ db *sql.DB }

func NewInputListRepo(db *sql.DB) *InputListRepo { return &InputListRepo{db: db} }

// insertChannels writes all 32 channels of a list in one statement.
func insertChannels(ctx context.Context, tx *sql.Tx, listID string, chs []model.InputChannel) error {
	values := make([]string, 0, len(chs))
	args := make([]any, 0, len(chs)*9)
	for _, c := range chs {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, listID, c.Number, c.Source, c.Mic, c.DI, c.Stand, c.Notes, c.Phantom, c.Pad)
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO input_channels (list_id, number, source, mic, di, stand, notes, phantom, pad) VALUES "+
			strings.Join(values, ", "), args...)
	return err
}

// Create inserts the list and its 32 channels. Channels already on l are
// laid over a blank list; the stored list always has all 32.
func (r *InputListRepo) Create(ctx context.Context, l *model.InputList) (err error) {
	now := time.Now().UTC()
	l.ID = model.NewID()
	l.CreatedAt, l.UpdatedAt = now, now
	l.Channels = model.MergeChannels(l.Channels)

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
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO input_lists (id, owner_id, tour_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, l.OwnerID, nullID(l.TourID), l.Name, now, now); err != nil {
		return err
	}
	return insertChannels(ctx, tx, l.ID, l.Channels)
}

// GetByIDAndOwner returns the list with its channels in order.
func (r *InputListRepo) GetByIDAndOwner(ctx context.Context, id string, ownerID uint64) (*model.InputList, error) {
	var (
		l      model.InputList
		tourID sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, tour_id, name, created_at, updated_at FROM input_lists WHERE id = ? AND owner_id = ?",
		id, ownerID).Scan(&l.ID, &l.OwnerID, &tourID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err, ErrInputListNotFound)
	}
	l.TourID = tourID.String

	rows, err := r.db.QueryContext(ctx,
		"SELECT number, source, mic, di, stand, notes, phantom, pad FROM input_channels WHERE list_id = ? ORDER BY number", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chs []model.InputChannel
	for rows.Next() {
		var c model.InputChannel
		if err := rows.Scan(&c.Number, &c.Source, &c.Mic, &c.DI, &c.Stand, &c.Notes, &c.Phantom, &c.Pad); err != nil {
			return nil, err
		}
		chs = append(chs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	l.Channels = model.MergeChannels(chs)
	return &l, nil
}

// List returns the owner's lists without channels.
func (r *InputListRepo) List(ctx context.Context, ownerID uint64) ([]model.InputList, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, owner_id, tour_id, name, created_at, updated_at FROM input_lists WHERE owner_id = ? ORDER BY created_at", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.InputList{}
	for rows.Next() {
		var (
			l      model.InputList
			tourID sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.OwnerID, &tourID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		l.TourID = tourID.String
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateChannel overwrites one channel of a list the owner holds.
func (r *InputListRepo) UpdateChannel(ctx context.Context, listID string, ownerID uint64, c model.InputChannel) error {
	if !model.ValidChannel(c.Number) {
		return model.ErrChannelRange
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE input_channels ic JOIN input_lists l ON l.id = ic.list_id
		 SET ic.source = ?, ic.mic = ?, ic.di = ?, ic.stand = ?, ic.notes = ?, ic.phantom = ?, ic.pad = ?, l.updated_at = ?
		 WHERE ic.list_id = ? AND ic.number = ? AND l.owner_id = ?`,
		c.Source, c.Mic, c.DI, c.Stand, c.Notes, c.Phantom, c.Pad, time.Now().UTC(), listID, c.Number, ownerID)
	return affected(res, err, ErrChannelNotFound)
}

func (r *InputListRepo) Delete(ctx context.Context, id string, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM input_lists WHERE id = ? AND owner_id = ?", id, ownerID)
	return affected(res, err, ErrInputListNotFound)
}
