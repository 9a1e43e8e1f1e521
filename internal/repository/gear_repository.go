package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

type GearRepo struct{ db *sql.DB }

func NewGearRepo(db *sql.DB) *GearRepo { return &GearRepo{db: db} }

// GearFilter narrows List. Zero values match everything.
type GearFilter struct {
	Category model.GearCategory
	FlyPack  *bool
	Search   string // substring of name
}

const gearCols = "id, owner_id, name, category, quantity, dimensions, weight_kg, `condition`, fly_pack, location, notes, created_at, updated_at"

func scanGear(row interface{ Scan(...any) error }) (model.GearItem, error) {
	var g model.GearItem
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Category, &g.Quantity, &g.Dimensions, &g.WeightKg,
		&g.Condition, &g.FlyPack, &g.Location, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *GearRepo) Create(ctx context.Context, g *model.GearItem) error {
	g.Normalize()
	now := time.Now().UTC()
	g.ID = model.NewID()
	g.CreatedAt, g.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO gear ("+gearCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.OwnerID, g.Name, g.Category, g.Quantity, g.Dimensions, g.WeightKg,
		g.Condition, g.FlyPack, g.Location, g.Notes, now, now)
	return err
}

// CreateMany inserts items in one transaction, used by document import.
func (r *GearRepo) CreateMany(ctx context.Context, ownerID uint64, items []model.GearItem) (out []model.GearItem, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	now := time.Now().UTC()
	for _, g := range items {
		g.Normalize()
		g.ID = model.NewID()
		g.OwnerID = ownerID
		g.CreatedAt, g.UpdatedAt = now, now
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO gear ("+gearCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			g.ID, g.OwnerID, g.Name, g.Category, g.Quantity, g.Dimensions, g.WeightKg,
			g.Condition, g.FlyPack, g.Location, g.Notes, now, now); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// GetByIDAndOwner returns ErrGearNotFound for items owned by someone else.
func (r *GearRepo) GetByIDAndOwner(ctx context.Context, id string, ownerID uint64) (*model.GearItem, error) {
	g, err := scanGear(r.db.QueryRowContext(ctx,
		"SELECT "+gearCols+" FROM gear WHERE id = ? AND owner_id = ?", id, ownerID))
	if err != nil {
		return nil, notFound(err, ErrGearNotFound)
	}
	return &g, nil
}

func (r *GearRepo) List(ctx context.Context, ownerID uint64, f GearFilter) ([]model.GearItem, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.FlyPack != nil {
		where = append(where, "fly_pack = ?")
		args = append(args, *f.FlyPack)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+s+"%")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+gearCols+" FROM gear WHERE "+strings.Join(where, " AND ")+" ORDER BY category, name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.GearItem{}
	for rows.Next() {
		g, err := scanGear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GearRepo) Update(ctx context.Context, g *model.GearItem) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE gear SET name = ?, category = ?, quantity = ?, dimensions = ?, weight_kg = ?, `condition` = ?, "+
			"fly_pack = ?, location = ?, notes = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
		g.Name, g.Category, g.Quantity, g.Dimensions, g.WeightKg, g.Condition,
		g.FlyPack, g.Location, g.Notes, g.UpdatedAt, g.ID, g.OwnerID)
	return affected(res, err, ErrGearNotFound)
}

func (r *GearRepo) Delete(ctx context.Context, id string, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gear WHERE id = ? AND owner_id = ?", id, ownerID)
	return affected(res, err, ErrGearNotFound)
}
