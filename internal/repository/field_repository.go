package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/farmland-registry/internal/model"
)

// FieldRepo encapsulates all database queries related to fields (land
// parcels).  Field names are globally unique; every field belongs to one
// farmer and writes validate that relationship inside a transaction.
type FieldRepo struct{ db *sql.DB }

func NewFieldRepo(db *sql.DB) *FieldRepo { return &FieldRepo{db: db} }

// FieldWithFarmer is a field joined with the owning farmer's last name,
// the shape the listing endpoints return.
type FieldWithFarmer struct {
	model.Field
	FarmerLastName string `json:"farmer"`
}

const fieldFarmerJoin = `SELECT fl.id, fl.name, fl.area_hectares,
       COALESCE(fl.crop_rotation, ''), COALESCE(fl.cultivation_technology, ''),
       COALESCE(fl.coordinates, ''), fl.farmer_id, fl.created_at, fl.updated_at,
       fa.last_name
FROM fields fl
JOIN farmers fa ON fa.id = fl.farmer_id`

// List returns all fields with the owning farmer's last name.
func (r *FieldRepo) List(ctx context.Context) ([]*FieldWithFarmer, error) {
	rows, err := r.db.QueryContext(ctx, fieldFarmerJoin+" ORDER BY fl.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FieldWithFarmer
	for rows.Next() {
		f := new(FieldWithFarmer)
		if err := rows.Scan(&f.ID, &f.Name, &f.AreaHectares, &f.CropRotation,
			&f.CultivationTechnology, &f.Coordinates, &f.FarmerID,
			&f.CreatedAt, &f.UpdatedAt, &f.FarmerLastName); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one field with the owning farmer's last name.  Returns
// ErrFieldNotFound when no such field exists.
func (r *FieldRepo) GetByID(ctx context.Context, id uint64) (*FieldWithFarmer, error) {
	f := new(FieldWithFarmer)
	err := r.db.QueryRowContext(ctx, fieldFarmerJoin+" WHERE fl.id = ?", id).
		Scan(&f.ID, &f.Name, &f.AreaHectares, &f.CropRotation,
			&f.CultivationTechnology, &f.Coordinates, &f.FarmerID,
			&f.CreatedAt, &f.UpdatedAt, &f.FarmerLastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFieldNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts a new field after verifying, in the same transaction,
// that the owning farmer exists and the name is not taken.  The error
// result is named so the deferred commit can report its failure.
func (r *FieldRepo) Create(ctx context.Context, f *model.Field) (err error) {
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

	var farmerID uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM farmers WHERE id=? LIMIT 1", f.FarmerID).Scan(&farmerID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrFarmerNotFound
		return err
	}
	if err != nil {
		return err
	}

	var existing uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM fields WHERE name=? LIMIT 1", f.Name).Scan(&existing)
	if err == nil {
		err = ErrFieldNameExists
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO fields (name, area_hectares, crop_rotation, cultivation_technology, coordinates, farmer_id)
		 VALUES (?,?,NULLIF(?,''),NULLIF(?,''),NULLIF(?,''),?)`,
		f.Name, f.AreaHectares, f.CropRotation, f.CultivationTechnology, f.Coordinates, f.FarmerID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = ErrFieldNameExists
		}
		return err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// FieldUpdate carries the optional members of a partial field update.
type FieldUpdate struct {
	Name                  *string
	AreaHectares          *float64
	CropRotation          *string
	CultivationTechnology *string
	Coordinates           *string
	FarmerID              *uint64
}

// Update applies a partial update.  When FarmerID changes, the new farmer
// must exist.  Returns ErrFieldNotFound / ErrFarmerNotFound accordingly.
func (r *FieldRepo) Update(ctx context.Context, id uint64, upd FieldUpdate) (err error) {
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

	var existing uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM fields WHERE id=? LIMIT 1", id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrFieldNotFound
		return err
	}
	if err != nil {
		return err
	}

	if upd.FarmerID != nil {
		var farmerID uint64
		err = tx.QueryRowContext(ctx, "SELECT id FROM farmers WHERE id=? LIMIT 1", *upd.FarmerID).Scan(&farmerID)
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrFarmerNotFound
			return err
		}
		if err != nil {
			return err
		}
	}

	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.AreaHectares != nil {
		sets = append(sets, "area_hectares = ?")
		args = append(args, *upd.AreaHectares)
	}
	if upd.CropRotation != nil {
		sets = append(sets, "crop_rotation = NULLIF(?, '')")
		args = append(args, *upd.CropRotation)
	}
	if upd.CultivationTechnology != nil {
		sets = append(sets, "cultivation_technology = NULLIF(?, '')")
		args = append(args, *upd.CultivationTechnology)
	}
	if upd.Coordinates != nil {
		sets = append(sets, "coordinates = NULLIF(?, '')")
		args = append(args, *upd.Coordinates)
	}
	if upd.FarmerID != nil {
		sets = append(sets, "farmer_id = ?")
		args = append(args, *upd.FarmerID)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	_, err = tx.ExecContext(ctx,
		"UPDATE fields SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		err = ErrFieldNameExists
	}
	return err
}

// Delete removes a field by id.  Returns ErrFieldNotFound when absent.
func (r *FieldRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM fields WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFieldNotFound
	}
	return nil
}
