package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/farmland-registry/internal/model"
)

// FarmerRepo encapsulates all database queries related to farmers.  Reads
// that feed API responses eager-load the farmer's fields in the same query
// so the derived counters (number of fields, total area) are computed from
// a consistent snapshot.
type FarmerRepo struct{ db *sql.DB }

func NewFarmerRepo(db *sql.DB) *FarmerRepo { return &FarmerRepo{db: db} }

// FarmerFilter narrows List results.  Zero-valued members are ignored.
type FarmerFilter struct {
	FirstName string
	LastName  string
}

const farmerFieldJoin = `SELECT fa.id, fa.phone_number, fa.first_name, fa.last_name, fa.farm_name,
       fa.date_of_birth, fa.email, fa.address, COALESCE(fa.photo, ''),
       fa.created_at, fa.updated_at,
       fl.id, fl.name, fl.area_hectares, fl.crop_rotation, fl.cultivation_technology,
       fl.coordinates, fl.created_at, fl.updated_at
FROM farmers fa
LEFT JOIN fields fl ON fl.farmer_id = fa.id`

// List returns farmers matching the filter, each with their fields loaded.
func (r *FarmerRepo) List(ctx context.Context, f FarmerFilter) ([]*model.Farmer, error) {
	q := farmerFieldJoin
	var (
		conds []string
		args  []any
	)
	if f.FirstName != "" {
		conds = append(conds, "fa.first_name = ?")
		args = append(args, f.FirstName)
	}
	if f.LastName != "" {
		conds = append(conds, "fa.last_name = ?")
		args = append(args, f.LastName)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY fa.id, fl.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFarmerRows(rows)
}

// GetWithFields fetches one farmer with all fields.  Returns
// ErrFarmerNotFound when no such farmer exists.
func (r *FarmerRepo) GetWithFields(ctx context.Context, id uint64) (*model.Farmer, error) {
	rows, err := r.db.QueryContext(ctx, farmerFieldJoin+" WHERE fa.id = ? ORDER BY fl.id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanFarmerRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrFarmerNotFound
	}
	return out[0], nil
}

// Create inserts a new farmer.  On success the ID, CreatedAt and UpdatedAt
// fields are populated via a follow-up SELECT so callers receive a fully
// populated record.  Duplicate email/phone map to the conflict sentinels.
func (r *FarmerRepo) Create(ctx context.Context, f *model.Farmer) error {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO farmers (phone_number, first_name, last_name, farm_name, date_of_birth, email, address, photo)
		 VALUES (?,?,?,?,?,?,?,NULLIF(?,''))`,
		f.PhoneNumber, f.FirstName, f.LastName, f.FarmName,
		f.DateOfBirth.Format("2006-01-02"), f.Email, f.Address, f.Photo)
	if err != nil {
		return mapUserDupErr(err) // same unique keys: email + phone_number
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM farmers WHERE id=?", f.ID).
		Scan(&f.CreatedAt, &f.UpdatedAt)
}

// FarmerUpdate carries the optional fields of a partial update.  Nil
// members leave the column untouched.
type FarmerUpdate struct {
	PhoneNumber *string
	FarmName    *string
	Email       *string
	Address     *string
	Photo       *string
}

// Update applies a partial update to the farmer with the given id.
// Returns ErrFarmerNotFound when the farmer does not exist and the mapped
// conflict sentinel on duplicate email/phone.
func (r *FarmerRepo) Update(ctx context.Context, id uint64, upd FarmerUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.PhoneNumber != nil {
		sets = append(sets, "phone_number = ?")
		args = append(args, *upd.PhoneNumber)
	}
	if upd.FarmName != nil {
		sets = append(sets, "farm_name = ?")
		args = append(args, *upd.FarmName)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *upd.Address)
	}
	if upd.Photo != nil {
		sets = append(sets, "photo = NULLIF(?, '')")
		args = append(args, *upd.Photo)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	// Existence is checked first: an UPDATE whose values match the current
	// row reports zero affected rows on MySQL, which would be
	// indistinguishable from "no such farmer".
	var exists uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM farmers WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFarmerNotFound
	}
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE farmers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return mapUserDupErr(err)
	}
	return nil
}

// Delete removes a farmer and all of their fields in one transaction.
// Returns ErrFarmerNotFound when the farmer does not exist.  The error
// result is named so the deferred commit can report its failure.
func (r *FarmerRepo) Delete(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx, "DELETE FROM fields WHERE farmer_id=?", id); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, "DELETE FROM farmers WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrFarmerNotFound
		return err
	}
	return nil
}

// scanFarmerRows folds the farmer/field LEFT JOIN result set into farmers
// with nested field slices.  Rows must be ordered by farmer id.
func scanFarmerRows(rows *sql.Rows) ([]*model.Farmer, error) {
	var (
		out  []*model.Farmer
		last *model.Farmer
	)
	for rows.Next() {
		var (
			fa    model.Farmer
			flID  sql.NullInt64
			fl    model.Field
			name  sql.NullString
			area  sql.NullFloat64
			rot   sql.NullString
			tech  sql.NullString
			coord sql.NullString
			fcr   sql.NullTime
			fup   sql.NullTime
		)
		// parseTime=true in the DSN maps the DATE column straight to time.Time.
		if err := rows.Scan(&fa.ID, &fa.PhoneNumber, &fa.FirstName, &fa.LastName, &fa.FarmName,
			&fa.DateOfBirth, &fa.Email, &fa.Address, &fa.Photo, &fa.CreatedAt, &fa.UpdatedAt,
			&flID, &name, &area, &rot, &tech, &coord, &fcr, &fup); err != nil {
			return nil, err
		}
		if last == nil || last.ID != fa.ID {
			f := fa
			out = append(out, &f)
			last = out[len(out)-1]
		}
		if flID.Valid {
			fl.ID = uint64(flID.Int64)
			fl.Name = name.String
			fl.AreaHectares = area.Float64
			fl.CropRotation = rot.String
			fl.CultivationTechnology = tech.String
			fl.Coordinates = coord.String
			fl.FarmerID = last.ID
			fl.CreatedAt = fcr.Time
			fl.UpdatedAt = fup.Time
			last.Fields = append(last.Fields, fl)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
