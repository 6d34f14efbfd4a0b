package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"parkeo/internal/db"
	"parkeo/internal/errs"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

const vehicleColumns = `id, user_id, plate_number, vehicle_type, size, model, created_at, updated_at`

func (r *VehicleRepository) Create(v *db.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, user_id, plate_number, vehicle_type, size, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.DB.QueryRow(query, v.ID, v.UserID, v.PlateNumber, v.VehicleType, v.Size, v.Model).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("plate number %s already registered", v.PlateNumber)
		}
		return fmt.Errorf("error inserting vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(id string) (*db.Vehicle, error) {
	var v db.Vehicle
	err := r.DB.QueryRow(`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.Size, &v.Model, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying vehicle: %w", err)
	}
	return &v, nil
}

func (r *VehicleRepository) ListByUser(userID string) ([]db.Vehicle, error) {
	rows, err := r.DB.Query(`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.Size, &v.Model, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) Search(plate string, page, limit int) ([]db.Vehicle, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if plate != "" {
		where += ` AND plate_number ILIKE $` + strconv.Itoa(idx)
		args = append(args, "%"+plate+"%")
		idx++
	}

	var total int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM vehicles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting vehicles: %w", err)
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.Size, &v.Model, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, total, rows.Err()
}

func (r *VehicleRepository) Update(v *db.Vehicle) error {
	result, err := r.DB.Exec(
		`UPDATE vehicles SET plate_number = $1, vehicle_type = $2, size = $3, model = $4, updated_at = NOW() WHERE id = $5`,
		v.PlateNumber, v.VehicleType, v.Size, v.Model, v.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("plate number %s already registered", v.PlateNumber)
		}
		return fmt.Errorf("error updating vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating vehicle: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("vehicle not found")
	}
	return nil
}

func (r *VehicleRepository) Delete(id string) error {
	result, err := r.DB.Exec(`DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.Conflict("vehicle is referenced by reservations")
		}
		return fmt.Errorf("error deleting vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting vehicle: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("vehicle not found")
	}
	return nil
}

// HasReservations reports whether any reservation, in any status, references
// the vehicle. Used before deletes so history is never orphaned.
func (r *VehicleRepository) HasReservations(id string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRow(`SELECT EXISTS (SELECT 1 FROM reservations WHERE vehicle_id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking vehicle reservations: %w", err)
	}
	return exists, nil
}
