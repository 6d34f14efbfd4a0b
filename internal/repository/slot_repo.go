package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(database *sql.DB) *SlotRepository {
	return &SlotRepository{DB: database}
}

const slotColumns = `id, slot_number, vehicle_type, size, location, status, created_at, updated_at`

func scanSlot(row *sql.Row) (*db.ParkingSlot, error) {
	var s db.ParkingSlot
	err := row.Scan(&s.ID, &s.SlotNumber, &s.VehicleType, &s.Size, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) Create(s *db.ParkingSlot) error {
	query := `
		INSERT INTO parking_slots (id, slot_number, vehicle_type, size, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.DB.QueryRow(query, s.ID, s.SlotNumber, s.VehicleType, s.Size, s.Location, s.Status).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("slot number %s already exists", s.SlotNumber)
		}
		return fmt.Errorf("error inserting slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetByID(id string) (*db.ParkingSlot, error) {
	slot, err := scanSlot(r.DB.QueryRow(`SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying slot: %w", err)
	}
	return slot, nil
}

// FindMatchingAvailable returns the oldest AVAILABLE slot whose capability
// equals the requested pair, or nil when none exists. Insertion order is the
// tie-break so concurrent approvals contend for the same candidate instead of
// scattering nondeterministically.
func (r *SlotRepository) FindMatchingAvailable(vehicleType db.VehicleType, size db.VehicleSize) (*db.ParkingSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM parking_slots
		WHERE status = $1 AND vehicle_type = $2 AND size = $3
		ORDER BY created_at, id
		LIMIT 1`
	slot, err := scanSlot(r.DB.QueryRow(query, db.SlotAvailable, vehicleType, size))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying matching slot: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) ListAvailable(vehicleType db.VehicleType, size db.VehicleSize) ([]db.ParkingSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM parking_slots
		WHERE status = $1 AND vehicle_type = $2 AND size = $3
		ORDER BY created_at, id`
	rows, err := r.DB.Query(query, db.SlotAvailable, vehicleType, size)
	if err != nil {
		return nil, fmt.Errorf("error querying available slots: %w", err)
	}
	defer rows.Close()

	var slots []db.ParkingSlot
	for rows.Next() {
		var s db.ParkingSlot
		if err := rows.Scan(&s.ID, &s.SlotNumber, &s.VehicleType, &s.Size, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// MarkUnavailable claims a slot with a single conditional update. The WHERE
// clause on status makes the transition a compare-and-swap: of two concurrent
// claims exactly one sees a row updated, the other gets a Conflict.
func (r *SlotRepository) MarkUnavailable(id string) error {
	result, err := r.DB.Exec(
		`UPDATE parking_slots SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		db.SlotUnavailable, id, db.SlotAvailable,
	)
	if err != nil {
		return errs.Unavailable(err, "error claiming slot %s", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Unavailable(err, "error claiming slot %s", id)
	}
	if affected == 0 {
		return errs.Conflict("slot %s is not available", id)
	}
	return nil
}

// MarkAvailable releases a slot. Idempotent: releasing an AVAILABLE slot is a
// no-op.
func (r *SlotRepository) MarkAvailable(id string) error {
	_, err := r.DB.Exec(
		`UPDATE parking_slots SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`,
		db.SlotAvailable, id,
	)
	if err != nil {
		return errs.Unavailable(err, "error releasing slot %s", id)
	}
	return nil
}

func (r *SlotRepository) Update(s *db.ParkingSlot) error {
	result, err := r.DB.Exec(
		`UPDATE parking_slots SET slot_number = $1, vehicle_type = $2, size = $3, location = $4, updated_at = NOW() WHERE id = $5`,
		s.SlotNumber, s.VehicleType, s.Size, s.Location, s.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("slot number %s already exists", s.SlotNumber)
		}
		return fmt.Errorf("error updating slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating slot: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("slot not found")
	}
	return nil
}

func (r *SlotRepository) Delete(id string) error {
	result, err := r.DB.Exec(`DELETE FROM parking_slots WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.Conflict("slot is referenced by reservations")
		}
		return fmt.Errorf("error deleting slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting slot: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("slot not found")
	}
	return nil
}

func (r *SlotRepository) Count() (int64, error) {
	var n int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM parking_slots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting slots: %w", err)
	}
	return n, nil
}

// MaxSlotNumber returns the highest numeric suffix among S-prefixed slot
// numbers, used to continue the sequence on bulk creation.
func (r *SlotRepository) MaxSlotNumber() (int, error) {
	var max sql.NullInt64
	query := `
		SELECT MAX(CAST(SUBSTRING(slot_number FROM 2) AS INTEGER))
		FROM parking_slots
		WHERE slot_number ~ '^S[0-9]+$'`
	if err := r.DB.QueryRow(query).Scan(&max); err != nil {
		return 0, fmt.Errorf("error querying max slot number: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *SlotRepository) Search(search entities.SlotSearch) ([]db.ParkingSlot, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if search.Query != "" {
		where += ` AND slot_number ILIKE $` + strconv.Itoa(idx)
		args = append(args, "%"+search.Query+"%")
		idx++
	}
	if search.VehicleType != "" {
		where += ` AND vehicle_type = $` + strconv.Itoa(idx)
		args = append(args, search.VehicleType)
		idx++
	}
	if search.Size != "" {
		where += ` AND size = $` + strconv.Itoa(idx)
		args = append(args, search.Size)
		idx++
	}
	if search.Location != "" {
		where += ` AND location = $` + strconv.Itoa(idx)
		args = append(args, search.Location)
		idx++
	}
	if search.Status != "" {
		where += ` AND status = $` + strconv.Itoa(idx)
		args = append(args, search.Status)
		idx++
	}

	var total int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM parking_slots`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting slots: %w", err)
	}

	query := `SELECT ` + slotColumns + ` FROM parking_slots` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, search.Limit, (search.Page-1)*search.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching slots: %w", err)
	}
	defer rows.Close()

	var slots []db.ParkingSlot
	for rows.Next() {
		var s db.ParkingSlot
		if err := rows.Scan(&s.ID, &s.SlotNumber, &s.VehicleType, &s.Size, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, total, rows.Err()
}

// HasActiveReservation reports whether any PENDING or APPROVED reservation
// references the slot.
func (r *SlotRepository) HasActiveReservation(id string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE slot_id = $1 AND status IN ($2, $3)
		)`
	if err := r.DB.QueryRow(query, id, db.StatusPending, db.StatusApproved).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking slot reservations: %w", err)
	}
	return exists, nil
}
