package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

const reservationColumns = `id, user_id, vehicle_id, slot_id, status, expiration, created_at, updated_at`

func scanReservation(row *sql.Row) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.VehicleID, &res.SlotID, &res.Status, &res.Expiration, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) Create(res *db.Reservation) error {
	query := `
		INSERT INTO reservations (id, user_id, vehicle_id, slot_id, status, expiration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.DB.QueryRow(query, res.ID, res.UserID, res.VehicleID, res.SlotID, res.Status, res.Expiration).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// ux_reservations_active_vehicle: lost a create race for the same vehicle.
			return errs.Conflict("active reservation exists for vehicle %s", res.VehicleID)
		}
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(id string) (*db.Reservation, error) {
	res, err := scanReservation(r.DB.QueryRow(`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying reservation: %w", err)
	}
	return res, nil
}

// FindActiveByVehicle returns the vehicle's PENDING or APPROVED reservation,
// or nil when the vehicle has none.
func (r *ReservationRepository) FindActiveByVehicle(vehicleID string) (*db.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE vehicle_id = $1 AND status IN ($2, $3)
		LIMIT 1`
	res, err := scanReservation(r.DB.QueryRow(query, vehicleID, db.StatusPending, db.StatusApproved))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying active reservation: %w", err)
	}
	return res, nil
}

// SetApproved stamps the reservation APPROVED with its slot and expiration.
// The status guard keeps a concurrent reject/approve from being overwritten.
func (r *ReservationRepository) SetApproved(id, slotID string, expiration time.Time) error {
	result, err := r.DB.Exec(
		`UPDATE reservations SET status = $1, slot_id = $2, expiration = $3, updated_at = NOW() WHERE id = $4 AND status = $5`,
		db.StatusApproved, slotID, expiration, id, db.StatusPending,
	)
	if err != nil {
		return errs.Unavailable(err, "error approving reservation %s", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Unavailable(err, "error approving reservation %s", id)
	}
	if affected == 0 {
		return errs.InvalidState("reservation %s is no longer pending", id)
	}
	return nil
}

func (r *ReservationRepository) SetRejected(id string) error {
	result, err := r.DB.Exec(
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		db.StatusRejected, id, db.StatusPending,
	)
	if err != nil {
		return errs.Unavailable(err, "error rejecting reservation %s", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Unavailable(err, "error rejecting reservation %s", id)
	}
	if affected == 0 {
		return errs.InvalidState("reservation %s is no longer pending", id)
	}
	return nil
}

// ExpireAndRelease flips an APPROVED reservation to EXPIRED and returns its
// slot to AVAILABLE in a single transaction, so no caller can ever observe the
// reservation expired while the slot is still held, and a crash leaves no
// stranded slot behind. The status guard makes concurrent sweeps idempotent:
// the loser updates zero rows and reports false without touching the slot.
func (r *ReservationRepository) ExpireAndRelease(id string) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, errs.Unavailable(err, "error expiring reservation %s", id)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		db.StatusExpired, id, db.StatusApproved,
	)
	if err != nil {
		return false, errs.Unavailable(err, "error expiring reservation %s", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errs.Unavailable(err, "error expiring reservation %s", id)
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.Exec(
		`UPDATE parking_slots SET status = $1, updated_at = NOW()
		 WHERE id = (SELECT slot_id FROM reservations WHERE id = $2)`,
		db.SlotAvailable, id,
	)
	if err != nil {
		return false, errs.Unavailable(err, "error releasing slot of reservation %s", id)
	}
	if err := tx.Commit(); err != nil {
		return false, errs.Unavailable(err, "error expiring reservation %s", id)
	}
	return true, nil
}

func (r *ReservationRepository) Delete(id string) error {
	result, err := r.DB.Exec(`DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting reservation: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("reservation not found")
	}
	return nil
}

func (r *ReservationRepository) ListByUser(userID string) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepository) Search(search entities.ReservationSearch) ([]db.Reservation, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if search.Status != "" {
		where += ` AND r.status = $` + strconv.Itoa(idx)
		args = append(args, search.Status)
		idx++
	}
	if search.VehicleType != "" {
		where += ` AND v.vehicle_type = $` + strconv.Itoa(idx)
		args = append(args, search.VehicleType)
		idx++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM reservations r JOIN vehicles v ON v.id = r.vehicle_id` + where
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting reservations: %w", err)
	}

	query := `
		SELECT r.id, r.user_id, r.vehicle_id, r.slot_id, r.status, r.expiration, r.created_at, r.updated_at
		FROM reservations r
		JOIN vehicles v ON v.id = r.vehicle_id` + where +
		` ORDER BY r.created_at DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, search.Limit, (search.Page-1)*search.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching reservations: %w", err)
	}
	defer rows.Close()

	reservations, err := collectReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// FindApprovedPastExpiration returns ids of APPROVED reservations whose
// deadline has elapsed, oldest first.
func (r *ReservationRepository) FindApprovedPastExpiration(now time.Time) ([]string, error) {
	query := `
		SELECT id FROM reservations
		WHERE status = $1 AND expiration IS NOT NULL AND expiration <= $2
		ORDER BY expiration`
	rows, err := r.DB.Query(query, db.StatusApproved, now)
	if err != nil {
		return nil, fmt.Errorf("error querying expired reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectReservations(rows *sql.Rows) ([]db.Reservation, error) {
	var reservations []db.Reservation
	for rows.Next() {
		var res db.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.VehicleID, &res.SlotID, &res.Status, &res.Expiration, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
