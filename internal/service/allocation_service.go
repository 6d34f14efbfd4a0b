package service

import (
	"log"
	"time"

	"github.com/google/uuid"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

const (
	// ApprovalTTL is how long an approved reservation holds its slot.
	ApprovalTTL = 24 * time.Hour

	DefaultRejectionReason = "Reservation rejected. Please try again later."
)

// SlotRegistry is the slot-status contract the engine allocates against.
// MarkUnavailable must be a compare-and-swap: it fails with a Conflict when
// the slot is not AVAILABLE at the moment of the attempt.
type SlotRegistry interface {
	GetByID(id string) (*db.ParkingSlot, error)
	FindMatchingAvailable(vehicleType db.VehicleType, size db.VehicleSize) (*db.ParkingSlot, error)
	MarkUnavailable(id string) error
	MarkAvailable(id string) error
}

type ReservationStore interface {
	Create(res *db.Reservation) error
	GetByID(id string) (*db.Reservation, error)
	FindActiveByVehicle(vehicleID string) (*db.Reservation, error)
	SetApproved(id, slotID string, expiration time.Time) error
	SetRejected(id string) error
	ExpireAndRelease(id string) (bool, error)
	Delete(id string) error
	ListByUser(userID string) ([]db.Reservation, error)
	Search(search entities.ReservationSearch) ([]db.Reservation, int64, error)
	FindApprovedPastExpiration(now time.Time) ([]string, error)
}

type VehicleStore interface {
	GetByID(id string) (*db.Vehicle, error)
}

type UserStore interface {
	GetByID(id string) (*db.User, error)
}

// AllocationService drives the reservation lifecycle: create, approve (with
// automatic or manual slot assignment), reject, expire, cancel.
type AllocationService struct {
	slots        SlotRegistry
	reservations ReservationStore
	vehicles     VehicleStore
	users        UserStore
	notifier     Notifier
	now          func() time.Time
}

func NewAllocationService(slots SlotRegistry, reservations ReservationStore, vehicles VehicleStore, users UserStore, notifier Notifier) *AllocationService {
	return &AllocationService{
		slots:        slots,
		reservations: reservations,
		vehicles:     vehicles,
		users:        users,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Create inserts a PENDING reservation for one of the caller's vehicles. The
// vehicle must not already have an active (PENDING or APPROVED) reservation.
func (s *AllocationService) Create(userID, vehicleID string) (*db.Reservation, error) {
	vehicle, err := s.vehicles.GetByID(vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, errs.NotFound("vehicle not found")
	}
	if vehicle.UserID != userID {
		return nil, errs.Forbidden("vehicle does not belong to you")
	}

	existing, err := s.reservations.FindActiveByVehicle(vehicleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("active reservation exists (status: %s)", existing.Status)
	}

	res := &db.Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		VehicleID: vehicleID,
		Status:    db.StatusPending,
	}
	if err := s.reservations.Create(res); err != nil {
		return nil, err
	}
	return res, nil
}

// ApproveAutomatically finds a slot matching the reservation's vehicle
// capability and claims it. A claim lost to a concurrent approval is retried
// once against a fresh search; after that the caller gets NoCapacity and the
// reservation stays PENDING.
func (s *AllocationService) ApproveAutomatically(reservationID string) (*db.Reservation, error) {
	res, err := s.mustGet(reservationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, db.StatusApproved) {
		return nil, errs.InvalidState("cannot approve reservation in status %s", res.Status)
	}

	vehicle, err := s.vehicles.GetByID(res.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, errs.NotFound("vehicle not found")
	}

	var slot *db.ParkingSlot
	for attempt := 0; attempt < 2; attempt++ {
		candidate, err := s.slots.FindMatchingAvailable(vehicle.VehicleType, vehicle.Size)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, errs.NoCapacity("no available slot matches vehicle requirements")
		}
		claimErr := s.slots.MarkUnavailable(candidate.ID)
		if claimErr == nil {
			slot = candidate
			break
		}
		if errs.KindOf(claimErr) == errs.KindConflict {
			// Lost the claim to a concurrent approval; search again.
			continue
		}
		return nil, claimErr
	}
	if slot == nil {
		return nil, errs.NoCapacity("no available slot matches vehicle requirements")
	}

	if err := s.approve(res, slot); err != nil {
		return nil, err
	}
	s.notifyApproved(res, vehicle, slot)
	return res, nil
}

// AssignSlotManually approves a PENDING reservation against an explicit slot.
// The slot's capability must equal the vehicle's exactly.
func (s *AllocationService) AssignSlotManually(reservationID, slotID string) (*db.Reservation, error) {
	res, err := s.mustGet(reservationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, db.StatusApproved) {
		return nil, errs.InvalidState("cannot approve reservation in status %s", res.Status)
	}

	slot, err := s.slots.GetByID(slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, errs.NotFound("slot not found")
	}
	if slot.Status != db.SlotAvailable {
		return nil, errs.InvalidState("slot %s is not available", slot.SlotNumber)
	}

	vehicle, err := s.vehicles.GetByID(res.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, errs.NotFound("vehicle not found")
	}
	if slot.VehicleType != vehicle.VehicleType || slot.Size != vehicle.Size {
		return nil, errs.CapabilityMismatch("slot %s does not match vehicle requirements", slot.SlotNumber)
	}

	if err := s.slots.MarkUnavailable(slot.ID); err != nil {
		if errs.KindOf(err) == errs.KindConflict {
			return nil, errs.InvalidState("slot %s is not available", slot.SlotNumber)
		}
		return nil, err
	}

	if err := s.approve(res, slot); err != nil {
		return nil, err
	}
	s.notifyApproved(res, vehicle, slot)
	return res, nil
}

// approve persists the APPROVED transition after the slot has been claimed.
// If the persist fails the claim is rolled back so no partial state remains.
func (s *AllocationService) approve(res *db.Reservation, slot *db.ParkingSlot) error {
	expiration := s.now().Add(ApprovalTTL)
	if err := s.reservations.SetApproved(res.ID, slot.ID, expiration); err != nil {
		if relErr := s.slots.MarkAvailable(slot.ID); relErr != nil {
			log.Printf("failed to release slot %s after aborted approval of %s: %v", slot.ID, res.ID, relErr)
		}
		return err
	}
	res.Status = db.StatusApproved
	res.SlotID = toNullString(slot.ID)
	res.Expiration = toNullTime(expiration)
	return nil
}

// Reject moves a PENDING reservation to REJECTED. No slot is touched.
func (s *AllocationService) Reject(reservationID, reason string) (*db.Reservation, error) {
	res, err := s.mustGet(reservationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, db.StatusRejected) {
		return nil, errs.InvalidState("cannot reject reservation in status %s", res.Status)
	}

	if err := s.reservations.SetRejected(res.ID); err != nil {
		return nil, err
	}
	res.Status = db.StatusRejected

	if reason == "" {
		reason = DefaultRejectionReason
	}
	s.notifyRejected(res, reason)
	return res, nil
}

// ExpireIfDue moves an APPROVED reservation past its deadline to EXPIRED and
// returns its slot to the pool. The status flip and the release are one store
// transaction, so concurrent callers are harmless and a reservation that is
// already EXPIRED, REJECTED or PENDING is returned without touching any slot.
func (s *AllocationService) ExpireIfDue(reservationID string) (*db.Reservation, error) {
	res, err := s.mustGet(reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != db.StatusApproved {
		return res, nil
	}
	if !res.Expiration.Valid || s.now().Before(res.Expiration.Time) {
		return res, nil
	}

	if _, err := s.reservations.ExpireAndRelease(res.ID); err != nil {
		return nil, err
	}
	res.Status = db.StatusExpired
	return res, nil
}

// ExpireDue expires every APPROVED reservation past its deadline. Used by the
// periodic sweep; individual failures are logged and do not stop the batch.
func (s *AllocationService) ExpireDue() (int, error) {
	ids, err := s.reservations.FindApprovedPastExpiration(s.now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if _, err := s.ExpireIfDue(id); err != nil {
			log.Printf("failed to expire reservation %s: %v", id, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// Cancel deletes one of the caller's reservations. Only PENDING and REJECTED
// reservations can be cancelled; an APPROVED one leaves via expiration.
func (s *AllocationService) Cancel(userID, reservationID string) error {
	res, err := s.reservations.GetByID(reservationID)
	if err != nil {
		return err
	}
	if res == nil || res.UserID != userID {
		return errs.Forbidden("reservation not found or unauthorized")
	}
	if res.Status != db.StatusPending && res.Status != db.StatusRejected {
		return errs.InvalidState("only pending or rejected reservations can be cancelled")
	}
	return s.reservations.Delete(res.ID)
}

// GetForUser returns one of the caller's reservations, expiring it on read if
// its deadline has elapsed. Ownership is checked before the expiration side
// effect so a stranger's read never mutates anything.
func (s *AllocationService) GetForUser(userID, reservationID string) (*db.Reservation, error) {
	res, err := s.mustGet(reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, errs.Forbidden("reservation does not belong to you")
	}
	return s.ExpireIfDue(reservationID)
}

func (s *AllocationService) ListByUser(userID string) ([]db.Reservation, error) {
	return s.reservations.ListByUser(userID)
}

func (s *AllocationService) Search(search entities.ReservationSearch) ([]db.Reservation, int64, error) {
	if search.Page < 1 {
		search.Page = 1
	}
	if search.Limit < 1 || search.Limit > 100 {
		search.Limit = 10
	}
	return s.reservations.Search(search)
}

func (s *AllocationService) mustGet(reservationID string) (*db.Reservation, error) {
	res, err := s.reservations.GetByID(reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errs.NotFound("reservation not found")
	}
	return res, nil
}

// Notification is best-effort: a failed send never rolls back or fails the
// state change.
func (s *AllocationService) notifyApproved(res *db.Reservation, vehicle *db.Vehicle, slot *db.ParkingSlot) {
	user, err := s.users.GetByID(res.UserID)
	if err != nil || user == nil {
		log.Printf("skipping approval notification for reservation %s: user lookup failed: %v", res.ID, err)
		return
	}
	if err := s.notifier.NotifyApproved(user.Email, user.Phone, slot.SlotNumber, vehicle, slot.Location, res.Expiration.Time); err != nil {
		log.Printf("approval notification for reservation %s failed: %v", res.ID, err)
	}
}

func (s *AllocationService) notifyRejected(res *db.Reservation, reason string) {
	user, err := s.users.GetByID(res.UserID)
	if err != nil || user == nil {
		log.Printf("skipping rejection notification for reservation %s: user lookup failed: %v", res.ID, err)
		return
	}
	vehicle, err := s.vehicles.GetByID(res.VehicleID)
	if err != nil || vehicle == nil {
		log.Printf("skipping rejection notification for reservation %s: vehicle lookup failed: %v", res.ID, err)
		return
	}
	if err := s.notifier.NotifyRejected(user.Email, user.Phone, vehicle, reason); err != nil {
		log.Printf("rejection notification for reservation %s failed: %v", res.ID, err)
	}
}
