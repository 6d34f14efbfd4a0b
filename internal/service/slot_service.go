package service

import (
	"fmt"

	"github.com/google/uuid"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

// SlotAdminStore is the registry surface used for slot administration, on top
// of the allocation contract.
type SlotAdminStore interface {
	SlotRegistry
	Create(s *db.ParkingSlot) error
	Update(s *db.ParkingSlot) error
	Delete(id string) error
	Count() (int64, error)
	MaxSlotNumber() (int, error)
	Search(search entities.SlotSearch) ([]db.ParkingSlot, int64, error)
	ListAvailable(vehicleType db.VehicleType, size db.VehicleSize) ([]db.ParkingSlot, error)
	HasActiveReservation(id string) (bool, error)
}

type SlotService struct {
	slots SlotAdminStore
}

func NewSlotService(slots SlotAdminStore) *SlotService {
	return &SlotService{slots: slots}
}

func (s *SlotService) CreateSlot(req entities.CreateSlotRequest) (*db.ParkingSlot, error) {
	if req.SlotNumber == "" {
		return nil, errs.InvalidArgument("slot_number is required")
	}
	if err := validateCapability(req.VehicleType, req.Size); err != nil {
		return nil, err
	}
	if !db.ValidLocation(req.Location) {
		return nil, errs.InvalidArgument("invalid location %q", req.Location)
	}

	slot := &db.ParkingSlot{
		ID:          uuid.NewString(),
		SlotNumber:  req.SlotNumber,
		VehicleType: req.VehicleType,
		Size:        req.Size,
		Location:    req.Location,
		Status:      db.SlotAvailable,
	}
	if err := s.slots.Create(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// BulkCreateSlots generates count slots continuing the S-prefixed sequence
// from the highest existing number (S001, S002, ...).
func (s *SlotService) BulkCreateSlots(req entities.BulkCreateSlotsRequest) ([]db.ParkingSlot, error) {
	if req.Count < 1 || req.Count > 500 {
		return nil, errs.InvalidArgument("count must be between 1 and 500")
	}
	if err := validateCapability(req.VehicleType, req.Size); err != nil {
		return nil, err
	}
	if !db.ValidLocation(req.Location) {
		return nil, errs.InvalidArgument("invalid location %q", req.Location)
	}

	last, err := s.slots.MaxSlotNumber()
	if err != nil {
		return nil, err
	}

	slots := make([]db.ParkingSlot, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		slot := db.ParkingSlot{
			ID:          uuid.NewString(),
			SlotNumber:  fmt.Sprintf("S%03d", last+i),
			VehicleType: req.VehicleType,
			Size:        req.Size,
			Location:    req.Location,
			Status:      db.SlotAvailable,
		}
		if err := s.slots.Create(&slot); err != nil {
			return nil, fmt.Errorf("bulk create stopped at %s: %w", slot.SlotNumber, err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *SlotService) GetSlot(id string) (*db.ParkingSlot, error) {
	slot, err := s.slots.GetByID(id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, errs.NotFound("slot not found")
	}
	return slot, nil
}

// UpdateSlot changes a slot's number, capability or location. Capability
// edits are refused while an active reservation holds the slot, so an
// approved match can never be silently invalidated.
func (s *SlotService) UpdateSlot(id string, req entities.UpdateSlotRequest) (*db.ParkingSlot, error) {
	slot, err := s.GetSlot(id)
	if err != nil {
		return nil, err
	}
	if req.SlotNumber == "" {
		return nil, errs.InvalidArgument("slot_number is required")
	}
	if err := validateCapability(req.VehicleType, req.Size); err != nil {
		return nil, err
	}
	if !db.ValidLocation(req.Location) {
		return nil, errs.InvalidArgument("invalid location %q", req.Location)
	}

	capabilityChanged := slot.VehicleType != req.VehicleType || slot.Size != req.Size
	if capabilityChanged && slot.Status == db.SlotUnavailable {
		held, err := s.slots.HasActiveReservation(slot.ID)
		if err != nil {
			return nil, err
		}
		if held {
			return nil, errs.Conflict("slot is held by an active reservation")
		}
	}

	slot.SlotNumber = req.SlotNumber
	slot.VehicleType = req.VehicleType
	slot.Size = req.Size
	slot.Location = req.Location
	if err := s.slots.Update(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *SlotService) DeleteSlot(id string) error {
	if _, err := s.GetSlot(id); err != nil {
		return err
	}
	return s.slots.Delete(id)
}

func (s *SlotService) SearchSlots(search entities.SlotSearch) ([]db.ParkingSlot, entities.PageMeta, error) {
	if search.Page < 1 {
		search.Page = 1
	}
	if search.Limit < 1 || search.Limit > 100 {
		search.Limit = 10
	}
	slots, total, err := s.slots.Search(search)
	if err != nil {
		return nil, entities.PageMeta{}, err
	}
	return slots, entities.NewPageMeta(search.Page, search.Limit, total), nil
}

// AvailableSlots lists AVAILABLE slots matching a capability pair, for users
// checking capacity before requesting a reservation.
func (s *SlotService) AvailableSlots(vehicleType db.VehicleType, size db.VehicleSize) ([]db.ParkingSlot, error) {
	if err := validateCapability(vehicleType, size); err != nil {
		return nil, err
	}
	return s.slots.ListAvailable(vehicleType, size)
}

func (s *SlotService) CountSlots() (int64, error) {
	return s.slots.Count()
}

func validateCapability(vehicleType db.VehicleType, size db.VehicleSize) error {
	if !db.ValidVehicleType(vehicleType) {
		return errs.InvalidArgument("invalid vehicle type %q", vehicleType)
	}
	if !db.ValidVehicleSize(size) {
		return errs.InvalidArgument("invalid vehicle size %q", size)
	}
	return nil
}
