package service

import (
	"github.com/google/uuid"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

type VehicleAdminStore interface {
	Create(v *db.Vehicle) error
	GetByID(id string) (*db.Vehicle, error)
	ListByUser(userID string) ([]db.Vehicle, error)
	Search(plate string, page, limit int) ([]db.Vehicle, int64, error)
	Update(v *db.Vehicle) error
	Delete(id string) error
	HasReservations(id string) (bool, error)
}

type activeReservationFinder interface {
	FindActiveByVehicle(vehicleID string) (*db.Reservation, error)
}

type VehicleService struct {
	vehicles     VehicleAdminStore
	reservations activeReservationFinder
}

func NewVehicleService(vehicles VehicleAdminStore, reservations activeReservationFinder) *VehicleService {
	return &VehicleService{vehicles: vehicles, reservations: reservations}
}

func (s *VehicleService) CreateVehicle(userID string, req entities.CreateVehicleRequest) (*db.Vehicle, error) {
	if req.PlateNumber == "" {
		return nil, errs.InvalidArgument("plate_number is required")
	}
	if err := validateCapability(req.VehicleType, req.Size); err != nil {
		return nil, err
	}

	vehicle := &db.Vehicle{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlateNumber: req.PlateNumber,
		VehicleType: req.VehicleType,
		Size:        req.Size,
		Model:       req.Model,
	}
	if err := s.vehicles.Create(vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) GetVehicle(userID, id string) (*db.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, errs.NotFound("vehicle not found")
	}
	if vehicle.UserID != userID {
		return nil, errs.Forbidden("vehicle does not belong to you")
	}
	return vehicle, nil
}

// UpdateVehicle edits a vehicle. Capability changes are refused while the
// vehicle has an active reservation: the slot match was made against the old
// capability and must not be silently desynchronized.
func (s *VehicleService) UpdateVehicle(userID, id string, req entities.UpdateVehicleRequest) (*db.Vehicle, error) {
	vehicle, err := s.GetVehicle(userID, id)
	if err != nil {
		return nil, err
	}
	if req.PlateNumber == "" {
		return nil, errs.InvalidArgument("plate_number is required")
	}
	if err := validateCapability(req.VehicleType, req.Size); err != nil {
		return nil, err
	}

	if vehicle.VehicleType != req.VehicleType || vehicle.Size != req.Size {
		active, err := s.reservations.FindActiveByVehicle(id)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, errs.Conflict("vehicle capability is locked by an active reservation (status: %s)", active.Status)
		}
	}

	vehicle.PlateNumber = req.PlateNumber
	vehicle.VehicleType = req.VehicleType
	vehicle.Size = req.Size
	vehicle.Model = req.Model
	if err := s.vehicles.Update(vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) DeleteVehicle(userID, id string) error {
	if _, err := s.GetVehicle(userID, id); err != nil {
		return err
	}
	referenced, err := s.vehicles.HasReservations(id)
	if err != nil {
		return err
	}
	if referenced {
		return errs.Conflict("vehicle is referenced by reservations")
	}
	return s.vehicles.Delete(id)
}

func (s *VehicleService) ListVehicles(userID string) ([]db.Vehicle, error) {
	return s.vehicles.ListByUser(userID)
}

func (s *VehicleService) SearchVehicles(plate string, page, limit int) ([]db.Vehicle, entities.PageMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	vehicles, total, err := s.vehicles.Search(plate, page, limit)
	if err != nil {
		return nil, entities.PageMeta{}, err
	}
	return vehicles, entities.NewPageMeta(page, limit, total), nil
}
