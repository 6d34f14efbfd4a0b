package entities

import "parkeo/internal/db"

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateVehicleRequest struct {
	PlateNumber string         `json:"plate_number"`
	VehicleType db.VehicleType `json:"vehicle_type"`
	Size        db.VehicleSize `json:"size"`
	Model       string         `json:"model"`
}

type UpdateVehicleRequest struct {
	PlateNumber string         `json:"plate_number"`
	VehicleType db.VehicleType `json:"vehicle_type"`
	Size        db.VehicleSize `json:"size"`
	Model       string         `json:"model"`
}

type CreateReservationRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type RejectReservationRequest struct {
	Reason string `json:"reason"`
}

type CreateSlotRequest struct {
	SlotNumber  string             `json:"slot_number"`
	VehicleType db.VehicleType     `json:"vehicle_type"`
	Size        db.VehicleSize     `json:"size"`
	Location    db.ParkingLocation `json:"location"`
}

type BulkCreateSlotsRequest struct {
	Count       int                `json:"count"`
	VehicleType db.VehicleType     `json:"vehicle_type"`
	Size        db.VehicleSize     `json:"size"`
	Location    db.ParkingLocation `json:"location"`
}

type UpdateSlotRequest struct {
	SlotNumber  string             `json:"slot_number"`
	VehicleType db.VehicleType     `json:"vehicle_type"`
	Size        db.VehicleSize     `json:"size"`
	Location    db.ParkingLocation `json:"location"`
}

// SlotSearch collects the operator listing filters. Zero values mean "no
// filter"; Query matches slot numbers by substring.
type SlotSearch struct {
	Query       string
	VehicleType db.VehicleType
	Size        db.VehicleSize
	Location    db.ParkingLocation
	Status      db.SlotStatus
	Page        int
	Limit       int
}

type ReservationSearch struct {
	Status      db.ReservationStatus
	VehicleType db.VehicleType
	Page        int
	Limit       int
}
