package db

import (
	"database/sql"
	"time"
)

// Enum values mirror the CHECK constraints in schema.sql.
type (
	VehicleType       string
	VehicleSize       string
	ParkingLocation   string
	SlotStatus        string
	ReservationStatus string
)

const (
	VehicleTypeCar        VehicleType = "CAR"
	VehicleTypeMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTypeTruck      VehicleType = "TRUCK"

	SizeSmall  VehicleSize = "SMALL"
	SizeMedium VehicleSize = "MEDIUM"
	SizeLarge  VehicleSize = "LARGE"

	LocationNorth ParkingLocation = "NORTH"
	LocationSouth ParkingLocation = "SOUTH"
	LocationEast  ParkingLocation = "EAST"
	LocationWest  ParkingLocation = "WEST"

	SlotAvailable   SlotStatus = "AVAILABLE"
	SlotUnavailable SlotStatus = "UNAVAILABLE"

	StatusPending  ReservationStatus = "PENDING"
	StatusApproved ReservationStatus = "APPROVED"
	StatusRejected ReservationStatus = "REJECTED"
	StatusExpired  ReservationStatus = "EXPIRED"
)

func ValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck:
		return true
	}
	return false
}

func ValidVehicleSize(s VehicleSize) bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

func ValidLocation(l ParkingLocation) bool {
	switch l {
	case LocationNorth, LocationSouth, LocationEast, LocationWest:
		return true
	}
	return false
}

type ParkingSlot struct {
	ID          string
	SlotNumber  string
	VehicleType VehicleType
	Size        VehicleSize
	Location    ParkingLocation
	Status      SlotStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Vehicle struct {
	ID          string
	UserID      string
	PlateNumber string
	VehicleType VehicleType
	Size        VehicleSize
	Model       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SlotID and Expiration are set together when a reservation is approved and
// stay null for every other status.
type Reservation struct {
	ID         string
	UserID     string
	VehicleID  string
	SlotID     sql.NullString
	Status     ReservationStatus
	Expiration sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Role         string
	CreatedAt    time.Time
}

const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)
