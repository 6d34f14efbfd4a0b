package entities

import (
	"time"

	"parkeo/internal/db"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type SlotResponse struct {
	ID          string             `json:"id"`
	SlotNumber  string             `json:"slot_number"`
	VehicleType db.VehicleType     `json:"vehicle_type"`
	Size        db.VehicleSize     `json:"size"`
	Location    db.ParkingLocation `json:"location"`
	Status      db.SlotStatus      `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
	Meta  PageMeta       `json:"meta"`
}

type VehicleResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	PlateNumber string         `json:"plate_number"`
	VehicleType db.VehicleType `json:"vehicle_type"`
	Size        db.VehicleSize `json:"size"`
	Model       string         `json:"model"`
	CreatedAt   time.Time      `json:"created_at"`
}

type VehicleListResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
	Meta     PageMeta          `json:"meta"`
}

type ReservationResponse struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	VehicleID  string               `json:"vehicle_id"`
	SlotID     string               `json:"slot_id,omitempty"`
	Status     db.ReservationStatus `json:"status"`
	Expiration *time.Time           `json:"expiration,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Meta         PageMeta              `json:"meta"`
}

func NewSlotResponse(s *db.ParkingSlot) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		SlotNumber:  s.SlotNumber,
		VehicleType: s.VehicleType,
		Size:        s.Size,
		Location:    s.Location,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
}

func NewVehicleResponse(v *db.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:          v.ID,
		UserID:      v.UserID,
		PlateNumber: v.PlateNumber,
		VehicleType: v.VehicleType,
		Size:        v.Size,
		Model:       v.Model,
		CreatedAt:   v.CreatedAt,
	}
}

func NewReservationResponse(r *db.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		VehicleID: r.VehicleID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
	if r.SlotID.Valid {
		resp.SlotID = r.SlotID.String
	}
	if r.Expiration.Valid {
		t := r.Expiration.Time
		resp.Expiration = &t
	}
	return resp
}
