package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parkeo/internal/auth"
	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/service"
)

type ReservationHandler struct {
	Engine *service.AllocationService
	Slots  *service.SlotService
}

func NewReservationHandler(engine *service.AllocationService, slots *service.SlotService) *ReservationHandler {
	return &ReservationHandler{Engine: engine, Slots: slots}
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.Engine.Create(auth.UserID(r.Context()), req.VehicleID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entities.NewReservationResponse(res))
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.GetForUser(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.Engine.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]entities.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		resp = append(resp, entities.NewReservationResponse(&reservations[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Cancel(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

// AvailableSlots lets a user see AVAILABLE slots matching a capability before
// requesting a reservation.
func (h *ReservationHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	vehicleType := db.VehicleType(r.URL.Query().Get("vehicle_type"))
	size := db.VehicleSize(r.URL.Query().Get("size"))
	slots, err := h.Slots.AvailableSlots(vehicleType, size)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]entities.SlotResponse, 0, len(slots))
	for i := range slots {
		resp = append(resp, entities.NewSlotResponse(&slots[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}
