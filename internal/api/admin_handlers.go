package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/service"
)

type AdminHandler struct {
	Engine *service.AllocationService
	Slots  *service.SlotService
}

func NewAdminHandler(engine *service.AllocationService, slots *service.SlotService) *AdminHandler {
	return &AdminHandler{Engine: engine, Slots: slots}
}

func (h *AdminHandler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.ApproveAutomatically(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *AdminHandler) RejectReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.RejectReservationRequest
	if r.Body != nil {
		// Body is optional; a missing reason falls back to the default.
		json.NewDecoder(r.Body).Decode(&req)
	}
	res, err := h.Engine.Reject(mux.Vars(r)["id"], req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *AdminHandler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.Engine.AssignSlotManually(vars["id"], vars["slotId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	search := entities.ReservationSearch{
		Status:      db.ReservationStatus(r.URL.Query().Get("status")),
		VehicleType: db.VehicleType(r.URL.Query().Get("vehicle_type")),
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 10),
	}
	reservations, total, err := h.Engine.Search(search)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := entities.ReservationListResponse{
		Reservations: make([]entities.ReservationResponse, 0, len(reservations)),
		Meta:         entities.NewPageMeta(search.Page, search.Limit, total),
	}
	for i := range reservations {
		resp.Reservations = append(resp.Reservations, entities.NewReservationResponse(&reservations[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slot, err := h.Slots.CreateSlot(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entities.NewSlotResponse(slot))
}

func (h *AdminHandler) BulkCreateSlots(w http.ResponseWriter, r *http.Request) {
	var req entities.BulkCreateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slots, err := h.Slots.BulkCreateSlots(req)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]entities.SlotResponse, 0, len(slots))
	for i := range slots {
		resp = append(resp, entities.NewSlotResponse(&slots[i]))
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *AdminHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	search := entities.SlotSearch{
		Query:       r.URL.Query().Get("q"),
		VehicleType: db.VehicleType(r.URL.Query().Get("vehicle_type")),
		Size:        db.VehicleSize(r.URL.Query().Get("size")),
		Location:    db.ParkingLocation(r.URL.Query().Get("location")),
		Status:      db.SlotStatus(r.URL.Query().Get("status")),
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 10),
	}
	slots, meta, err := h.Slots.SearchSlots(search)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := entities.SlotListResponse{
		Slots: make([]entities.SlotResponse, 0, len(slots)),
		Meta:  meta,
	}
	for i := range slots {
		resp.Slots = append(resp.Slots, entities.NewSlotResponse(&slots[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slot, err := h.Slots.UpdateSlot(mux.Vars(r)["id"], req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewSlotResponse(slot))
}

func (h *AdminHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.Slots.DeleteSlot(mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
