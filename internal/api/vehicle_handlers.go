package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parkeo/internal/auth"
	"parkeo/internal/entities"
	"parkeo/internal/service"
)

type VehicleHandler struct {
	Service *service.VehicleService
}

func NewVehicleHandler(svc *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{Service: svc}
}

func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.CreateVehicle(auth.UserID(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entities.NewVehicleResponse(vehicle))
}

func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.Service.GetVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewVehicleResponse(vehicle))
}

func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Service.ListVehicles(auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]entities.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		resp = append(resp, entities.NewVehicleResponse(&vehicles[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.UpdateVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewVehicleResponse(vehicle))
}

func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted"})
}
