package service

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

// memState is shared in-memory backing for the fake stores. Every mutation is
// guarded by one mutex so the slot claim keeps its compare-and-swap contract
// under concurrent use.
type memState struct {
	mu           sync.Mutex
	slots        map[string]*db.ParkingSlot
	slotOrder    []string
	vehicles     map[string]*db.Vehicle
	reservations map[string]*db.Reservation
	users        map[string]*db.User
	clock        time.Time
}

func newMemState() *memState {
	return &memState{
		slots:        make(map[string]*db.ParkingSlot),
		vehicles:     make(map[string]*db.Vehicle),
		reservations: make(map[string]*db.Reservation),
		users:        make(map[string]*db.User),
		clock:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so creation order is total.
// Callers must hold mu.
func (m *memState) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memState) addUser(email string) *db.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &db.User{ID: uuid.NewString(), Email: email, Role: db.RoleDriver, CreatedAt: m.tick()}
	m.users[u.ID] = u
	return u
}

func (m *memState) addVehicle(userID, plate string, t db.VehicleType, s db.VehicleSize) *db.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := &db.Vehicle{ID: uuid.NewString(), UserID: userID, PlateNumber: plate, VehicleType: t, Size: s, CreatedAt: m.tick()}
	m.vehicles[v.ID] = v
	return v
}

func (m *memState) addSlot(number string, t db.VehicleType, s db.VehicleSize, loc db.ParkingLocation) *db.ParkingSlot {
	slot := &db.ParkingSlot{
		ID:          uuid.NewString(),
		SlotNumber:  number,
		VehicleType: t,
		Size:        s,
		Location:    loc,
		Status:      db.SlotAvailable,
	}
	if err := (&fakeSlots{m}).Create(slot); err != nil {
		panic(err)
	}
	return slot
}

func (m *memState) slotStatus(id string) db.SlotStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id].Status
}

func (m *memState) reservationStatus(id string) db.ReservationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservations[id].Status
}

type fakeSlots struct{ *memState }

func (f *fakeSlots) Create(s *db.ParkingSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.slots {
		if existing.SlotNumber == s.SlotNumber {
			return errs.Conflict("slot number %s already exists", s.SlotNumber)
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = f.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.slots[s.ID] = &cp
	f.slotOrder = append(f.slotOrder, s.ID)
	return nil
}

func (f *fakeSlots) GetByID(id string) (*db.ParkingSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSlots) FindMatchingAvailable(t db.VehicleType, size db.VehicleSize) (*db.ParkingSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.slotOrder {
		s := f.slots[id]
		if s != nil && s.Status == db.SlotAvailable && s.VehicleType == t && s.Size == size {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSlots) ListAvailable(t db.VehicleType, size db.VehicleSize) ([]db.ParkingSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.ParkingSlot
	for _, id := range f.slotOrder {
		s := f.slots[id]
		if s != nil && s.Status == db.SlotAvailable && s.VehicleType == t && s.Size == size {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSlots) MarkUnavailable(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok || s.Status != db.SlotAvailable {
		return errs.Conflict("slot %s is not available", id)
	}
	s.Status = db.SlotUnavailable
	s.UpdatedAt = f.tick()
	return nil
}

func (f *fakeSlots) MarkAvailable(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[id]; ok {
		s.Status = db.SlotAvailable
		s.UpdatedAt = f.tick()
	}
	return nil
}

func (f *fakeSlots) HasActiveReservation(slotID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.SlotID.Valid && r.SlotID.String == slotID &&
			(r.Status == db.StatusPending || r.Status == db.StatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSlots) Update(s *db.ParkingSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.slots[s.ID]
	if !ok {
		return errs.NotFound("slot not found")
	}
	existing.SlotNumber = s.SlotNumber
	existing.VehicleType = s.VehicleType
	existing.Size = s.Size
	existing.Location = s.Location
	existing.UpdatedAt = f.tick()
	return nil
}

func (f *fakeSlots) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.slots[id]; !ok {
		return errs.NotFound("slot not found")
	}
	for _, r := range f.reservations {
		if r.SlotID.Valid && r.SlotID.String == id {
			return errs.Conflict("slot is referenced by reservations")
		}
	}
	delete(f.slots, id)
	for i, sid := range f.slotOrder {
		if sid == id {
			f.slotOrder = append(f.slotOrder[:i], f.slotOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSlots) Count() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.slots)), nil
}

func (f *fakeSlots) MaxSlotNumber() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, s := range f.slots {
		if !strings.HasPrefix(s.SlotNumber, "S") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(s.SlotNumber, "S"))
		if err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeSlots) Search(search entities.SlotSearch) ([]db.ParkingSlot, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []db.ParkingSlot
	for _, id := range f.slotOrder {
		s := f.slots[id]
		if s == nil {
			continue
		}
		if search.Query != "" && !strings.Contains(s.SlotNumber, search.Query) {
			continue
		}
		if search.VehicleType != "" && s.VehicleType != search.VehicleType {
			continue
		}
		if search.Size != "" && s.Size != search.Size {
			continue
		}
		if search.Location != "" && s.Location != search.Location {
			continue
		}
		if search.Status != "" && s.Status != search.Status {
			continue
		}
		matched = append(matched, *s)
	}
	total := int64(len(matched))
	start := (search.Page - 1) * search.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + search.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeReservations struct{ *memState }

func (f *fakeReservations) Create(r *db.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reservations {
		if existing.VehicleID == r.VehicleID &&
			(existing.Status == db.StatusPending || existing.Status == db.StatusApproved) {
			return errs.Conflict("active reservation exists for vehicle %s", r.VehicleID)
		}
	}
	r.CreatedAt = f.tick()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.reservations[r.ID] = &cp
	return nil
}

func (f *fakeReservations) GetByID(id string) (*db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) FindActiveByVehicle(vehicleID string) (*db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.VehicleID == vehicleID &&
			(r.Status == db.StatusPending || r.Status == db.StatusApproved) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReservations) SetApproved(id, slotID string, expiration time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != db.StatusPending {
		return errs.InvalidState("reservation %s is no longer pending", id)
	}
	r.Status = db.StatusApproved
	r.SlotID = toNullString(slotID)
	r.Expiration = toNullTime(expiration)
	r.UpdatedAt = f.tick()
	return nil
}

func (f *fakeReservations) SetRejected(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != db.StatusPending {
		return errs.InvalidState("reservation %s is no longer pending", id)
	}
	r.Status = db.StatusRejected
	r.UpdatedAt = f.tick()
	return nil
}

// ExpireAndRelease mirrors the store transaction: the status flip and the slot
// release happen under one lock, never separately observable.
func (f *fakeReservations) ExpireAndRelease(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != db.StatusApproved {
		return false, nil
	}
	r.Status = db.StatusExpired
	r.UpdatedAt = f.tick()
	if r.SlotID.Valid {
		if s, ok := f.slots[r.SlotID.String]; ok {
			s.Status = db.SlotAvailable
			s.UpdatedAt = r.UpdatedAt
		}
	}
	return true, nil
}

func (f *fakeReservations) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reservations[id]; !ok {
		return errs.NotFound("reservation not found")
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeReservations) ListByUser(userID string) ([]db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Reservation
	for _, r := range f.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReservations) Search(search entities.ReservationSearch) ([]db.Reservation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []db.Reservation
	for _, r := range f.reservations {
		if search.Status != "" && r.Status != search.Status {
			continue
		}
		if search.VehicleType != "" {
			v := f.vehicles[r.VehicleID]
			if v == nil || v.VehicleType != search.VehicleType {
				continue
			}
		}
		matched = append(matched, *r)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeReservations) FindApprovedPastExpiration(now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, r := range f.reservations {
		if r.Status == db.StatusApproved && r.Expiration.Valid && !r.Expiration.Time.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeVehicles struct{ *memState }

func (f *fakeVehicles) Create(v *db.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.vehicles {
		if existing.PlateNumber == v.PlateNumber {
			return errs.Conflict("plate number %s already registered", v.PlateNumber)
		}
	}
	v.CreatedAt = f.tick()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	f.vehicles[v.ID] = &cp
	return nil
}

func (f *fakeVehicles) GetByID(id string) (*db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVehicles) ListByUser(userID string) ([]db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Vehicle
	for _, v := range f.vehicles {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVehicles) Search(plate string, page, limit int) ([]db.Vehicle, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []db.Vehicle
	for _, v := range f.vehicles {
		if plate == "" || strings.Contains(v.PlateNumber, plate) {
			matched = append(matched, *v)
		}
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeVehicles) Update(v *db.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.vehicles[v.ID]
	if !ok {
		return errs.NotFound("vehicle not found")
	}
	existing.PlateNumber = v.PlateNumber
	existing.VehicleType = v.VehicleType
	existing.Size = v.Size
	existing.Model = v.Model
	existing.UpdatedAt = f.tick()
	return nil
}

func (f *fakeVehicles) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[id]; !ok {
		return errs.NotFound("vehicle not found")
	}
	delete(f.vehicles, id)
	return nil
}

func (f *fakeVehicles) HasReservations(vehicleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.VehicleID == vehicleID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUsers struct{ *memState }

func (f *fakeUsers) Create(u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return errs.Conflict("email %s already registered", u.Email)
		}
	}
	u.CreatedAt = f.tick()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeNotifier records notifications for assertions.
type fakeNotifier struct {
	mu       sync.Mutex
	approved []string // slot numbers
	rejected []string // reasons
}

func (n *fakeNotifier) NotifyApproved(email, phone, slotNumber string, vehicle *db.Vehicle, location db.ParkingLocation, expiration time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, slotNumber)
	return nil
}

func (n *fakeNotifier) NotifyRejected(email, phone string, vehicle *db.Vehicle, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, reason)
	return nil
}
