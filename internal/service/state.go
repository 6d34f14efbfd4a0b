package service

import "parkeo/internal/db"

// allowedTransitions is the reservation state machine as a directed graph.
// PENDING is the only initial state, REJECTED and EXPIRED are terminal, and
// APPROVED only leaves through expiration.
var allowedTransitions = map[db.ReservationStatus][]db.ReservationStatus{
	db.StatusPending:  {db.StatusApproved, db.StatusRejected},
	db.StatusApproved: {db.StatusExpired},
	db.StatusRejected: {},
	db.StatusExpired:  {},
}

// CanTransition reports whether from -> to is an allowed reservation status
// change.
func CanTransition(from, to db.ReservationStatus) bool {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
