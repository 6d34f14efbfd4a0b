package service

import "log"

// JobService runs the periodic maintenance work scheduled from main.
type JobService struct {
	engine *AllocationService
}

func NewJobService(engine *AllocationService) *JobService {
	return &JobService{engine: engine}
}

// ExpireDueReservations releases the slots of all approved reservations past
// their deadline. Idempotent; overlapping runs are harmless.
func (s *JobService) ExpireDueReservations() {
	expired, err := s.engine.ExpireDue()
	if err != nil {
		log.Printf("Cron Job: expiration sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Cron Job: expired %d reservations and released their slots", expired)
	}
}
