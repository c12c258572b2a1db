package health

import "time"

// Service encapsulates health-related checks.
type Service struct {
	Now func() time.Time
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{Now: time.Now}
}

// Status is the liveness payload.
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Status returns the liveness payload stamped with the current UTC time.
func (s *Service) Status() Status {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return Status{Status: "ok", Timestamp: now().UTC().Format(time.RFC3339)}
}
