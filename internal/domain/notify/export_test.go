package notify

import "time"

func SetNow(s *Service, now time.Time) {
	s.now = func() time.Time { return now }
}
