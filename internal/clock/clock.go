package clock

import "time"

// Service abstracts time so lease expiry can be tested deterministically.
type Service interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Service {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

type TimeSetterFn func(time.Time)

type mockService struct {
	now time.Time
}

func (m *mockService) Now() time.Time {
	return m.now
}

func NewMockService(now time.Time) (Service, TimeSetterFn) {
	service := mockService{
		now: now,
	}
	return &service, func(t time.Time) {
		service.now = t
	}
}
