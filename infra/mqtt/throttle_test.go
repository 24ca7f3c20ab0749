package mqtt

import (
	"testing"
	"time"

	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
)

func TestThrottle(t *testing.T) {
	mock := NewMockPublisher()
	if Throttle(mock, 0, 0) != Publisher(mock) {
		t.Fatal("zero rate must not wrap the publisher")
	}

	pub := Throttle(mock, 20, 1)
	start := time.Now()
	for i := int64(1); i <= 3; i++ {
		if err := pub.PublishRoute(coremqtt.RouteMessage{VehicleID: i}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	// burst 1 at 20/s: the third route waits for two refills
	if el := time.Since(start); el < 90*time.Millisecond {
		t.Fatalf("publications not spaced: %v", el)
	}
	if mock.Published() != 3 {
		t.Fatalf("expected 3 routes, got %d", mock.Published())
	}
}
