package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/ridepool/core/events"
	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

// Publisher mirrors the core route publisher interface.
type Publisher = coremqtt.RoutePublisher

// MockPublisher records routes in memory. It is used in tests and when no
// broker is configured.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[int64]coremqtt.RouteMessage
	FailIDs  map[int64]bool
	Count    int
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages: make(map[int64]coremqtt.RouteMessage),
		FailIDs:  make(map[int64]bool),
	}
}

// PublishRoute stores the message or returns an error if configured to fail.
func (m *MockPublisher) PublishRoute(msg coremqtt.RouteMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[msg.VehicleID] {
		return fmt.Errorf("%w: vehicle %d", coremqtt.ErrPublish, msg.VehicleID)
	}
	m.Messages[msg.VehicleID] = msg
	m.Count++
	return nil
}

// Last returns the latest route sent to a vehicle.
func (m *MockPublisher) Last(vehicleID int64) (coremqtt.RouteMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[vehicleID]
	return msg, ok
}

// Published returns how many routes were accepted.
func (m *MockPublisher) Published() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}

// StartRouteForwarder publishes every RouteEvent seen on the bus. It stops
// when ctx is canceled or the bus closes; the returned channel is closed
// once it has stopped.
func StartRouteForwarder(ctx context.Context, bus eventbus.EventBus, pub Publisher, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				re, ok := ev.(events.RouteEvent)
				if !ok {
					continue
				}
				msg := coremqtt.NewRouteMessage(re.CycleID, re.VehicleID, re.Route, time.Now())
				if err := pub.PublishRoute(msg); err != nil {
					log.Errorf("route for vehicle %d: %v", re.VehicleID, err)
				}
			}
		}
	}()
	return done
}
