// Package mqtt defines the messages sent to vehicles over the broker.
package mqtt

import (
	"errors"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// ErrPublish is returned when a route could not be delivered to the broker.
var ErrPublish = errors.New("route publish failed")

// StopMessage is one stop of a published route.
type StopMessage struct {
	RequestID int64     `json:"request_id"`
	Location  int64     `json:"location"`
	Kind      string    `json:"kind"`
	Deadline  time.Time `json:"deadline"`
}

// RouteMessage replaces the route of a vehicle.
type RouteMessage struct {
	CycleID   string        `json:"cycle_id"`
	VehicleID int64         `json:"vehicle_id"`
	Stops     []StopMessage `json:"stops"`
	IssuedAt  time.Time     `json:"issued_at"`
}

// NewRouteMessage converts a route into its wire form.
func NewRouteMessage(cycleID string, vehicleID int64, r model.Route, at time.Time) RouteMessage {
	msg := RouteMessage{CycleID: cycleID, VehicleID: vehicleID, IssuedAt: at, Stops: make([]StopMessage, 0, len(r.Stops))}
	for _, s := range r.Stops {
		msg.Stops = append(msg.Stops, StopMessage{
			RequestID: s.RequestID,
			Location:  int64(s.Location),
			Kind:      s.Kind.String(),
			Deadline:  s.Deadline,
		})
	}
	return msg
}

// RoutePublisher delivers routes to vehicles.
type RoutePublisher interface {
	PublishRoute(msg RouteMessage) error
}

// MultiPublisher delivers every route through each of its publishers.
type MultiPublisher []RoutePublisher

// PublishRoute tries every publisher and joins their errors.
func (m MultiPublisher) PublishRoute(msg RouteMessage) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishRoute(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
