package mqtt

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/ridepool/core/events"
	"github.com/kilianp07/ridepool/core/model"
	coremon "github.com/kilianp07/ridepool/core/monitoring"
	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover(any)         {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishRouteErrorCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	prev := coremon.Init(mon)
	defer coremon.Init(prev)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	err = pub.PublishRoute(coremqtt.RouteMessage{CycleID: "c1", VehicleID: 9})
	if !errors.Is(err, coremqtt.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["vehicle_id"] != "9" || mon.tags["module"] != "mqtt" || mon.tags["cycle_id"] != "c1" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestStartRouteForwarder(t *testing.T) {
	bus := eventbus.New()
	pub := NewMockPublisher()
	pub.FailIDs[2] = true
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRouteForwarder(ctx, bus, pub, logger.NopLogger{})

	route := model.Route{Stops: []model.Stop{{RequestID: 1, Kind: model.Pickup}, {RequestID: 1, Kind: model.Dropoff}}}
	bus.Publish(events.CycleEvent{CycleID: "c1"})
	bus.Publish(events.RouteEvent{CycleID: "c1", VehicleID: 2, Route: route})
	bus.Publish(events.RouteEvent{CycleID: "c1", VehicleID: 1, Route: route})

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := pub.Last(1); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("route not forwarded")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
	bus.Close()

	msg, _ := pub.Last(1)
	if msg.CycleID != "c1" || len(msg.Stops) != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if _, ok := pub.Last(2); ok {
		t.Fatal("failing vehicle should have no message")
	}
}
