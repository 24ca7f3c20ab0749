package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
)

type fakeClient struct {
	channel string
	payload []byte
	err     error
	closed  bool
}

func (f *fakeClient) Publish(_ context.Context, channel string, message any) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return goredis.NewIntResult(1, f.err)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestPublishRoute(t *testing.T) {
	fc := &fakeClient{}
	cfg := Config{}
	cfg.SetDefaults()
	p := newRoutePublisher(fc, cfg)

	msg := coremqtt.RouteMessage{CycleID: "c1", VehicleID: 12, Stops: []coremqtt.StopMessage{{RequestID: 3, Kind: "pickup"}}}
	if err := p.PublishRoute(msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fc.channel != "vehicles:12:route" {
		t.Fatalf("unexpected channel %q", fc.channel)
	}
	var got coremqtt.RouteMessage
	if err := json.Unmarshal(fc.payload, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CycleID != "c1" || len(got.Stops) != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if err := p.Close(); err != nil || !fc.closed {
		t.Fatal("client not closed")
	}
}

func TestPublishRouteError(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	cfg := Config{ChannelPrefix: "fleet/"}
	cfg.SetDefaults()
	p := newRoutePublisher(fc, cfg)
	err := p.PublishRoute(coremqtt.RouteMessage{VehicleID: 2})
	if !errors.Is(err, coremqtt.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if fc.channel != "fleet/2:route" {
		t.Fatalf("unexpected channel %q", fc.channel)
	}
}

func TestNewRoutePublisher(t *testing.T) {
	if _, err := NewRoutePublisher(Config{URL: "://bad"}); err == nil {
		t.Fatal("expected url error")
	}
	p, err := NewRoutePublisher(Config{URL: "redis://localhost:6379/0"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Channel(5) != "vehicles:5:route" {
		t.Fatalf("unexpected channel %q", p.Channel(5))
	}
	_ = p.Close()
}
