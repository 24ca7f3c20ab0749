package mqtt

import (
	"context"

	"golang.org/x/time/rate"

	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
)

// throttled spaces out route publications with a token bucket.
type throttled struct {
	pub     Publisher
	limiter *rate.Limiter
}

// Throttle limits pub to perSecond routes with the given burst. A
// non-positive rate returns pub unchanged.
func Throttle(pub Publisher, perSecond float64, burst int) Publisher {
	if perSecond <= 0 {
		return pub
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{pub: pub, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *throttled) PublishRoute(msg coremqtt.RouteMessage) error {
	if err := t.limiter.Wait(context.Background()); err != nil {
		return err
	}
	return t.pub.PublishRoute(msg)
}
