package session

import (
	"context"
	"time"

	"github.com/dukerupert/fieldtrack/internal/geo"
	"github.com/dukerupert/fieldtrack/internal/metrics"
)

// startTracking requests an initial fix and opens the watch stream. Both
// run off the loop until the session finishes.
func (c *Controller) startTracking() {
	ctx := c.ctx
	c.spawn(func() {
		fixCtx, cancel := context.WithTimeout(ctx, c.cfg.FixTimeout)
		fix, err := c.source.Current(fixCtx)
		cancel()
		c.post(func() {
			if err != nil {
				c.onFixError(err)
				return
			}
			c.onFix(fix, true)
		})
	})
	c.spawn(func() {
		for r := range c.source.Watch(ctx) {
			if r.Err != nil {
				c.PositionError(r.Err)
				continue
			}
			c.Position(r.Fix)
		}
	})
}

// Position delivers a watch fix to the loop.
func (c *Controller) Position(fix geo.Fix) {
	c.post(func() { c.onFix(fix, false) })
}

// PositionError delivers a watch failure to the loop.
func (c *Controller) PositionError(err error) {
	c.post(func() { c.onFixError(err) })
}

func (c *Controller) onFix(fix geo.Fix, initial bool) {
	if c.s.terminated {
		return
	}
	metrics.GPSFixesTotal.Inc()
	c.s.setFix(fix.Lat, fix.Lon)

	if c.s.Outage == nil && c.network.Online() {
		c.setStatus("Connected and Tracking", IndicatorConnected)
	}
	if initial {
		c.showAlert(AlertSuccess, "GPS location acquired successfully", 3*time.Second)
	}
	if !c.s.fixSignaled {
		c.s.fixSignaled = true
		c.logger.Info("first gps fix", "lat", fix.Lat, "lon", fix.Lon, "initial", initial)
		c.recordAttendance()
	}
	c.publish()
}

func (c *Controller) onFixError(err error) {
	if c.s.terminated {
		return
	}
	ge := geo.Classify(err)
	metrics.GPSErrorsTotal.WithLabelValues(string(ge.Code)).Inc()
	c.logger.Warn("gps error", "code", ge.Code, "error", err)

	c.showAlert(AlertWarning, "GPS Error: "+ge.Message(), 0)
	c.setStatus("GPS Weak", IndicatorWarning)
	c.publish()
}
