package session

import (
	"fmt"
	"time"

	"github.com/dukerupert/fieldtrack/internal/metrics"
)

// startNetworkMonitoring begins polling connectivity and accepting change
// events. It runs once per session.
func (c *Controller) startNetworkMonitoring() {
	if c.s.monitoring || c.s.terminated {
		return
	}
	c.s.monitoring = true
	c.timers.poll = c.every(c.cfg.PollInterval, c.checkNetwork)
	c.logger.Debug("network monitoring started")
}

// ConnectivityChanged delivers a connectivity event to the loop.
func (c *Controller) ConnectivityChanged(online bool) {
	c.post(func() {
		if !c.s.monitoring || c.s.terminated {
			return
		}
		if online {
			c.handleOnline()
		} else {
			c.handleOffline()
		}
	})
}

func (c *Controller) checkNetwork() {
	if c.s.terminated {
		return
	}
	online := c.network.Online()
	switch {
	case !online && c.s.Outage == nil:
		c.handleOffline()
	case online && c.s.Outage != nil:
		c.handleOnline()
	}
}

func (c *Controller) handleOffline() {
	if c.s.Outage != nil {
		c.logger.Debug("outage already recorded")
		return
	}
	now := c.clock.Now()
	c.s.Outage = &Outage{Start: now}
	c.s.OutageRemaining = int(c.cfg.GracePeriod / time.Second)
	metrics.NetworkOutages.Inc()
	c.logger.Warn("network connection lost", "at", now)

	c.showAlert(AlertWarning, "Connection lost. Trying to reconnect...", 0)
	c.setStatus("Connection Lost", IndicatorWarning)
	c.timers.countdown = c.every(time.Second, c.countdown)
	c.publish()
}

// downSeconds is the whole seconds the open window has lasted.
func (c *Controller) downSeconds() int {
	return int(c.clock.Now().Sub(c.s.Outage.Start) / time.Second)
}

func (c *Controller) handleOnline() {
	if c.s.Outage == nil {
		c.logger.Debug("no outage in progress")
		return
	}
	down := c.downSeconds()
	metrics.OutageDuration.Observe(float64(down))
	c.logger.Info("network restored", "down_seconds", down)

	if down > int(c.cfg.GracePeriod/time.Second) {
		c.logger.Warn("grace period exceeded")
		c.autoDisconnect()
		return
	}

	c.s.Outage = nil
	c.s.OutageRemaining = 0
	c.timers.countdown.stop()
	c.timers.countdown = nil
	c.showAlert(AlertSuccess, "Connection restored!", 3*time.Second)
	c.setStatus("Connected and Tracking", IndicatorConnected)
	c.publish()
}

func (c *Controller) countdown() {
	if c.s.Outage == nil || c.s.terminated {
		c.timers.countdown.stop()
		return
	}
	remaining := int(c.cfg.GracePeriod/time.Second) - c.downSeconds()
	if remaining <= 0 {
		c.timers.countdown.stop()
		c.s.OutageRemaining = 0
		if !c.network.Online() {
			c.autoDisconnect()
			return
		}
		// Back online at the boundary without an event.
		c.handleOnline()
		return
	}
	c.s.OutageRemaining = remaining
	c.setStatus(fmt.Sprintf("Reconnecting... %ds", remaining), IndicatorWarning)
	c.publish()
}
