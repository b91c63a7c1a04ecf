package session

import (
	"context"
	"time"

	"github.com/dukerupert/fieldtrack/internal/metrics"
	"github.com/dukerupert/fieldtrack/internal/model"
)

// terminate claims the single termination path of the session. It
// reports false if another path already ended it.
func (c *Controller) terminate(kind model.LogoutType) bool {
	if c.s.terminated {
		return false
	}
	c.s.terminated = true
	c.stopTimers()
	c.cancel()
	metrics.LogoutReports.WithLabelValues(string(kind)).Inc()
	c.logger.Info("session terminating", "logout_type", kind)
	return true
}

func (c *Controller) logoutRequest(kind model.LogoutType, coords string) model.LogoutRequest {
	return model.LogoutRequest{
		MarketerID:        c.s.Marketer.MarketerID,
		MarketerName:      c.s.Marketer.FullName,
		ShopID:            c.s.Marketer.ShopID,
		LogoutCoordinates: coords,
		LogoutType:        kind,
	}
}

// report sends a logout off the loop and hands the result back.
func (c *Controller) report(req model.LogoutRequest, then func(error)) {
	c.reports.Add(1)
	c.spawn(func() {
		defer c.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		err := c.backend.LogoutMarketer(ctx, req)
		cancel()
		c.post(func() { then(err) })
	})
}

// WaitReports blocks until in-flight logout reports have returned or the
// timeout passes. It reports whether they all returned.
func (c *Controller) WaitReports(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.reports.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// redirect finishes the session after d, or at once when d is zero.
func (c *Controller) redirect(d time.Duration, reason EndReason) {
	c.endReason = reason
	if d <= 0 {
		c.finish(reason)
		return
	}
	c.timers.redirect = c.after(d, func() { c.finish(reason) })
}

// Logout ends the session at the marketer's request. Without confirmation
// nothing happens and ErrNotConfirmed is returned.
func (c *Controller) Logout(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return c.call(ctx, c.logout)
}

func (c *Controller) logout() error {
	if c.s.finished || c.s.terminated {
		return ErrEnded
	}
	c.s.manualLogout = true
	c.terminate(model.LogoutManual)
	c.showAlert(AlertInfo, "Logging out...", 0)
	c.setStatus("Logging out", IndicatorWarning)
	c.publish()

	c.report(c.logoutRequest(model.LogoutManual, c.s.Coords.String()), func(err error) {
		c.clearStorage()
		if err != nil {
			c.logger.Error("manual logout report failed", "error", err)
			c.showAlert(AlertDanger, "Error logging out. Clearing session...", 0)
			c.setStatus("Logged out", IndicatorDanger)
			c.redirect(redirectManualFail, EndManual)
		} else {
			c.showAlert(AlertSuccess, "Logout successful. Redirecting...", 0)
			c.setStatus("Logged out", IndicatorConnected)
			c.redirect(redirectManualOK, EndManual)
		}
		c.publish()
	})
	return nil
}

func (c *Controller) autoDisconnect() {
	if !c.terminate(model.LogoutAutoDisconnect) {
		return
	}
	c.setStatus("Disconnected", IndicatorDanger)
	c.publish()

	c.report(c.logoutRequest(model.LogoutAutoDisconnect, model.NotAvailable), func(err error) {
		c.clearStorage()
		c.showAlert(AlertDanger, "Session ended due to prolonged network loss", 0)
		if err != nil {
			c.logger.Error("auto-disconnect report failed", "error", err)
			c.redirect(0, EndAuto)
		} else {
			c.redirect(redirectAuto, EndAuto)
		}
		c.publish()
	})
}

// Unload ends this process's hold on the session. A reload keeps the
// session for the next start and sends nothing. A close sends a
// best-effort Browser_Close report if attendance was logged and no other
// termination happened. Local state is cleared unless the session is
// being kept for a reload.
func (c *Controller) Unload(ctx context.Context, reload bool) error {
	return c.call(ctx, func() error {
		if c.s.finished {
			return nil
		}
		if reload {
			c.unloadReload()
		} else {
			c.unloadClose()
		}
		return nil
	})
}

func (c *Controller) unloadReload() {
	if c.s.terminated {
		// A logout is mid-flight; its cleanup will not run after exit.
		c.clearStorage()
		c.finish(EndReload)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := c.store.MarkRefreshing(ctx); err != nil {
		c.logger.Error("mark refresh", "error", err)
	}
	c.finish(EndReload)
}

func (c *Controller) unloadClose() {
	if !c.s.manualLogout && c.s.AttendanceLogged && !c.s.terminated {
		c.terminate(model.LogoutBrowserClose)
		req := c.logoutRequest(model.LogoutBrowserClose, c.s.Coords.String())
		if err := c.backend.LogoutBeacon(req); err != nil {
			c.logger.Warn("close beacon", "error", err)
		}
	}
	c.clearStorage()
	c.finish(EndClose)
}
