package session

import (
	"context"
	"time"

	"github.com/dukerupert/fieldtrack/internal/metrics"
	"github.com/dukerupert/fieldtrack/internal/model"
)

// recordAttendance reports the login event unless it is already logged,
// in flight, or waiting on a retry.
func (c *Controller) recordAttendance() {
	s := &c.s
	if s.terminated || s.AttendanceLogged {
		return
	}
	if s.attendanceActive || c.timers.retry != nil {
		c.logger.Debug("attendance already pending")
		return
	}
	if !s.Coords.Complete() {
		c.logger.Debug("waiting for gps before logging attendance")
		metrics.AttendanceAttempts.WithLabelValues("deferred").Inc()
		c.scheduleAttendanceRetry(noCoordsRetry)
		return
	}

	s.attendanceActive = true
	req := model.AttendanceRequest{
		MarketerID:       s.Marketer.MarketerID,
		MarketerName:     s.Marketer.FullName,
		ShopID:           s.Marketer.ShopID,
		ShopName:         s.Marketer.ShopName,
		LoginCoordinates: s.Coords.String(),
	}
	ctx := c.ctx
	c.spawn(func() {
		reqCtx, cancel := context.WithTimeout(ctx, reportTimeout)
		id, err := c.backend.LogAttendance(reqCtx, req)
		cancel()
		c.post(func() { c.onAttendanceResult(id, err) })
	})
}

func (c *Controller) scheduleAttendanceRetry(d time.Duration) {
	c.timers.retry = c.after(d, func() {
		c.timers.retry = nil
		c.recordAttendance()
	})
}

func (c *Controller) onAttendanceResult(recordID string, err error) {
	s := &c.s
	s.attendanceActive = false
	if s.terminated {
		return
	}

	switch {
	case err == nil:
		s.AttendanceLogged = true
		s.RecordID = recordID
		metrics.AttendanceAttempts.WithLabelValues("logged").Inc()
		c.logger.Info("attendance logged", "record_id", recordID)
		c.showAlert(AlertSuccess, "Attendance logged - You are now visible to HR", 5*time.Second)
		c.startNetworkMonitoring()
	case isRejected(err):
		metrics.AttendanceAttempts.WithLabelValues("rejected").Inc()
		c.logger.Warn("attendance rejected", "error", err)
		c.showAlert(AlertWarning, "Failed to log attendance. Retrying...", 0)
		c.scheduleAttendanceRetry(rejectedRetry)
	default:
		metrics.AttendanceAttempts.WithLabelValues("error").Inc()
		c.logger.Error("log attendance", "error", err)
		c.showAlert(AlertDanger, "Error logging attendance. Check connection.", 0)
		c.scheduleAttendanceRetry(transportRetry)
	}
	c.publish()
}
