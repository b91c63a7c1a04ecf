package session

import (
	"fmt"
	"strconv"
	"time"
)

// Indicator is the coarse health shown next to the status text.
type Indicator string

const (
	IndicatorConnected Indicator = "connected"
	IndicatorWarning   Indicator = "warning"
	IndicatorDanger    Indicator = "danger"
)

// AlertLevel mirrors the severity of a user-facing message.
type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

type Alert struct {
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
}

// Status is a point-in-time view of the session for local displays.
type Status struct {
	SessionID        string    `json:"sessionId"`
	MarketerID       string    `json:"marketerId"`
	MarketerName     string    `json:"marketerName"`
	ShopName         string    `json:"shopName"`
	Text             string    `json:"statusText"`
	Indicator        Indicator `json:"indicator"`
	Alert            *Alert    `json:"alert,omitempty"`
	Latitude         string    `json:"latitude"`
	Longitude        string    `json:"longitude"`
	LoginTime        string    `json:"loginTime"`
	Elapsed          string    `json:"elapsed"`
	ElapsedSeconds   int       `json:"elapsedSeconds"`
	HoursToday       string    `json:"hoursToday"`
	AttendanceLogged bool      `json:"attendanceLogged"`
	RecordID         string    `json:"recordId,omitempty"`
	Offline          bool      `json:"offline"`
	OutageRemaining  int       `json:"outageRemaining,omitempty"`
	Ended            EndReason `json:"ended,omitempty"`
}

// Notifier receives every published snapshot.
type Notifier interface {
	Publish(Status)
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// FormatHours renders seconds as decimal hours with one digit, e.g. "1.5h".
func FormatHours(secs int) string {
	return strconv.FormatFloat(float64(secs)/3600, 'f', 1, 64) + "h"
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

// snapshot builds the current Status. Called on the loop.
func (c *Controller) snapshot() Status {
	s := &c.s
	st := Status{
		SessionID:        s.ID,
		MarketerID:       s.Marketer.MarketerID,
		MarketerName:     s.Marketer.FullName,
		ShopName:         s.Marketer.ShopName,
		Text:             c.statusText,
		Indicator:        c.indicator,
		Latitude:         formatCoordinate(s.Coords.Lat),
		Longitude:        formatCoordinate(s.Coords.Lon),
		Elapsed:          FormatClock(s.Elapsed),
		ElapsedSeconds:   s.Elapsed,
		HoursToday:       FormatHours(s.Elapsed),
		AttendanceLogged: s.AttendanceLogged,
		RecordID:         s.RecordID,
		Offline:          s.Outage != nil,
		OutageRemaining:  s.OutageRemaining,
		Ended:            c.endReason,
	}
	if !s.LoginAt.IsZero() {
		st.LoginTime = s.LoginAt.Format("15:04")
	}
	if c.alert != nil {
		a := *c.alert
		st.Alert = &a
	}
	return st
}

// publish stores a fresh snapshot and hands it to the notifier.
func (c *Controller) publish() {
	st := c.snapshot()
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
	if c.notifier != nil {
		c.notifier.Publish(st)
	}
}

// Status returns the last published snapshot. Safe from any goroutine.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(text string, ind Indicator) {
	c.statusText = text
	c.indicator = ind
}

// showAlert replaces the alert. Success and info alerts clear themselves
// after clearAfter; a zero duration keeps the alert until replaced.
func (c *Controller) showAlert(level AlertLevel, msg string, clearAfter time.Duration) {
	c.alert = &Alert{Level: level, Message: msg}
	c.timers.alert.stop()
	c.timers.alert = nil
	if clearAfter > 0 {
		c.timers.alert = c.after(clearAfter, c.clearAlert)
	}
}

func (c *Controller) clearAlert() {
	if c.alert == nil {
		return
	}
	if c.alert.Level == AlertSuccess || c.alert.Level == AlertInfo {
		c.alert = nil
		c.publish()
	}
}
