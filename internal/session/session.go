package session

import (
	"errors"
	"time"

	"github.com/dukerupert/fieldtrack/internal/model"
)

var (
	// ErrNotAuthenticated means no marketer login is persisted on this device.
	ErrNotAuthenticated = errors.New("session: not logged in as a marketer")
	// ErrNotConfirmed means a manual logout was requested without confirmation.
	ErrNotConfirmed = errors.New("session: logout not confirmed")
	// ErrEnded means the session has already been terminated.
	ErrEnded = errors.New("session: already ended")
)

// EndReason records how a controller finished.
type EndReason string

const (
	EndManual     EndReason = "manual"
	EndAuto       EndReason = "auto_disconnect"
	EndClose      EndReason = "close"
	EndReload     EndReason = "reload"
	EndCancelled  EndReason = "cancelled"
	endInProgress EndReason = ""
)

// Outage is an open network-outage window.
type Outage struct {
	Start time.Time
}

// Session is the state of one device session. It is owned by the
// controller's event loop.
type Session struct {
	ID       string
	Identity model.Identity
	Marketer model.MarketerData

	Coords           model.Coordinates
	AttendanceLogged bool
	RecordID         string
	LoginAt          time.Time
	Elapsed          int
	Outage           *Outage
	OutageRemaining  int

	refreshed        bool
	fixSignaled      bool
	attendanceActive bool
	monitoring       bool
	manualLogout     bool
	terminated       bool
	finished         bool
}

func (s *Session) setFix(lat, lon float64) {
	s.Coords = model.Coordinates{Lat: &lat, Lon: &lon}
}
