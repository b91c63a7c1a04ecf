package model

import (
	"strconv"
	"strings"
)

// LogoutType tags the reason a session ended.
type LogoutType string

const (
	LogoutManual         LogoutType = "Manual"
	LogoutBrowserClose   LogoutType = "Browser_Close"
	LogoutAutoDisconnect LogoutType = "Auto_Disconnect_Network"
)

// NotAvailable is sent in place of coordinates the device does not have.
const NotAvailable = "N/A"

// Coordinates is a lat/lon pair. Either component may be nil before the
// first GPS fix.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Complete reports whether both components are present.
func (c Coordinates) Complete() bool {
	return c.Lat != nil && c.Lon != nil
}

// String formats the pair as "lat,lon" using the shortest representation
// that round-trips, always with a decimal point, substituting N/A for a
// missing component.
func (c Coordinates) String() string {
	return formatComponent(c.Lat) + "," + formatComponent(c.Lon)
}

func formatComponent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// AttendanceRequest is the body of the logAttendance action.
type AttendanceRequest struct {
	MarketerID       string `json:"marketerId"`
	MarketerName     string `json:"marketerName"`
	ShopID           string `json:"shopId"`
	ShopName         string `json:"shopName"`
	LoginCoordinates string `json:"loginCoordinates"`
}

// LogoutRequest is the body of the logoutMarketer action.
type LogoutRequest struct {
	MarketerID        string     `json:"marketerId"`
	MarketerName      string     `json:"marketerName"`
	ShopID            string     `json:"shopId"`
	LogoutCoordinates string     `json:"logoutCoordinates"`
	LogoutType        LogoutType `json:"logoutType"`
}

// AttendanceLog is one row of the HR attendance report.
type AttendanceLog struct {
	Date         string `json:"date"`
	MarketerName string `json:"marketerName"`
	ShopName     string `json:"shopName"`
	LoginTime    string `json:"loginTime"`
	LogoutTime   string `json:"logoutTime"`
	LoginGPS     string `json:"loginGPS"`
	LogoutGPS    string `json:"logoutGPS"`
	// HoursWorked is a decimal number, an "Xh Ym" string, or "In progress".
	HoursWorked HoursValue `json:"hoursWorked"`
}
