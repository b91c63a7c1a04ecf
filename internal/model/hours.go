package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// InProgress marks an attendance row without a logout yet.
const InProgress = "In progress"

// HoursValue holds the backend's hoursWorked field, which arrives either as
// a JSON number or as a string.
type HoursValue struct {
	Number   float64
	Text     string
	IsNumber bool
}

func (h *HoursValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = HoursValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = HoursValue{Text: s}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*h = HoursValue{Number: f, IsNumber: true}
	return nil
}

func (h HoursValue) MarshalJSON() ([]byte, error) {
	if h.IsNumber {
		return []byte(strconv.FormatFloat(h.Number, 'f', -1, 64)), nil
	}
	return json.Marshal(h.Text)
}

func (h HoursValue) InProgress() bool {
	return !h.IsNumber && h.Text == InProgress
}
