package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/fieldtrack/internal/model"
)

const (
	SheetLogs   = "Attendance"
	SheetWeekly = "Weekly Hours"
)

var weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WriteXLSX writes the attendance logs and weekly totals as a workbook.
func WriteXLSX(w io.Writer, logs []model.AttendanceLog, weekly Weekly) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLogs); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	header := []any{"Date", "Marketer", "Shop", "Login Time", "Logout Time", "Login GPS", "Logout GPS", "Hours Worked"}
	if err := f.SetSheetRow(SheetLogs, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, l := range logs {
		row := []any{l.Date, l.MarketerName, l.ShopName, l.LoginTime, l.LogoutTime, l.LoginGPS, l.LogoutGPS, FormatHoursWorked(l.HoursWorked)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetLogs, cell, &row); err != nil {
			return fmt.Errorf("write log row %d: %w", i+1, err)
		}
	}
	f.SetRowStyle(SheetLogs, 1, 1, bold)
	f.SetColWidth(SheetLogs, "A", "H", 18)

	if _, err := f.NewSheet(SheetWeekly); err != nil {
		return fmt.Errorf("create weekly sheet: %w", err)
	}
	weekHeader := []any{"Day", "Hours"}
	if err := f.SetSheetRow(SheetWeekly, "A1", &weekHeader); err != nil {
		return fmt.Errorf("write weekly header: %w", err)
	}
	for i, day := range weekdays {
		row := []any{day, weekly.Days[i]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetWeekly, cell, &row); err != nil {
			return fmt.Errorf("write weekly row: %w", err)
		}
	}
	total := []any{"Total", weekly.Total, weekly.TotalText()}
	if err := f.SetSheetRow(SheetWeekly, "A9", &total); err != nil {
		return fmt.Errorf("write weekly total: %w", err)
	}
	f.SetRowStyle(SheetWeekly, 1, 1, bold)
	f.SetRowStyle(SheetWeekly, 9, 9, bold)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
