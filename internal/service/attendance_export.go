package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
)

const exportSheet = "Attendance"

// Export renders the filtered records as an xlsx workbook.
func (s *AttendanceService) Export(ctx context.Context, actor *models.User, input FilterInput) ([]byte, error) {
	records, err := s.Filter(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	data, err := renderAttendance(records)
	if err != nil {
		s.logger.WithError(err).Error("Failed to render attendance workbook")
		return nil, apperror.Internal("failed to export attendance", err)
	}

	s.logger.WithField("rows", len(records)).Info("Attendance exported")
	return data, nil
}

func renderAttendance(records []*models.AttendanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"Date", "Name", "Email", "Role"}
	headers = append(headers, models.EventTypes...)
	headers = append(headers, "Hours")

	if err := setRow(f, 1, toCells(headers)); err != nil {
		return nil, err
	}

	for i, r := range records {
		row := []interface{}{r.Date, "", "", r.Role}
		if r.User != nil {
			row[1] = r.User.Name
			row[2] = r.User.Email
		}
		for _, eventType := range models.EventTypes {
			if e := r.FindEvent(eventType); e != nil {
				row = append(row, e.Time.Format("15:04"))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, r.CalculateHours())

		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to set row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
