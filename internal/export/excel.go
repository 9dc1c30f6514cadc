// Package export renders a patient's history as an XLSX workbook the bot
// sends back as a document.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"careline/internal/models"
)

const dateLayout = "2006-01-02"

// workbook wraps excelize with a row cursor per sheet.
type workbook struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

func newWorkbook() *workbook {
	return &workbook{file: excelize.NewFile()}
}

func (w *workbook) addSheet(name string) error {
	if len(name) > 31 {
		name = name[:31] // Excel sheet name limit
	}
	if w.sheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.sheet = name
	w.currentRow = 1
	return nil
}

func (w *workbook) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}
	return nil
}

func (w *workbook) writeRow(row []interface{}) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

func toAny(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// History builds a workbook with one sheet of bookings and one of medical
// results and returns the encoded file.
func History(bookings []models.Booking, results []models.TestResult) ([]byte, error) {
	wb := newWorkbook()
	defer wb.file.Close()

	if err := wb.addSheet("Bookings"); err != nil {
		return nil, err
	}
	if err := wb.writeHeader([]string{"Code", "Service", "Doctor", "Date", "Time", "Status", "Anonymous", "Notes", "Created"}); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		anonymous := "no"
		if b.IsAnonymous {
			anonymous = "yes"
		}
		row := []interface{}{
			b.BookingCode,
			b.ServiceName,
			b.DoctorName,
			formatDate(b.BookingDate),
			b.StartTime,
			b.Status.Label(),
			anonymous,
			b.Notes,
			formatDate(b.CreatedAt),
		}
		if err := wb.writeRow(row); err != nil {
			return nil, err
		}
	}

	if err := wb.addSheet("Results"); err != nil {
		return nil, err
	}
	if err := wb.writeHeader([]string{"Service", "Date", "Doctor", "Summary"}); err != nil {
		return nil, err
	}
	for _, r := range results {
		row := []interface{}{r.ServiceName, formatDate(r.ResultDate), r.DoctorName, r.Summary}
		if err := wb.writeRow(row); err != nil {
			return nil, err
		}
	}

	buf, err := wb.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
