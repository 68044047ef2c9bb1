package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Exporter renders report rows into downloadable files.
type Exporter interface {
	ExportBookings(format string, rows []BookingReportRow) ([]byte, string, string, error)
	ExportSchedulePDF(rows []ScheduleReportRow, weekOf string) ([]byte, string, string, error)
}

type exporter struct{}

func NewExporter() Exporter {
	return &exporter{}
}

func (e *exporter) ExportBookings(format string, rows []BookingReportRow) ([]byte, string, string, error) {
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case FormatExcel:
		data, err := e.exportBookingsExcel(rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("bookings_report_%s.xlsx", timestamp)
		return data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatCSV:
		data, err := e.exportBookingsCSV(rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("bookings_report_%s.csv", timestamp)
		return data, filename, "text/csv", nil

	case FormatPDF:
		data, err := e.exportBookingsPDF(rows)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("bookings_report_%s.pdf", timestamp)
		return data, filename, "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported format for bookings: %s", format)
	}
}

func (e *exporter) exportBookingsCSV(rows []BookingReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Member", "Email", "Class", "Instructor", "Class Time", "Status", "Booked At"}
	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.MemberName,
			r.Email,
			r.ClassTitle,
			r.Instructor,
			r.StartTime.Format("2006-01-02 15:04"),
			r.Status,
			r.BookedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *exporter) exportBookingsExcel(rows []BookingReportRow) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Bookings"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"ID", "Member", "Email", "Class", "Instructor", "Class Time", "Status", "Booked At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.MemberName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.ClassTitle)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Instructor)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.StartTime.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), r.BookedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *exporter) exportBookingsPDF(rows []BookingReportRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Bookings Report")
	pdf.Ln(20)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{15, 40, 55, 45, 35, 35, 25, 35}
	headers := []string{"ID", "Member", "Email", "Class", "Instructor", "Class Time", "Status", "Booked At"}

	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		values := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.MemberName,
			r.Email,
			r.ClassTitle,
			r.Instructor,
			r.StartTime.Format("2006-01-02 15:04"),
			r.Status,
			r.BookedAt.Format("2006-01-02 15:04"),
		}
		for i, v := range values {
			if len(v) > 35 {
				v = v[:32] + "..."
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportSchedulePDF renders the printable weekly schedule pinned to the
// studio notice board.
func (e *exporter) ExportSchedulePDF(rows []ScheduleReportRow, weekOf string) ([]byte, string, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Class Schedule - Week of %s", weekOf))
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{22, 20, 25, 45, 35, 25, 18}
	headers := []string{"Date", "Day", "Time", "Class", "Instructor", "Location", "Spots"}

	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		spots := fmt.Sprintf("%d/%d", r.Booked, r.Capacity)
		if r.Capacity == 0 {
			spots = fmt.Sprintf("%d", r.Booked)
		}
		values := []string{
			r.Date,
			r.Weekday,
			r.StartClock + "-" + r.EndClock,
			r.Title,
			r.Instructor,
			r.Location,
			spots,
		}
		for i, v := range values {
			if len(v) > 30 {
				v = v[:27] + "..."
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", "", err
	}

	filename := fmt.Sprintf("schedule_%s.pdf", weekOf)
	return buf.Bytes(), filename, "application/pdf", nil
}
