// Package report renders a processing run summary as a PDF, one page
// of run metadata plus a per-target verdict table.
package report

import (
	"fmt"
	"time"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/servhound/servhound/pkg/record"
)

var statusColors = map[record.Color][]int{
	record.ColorRed:    {220, 38, 38},
	record.ColorYellow: {202, 138, 4},
	record.ColorGreen:  {22, 163, 74},
}

// Run describes one finished processing run for the report header.
type Run struct {
	ID        string
	Processor string
	Started   time.Time
	Finished  time.Time
	Cancelled bool
}

// Write renders the report for records into path.
func Write(path string, run Run, records []*record.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("servhound run report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.Cell(0, 10, "Processing Run Report")
	pdf.Ln(12)

	succeeded, failed, pending := 0, 0, 0
	for _, rec := range records {
		switch {
		case rec.WasProcessed():
			succeeded++
		case rec.HasFailed():
			failed++
		default:
			pending++
		}
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	meta := [][2]string{
		{"Run ID", run.ID},
		{"Processor", run.Processor},
		{"Started", run.Started.Format(time.RFC3339)},
		{"Finished", run.Finished.Format(time.RFC3339)},
		{"Items", fmt.Sprintf("%d (%d succeeded, %d failed, %d untouched)", len(records), succeeded, failed, pending)},
	}
	if run.Cancelled {
		meta = append(meta, [2]string{"Status", "cancelled before completion"})
	}
	for _, kv := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Verdict table.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Target", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Message", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range records {
		status := "pending"
		switch {
		case rec.WasProcessed():
			status = "ok"
		case rec.HasFailed():
			status = "failed"
		}

		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(45, 7, rec.Key(), "1", 0, "L", false, 0, "")

		rgb := statusColors[rec.Color]
		if rgb == nil {
			rgb = []int{128, 128, 128}
		}
		pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
		pdf.CellFormat(20, 7, status, "1", 0, "C", false, 0, "")

		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 7, truncate(rec.Message, 90), "1", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
