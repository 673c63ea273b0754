package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/repair-service/internal/domain"
)

// TicketSheet is the worksheet name used by ticket exports.
const TicketSheet = "Tickets"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var ticketHeaders = []interface{}{
	"Ticket ID", "Status", "Equipment ID", "Breakdown ID", "Client ID",
	"Technician ID", "Description", "Reported At", "Updated At", "Resolved At",
}

// ids, description, timestamps
var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "F", 38},
	{"G", "G", 50},
	{"H", "J", 20},
}

// WriteTickets renders tickets as a single-sheet workbook into w.
func WriteTickets(w io.Writer, tickets []domain.Ticket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TicketSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(TicketSheet, "A1", &ticketHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(ticketHeaders))
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(TicketSheet, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i := range tickets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		row := ticketRow(&tickets[i])
		if err := f.SetSheetRow(TicketSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for _, cw := range columnWidths {
		if err := f.SetColWidth(TicketSheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("set width %s:%s: %w", cw.from, cw.to, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName returns the attachment name for an export generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tickets_%s.xlsx", t.UTC().Format("2006-01-02"))
}

func ticketRow(t *domain.Ticket) []interface{} {
	var technician, resolved string
	if t.TechnicianID != nil {
		technician = *t.TechnicianID
	}
	if t.ResolvedAt != nil {
		resolved = t.ResolvedAt.UTC().Format(timeLayout)
	}
	return []interface{}{
		t.ID, string(t.Status), t.EquipmentID, t.BreakdownID, t.ClientID,
		technician, t.Description, t.ReportedAt.UTC().Format(timeLayout),
		t.UpdatedAt.UTC().Format(timeLayout), resolved,
	}
}
