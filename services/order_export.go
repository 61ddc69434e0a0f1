package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/utils"
)

// pdfColumns is the printable subset of the log with column widths in mm (A4 landscape)
var pdfColumns = []struct {
	name  string
	width float64
}{
	{ColumnOrderID, 26},
	{ColumnDateRequired, 24},
	{ColumnRequestedBy, 32},
	{ColumnDepartment, 30},
	{ColumnPriority, 18},
	{ColumnWorkType, 26},
	{ColumnDescription, 75},
	{ColumnStatus, 22},
	{ColumnDateCompleted, 24},
}

// ExportXLSX renders set as a standalone workbook laid out like the order log
func ExportXLSX(set models.OrderSet, sheet string) ([]byte, error) {
	return WorkbookCodec{Sheet: sheet}.Encode(nil, set)
}

// ExportCSV writes set with the order log headers
func ExportCSV(w io.Writer, set models.OrderSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, o := range set {
		if err := writer.Write(orderRecord(o)); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", o.OrderID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func orderRecord(o models.Order) []string {
	return []string{
		o.OrderID,
		utils.FormatDate(o.DateRequired),
		o.RequestedBy,
		string(o.Department),
		utils.FormatDate(o.DateDesired),
		string(o.Priority),
		string(o.WorkType),
		o.Description,
		o.ProjectOrFixture,
		string(o.Status),
		utils.FormatDate(o.DateCompleted),
		o.Notes,
	}
}

// ExportPDF renders set as a printable table headed by title
func ExportPDF(w io.Writer, set models.OrderSet, title string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(211, 211, 211)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 8, tr(col.name), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})

	pdf.AddPage()
	if title == "" {
		title = DefaultTitle
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(3)
	header()

	for _, o := range set {
		record := orderRecord(o)
		for _, col := range pdfColumns {
			value := record[columnNumber(col.name)-1]
			pdf.CellFormat(col.width, 7, fitText(pdf, tr(value), col.width-2), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// fitText shortens translated (single byte) text so it fits in width
func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}
