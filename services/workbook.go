package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/utils"
	"github.com/xuri/excelize/v2"
)

const (
	// DefaultSheetName is the sheet holding the order log
	DefaultSheetName = "Bitácora"
	// DefaultTitle is written to the banner row of a newly created workbook
	DefaultTitle = "Órdenes de Trabajo - Departamento de Diseño"

	// 1-based row of the column headers; row 1 is the title banner
	headerRow = 2
)

// Column headers of the order log, in sheet order
const (
	ColumnOrderID          = "No. de Orden"
	ColumnDateRequired     = "Fecha requerida"
	ColumnRequestedBy      = "Requerido por"
	ColumnDepartment       = "Departamento"
	ColumnDateDesired      = "Fecha deseada"
	ColumnPriority         = "Prioridad"
	ColumnWorkType         = "Tipo de trabajo"
	ColumnDescription      = "Descripción de trabajo"
	ColumnProjectOrFixture = "Proyecto / Fixtura"
	ColumnStatus           = "Status"
	ColumnDateCompleted    = "Fecha completada"
	ColumnNotes            = "Notas / Comentarios"
)

// Columns lists the headers in the order they are written
var Columns = []string{
	ColumnOrderID,
	ColumnDateRequired,
	ColumnRequestedBy,
	ColumnDepartment,
	ColumnDateDesired,
	ColumnPriority,
	ColumnWorkType,
	ColumnDescription,
	ColumnProjectOrFixture,
	ColumnStatus,
	ColumnDateCompleted,
	ColumnNotes,
}

var dateColumns = []string{ColumnDateRequired, ColumnDateDesired, ColumnDateCompleted}

// WorkbookCodec converts between xlsx bytes and an OrderSet
type WorkbookCodec struct {
	Sheet string
}

func (c WorkbookCodec) sheet() string {
	if c.Sheet == "" {
		return DefaultSheetName
	}
	return c.Sheet
}

// Decode reads the order log sheet. Rows without an order number are dropped
// and date cells that cannot be parsed are left empty.
func (c WorkbookCodec) Decode(data []byte) (models.OrderSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := c.sheet()
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %q: %w", sheet, err)
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	set := models.OrderSet{}
	if len(rows) < headerRow {
		return set, nil
	}

	index := make(map[string]int, len(Columns))
	for i, name := range rows[headerRow-1] {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index[ColumnOrderID]; !ok {
		return nil, fmt.Errorf("sheet %q has no %q column", sheet, ColumnOrderID)
	}

	for _, row := range rows[headerRow:] {
		cell := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		orderID := strings.TrimSpace(cell(ColumnOrderID))
		if orderID == "" {
			continue
		}

		set = append(set, models.Order{
			OrderID:          orderID,
			DateRequired:     parseCellDate(cell(ColumnDateRequired)),
			RequestedBy:      cell(ColumnRequestedBy),
			Department:       models.Department(cell(ColumnDepartment)),
			DateDesired:      parseCellDate(cell(ColumnDateDesired)),
			Priority:         models.Priority(cell(ColumnPriority)),
			WorkType:         models.WorkType(cell(ColumnWorkType)),
			Description:      cell(ColumnDescription),
			ProjectOrFixture: cell(ColumnProjectOrFixture),
			Status:           models.Status(cell(ColumnStatus)),
			DateCompleted:    parseCellDate(cell(ColumnDateCompleted)),
			Notes:            cell(ColumnNotes),
		})
	}

	return set, nil
}

// Encode rewrites the order log sheet of existing with set and returns the new workbook.
// The banner row and every other sheet are kept. A nil existing creates a new workbook.
func (c WorkbookCodec) Encode(existing []byte, set models.OrderSet) ([]byte, error) {
	sheet := c.sheet()

	var f *excelize.File
	if len(existing) == 0 {
		f = excelize.NewFile()
	} else {
		var err error
		f, err = excelize.OpenReader(bytes.NewReader(existing))
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %q: %w", sheet, err)
	}
	if idx == -1 {
		idx, err = f.NewSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, "A1", DefaultTitle); err != nil {
			return nil, fmt.Errorf("failed to write title: %w", err)
		}
		f.SetActiveSheet(idx)
		if len(existing) == 0 && sheet != "Sheet1" {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, fmt.Errorf("failed to drop default sheet: %w", err)
			}
		}
	}

	extra, err := readExtraColumns(f, sheet)
	if err != nil {
		return nil, err
	}

	// the table is rebuilt from the header down; the banner row stays
	previous, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	for r := len(previous); r >= headerRow; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return nil, fmt.Errorf("failed to remove row %d: %w", r, err)
		}
	}

	header := make([]interface{}, 0, len(Columns)+len(extra.names))
	for _, name := range Columns {
		header = append(header, name)
	}
	for _, name := range extra.names {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, cellName(1, headerRow), &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, order := range set {
		rowNum := headerRow + 1 + i
		row := orderRow(order)
		cells := extra.rows[order.OrderID]
		for j := range extra.names {
			if j < len(cells) {
				row = append(row, cells[j].value)
			} else {
				row = append(row, nil)
			}
		}
		if err := f.SetSheetRow(sheet, cellName(1, rowNum), &row); err != nil {
			return nil, fmt.Errorf("failed to write order %s: %w", order.OrderID, err)
		}
		for j, cell := range cells {
			if cell.style == 0 {
				continue
			}
			ref := cellName(len(Columns)+1+j, rowNum)
			if err := f.SetCellStyle(sheet, ref, ref, cell.style); err != nil {
				return nil, fmt.Errorf("failed to style %s: %w", ref, err)
			}
		}
	}

	if err := c.applyStyles(f, sheet, len(set), len(Columns)+len(extra.names)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (c WorkbookCodec) applyStyles(f *excelize.File, sheet string, count, width int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, cellName(1, headerRow), cellName(width, headerRow), headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if count == 0 {
		return nil
	}

	dateFormat := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	for _, column := range dateColumns {
		col := columnNumber(column)
		top, bottom := cellName(col, headerRow+1), cellName(col, headerRow+count)
		if err := f.SetCellStyle(sheet, top, bottom, dateStyle); err != nil {
			return fmt.Errorf("failed to style %s: %w", column, err)
		}
	}
	return nil
}

// extraColumns holds the cells of columns the order log does not own,
// keyed by order number so they follow their row through a rewrite
type extraColumns struct {
	names []string
	rows  map[string][]extraCell
}

type extraCell struct {
	value interface{}
	style int
}

func readExtraColumns(f *excelize.File, sheet string) (extraColumns, error) {
	extra := extraColumns{rows: map[string][]extraCell{}}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return extra, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < headerRow {
		return extra, nil
	}

	known := make(map[string]bool, len(Columns))
	for _, name := range Columns {
		known[name] = true
	}
	idColumn := -1
	var positions []int
	for i, name := range rows[headerRow-1] {
		name = strings.TrimSpace(name)
		switch {
		case name == ColumnOrderID:
			idColumn = i
		case name != "" && !known[name]:
			extra.names = append(extra.names, name)
			positions = append(positions, i)
		}
	}
	if idColumn == -1 || len(positions) == 0 {
		return extra, nil
	}

	for r, row := range rows[headerRow:] {
		if idColumn >= len(row) {
			continue
		}
		orderID := strings.TrimSpace(row[idColumn])
		if orderID == "" {
			continue
		}
		if _, seen := extra.rows[orderID]; seen {
			continue
		}

		rowNum := headerRow + 1 + r
		cells := make([]extraCell, len(positions))
		for j, col := range positions {
			if col >= len(row) || row[col] == "" {
				continue
			}
			ref := cellName(col+1, rowNum)
			value, err := typedCellValue(f, sheet, ref, row[col])
			if err != nil {
				return extra, err
			}
			style, err := f.GetCellStyle(sheet, ref)
			if err != nil {
				return extra, fmt.Errorf("failed to read style of %s: %w", ref, err)
			}
			cells[j] = extraCell{value: value, style: style}
		}
		extra.rows[orderID] = cells
	}
	return extra, nil
}

// typedCellValue turns a raw cell back into the type it was stored with
func typedCellValue(f *excelize.File, sheet, ref, raw string) (interface{}, error) {
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read type of %s: %w", ref, err)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n, nil
		}
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	}
	return raw, nil
}

func orderRow(o models.Order) []interface{} {
	return []interface{}{
		o.OrderID,
		cellDate(o.DateRequired),
		cellText(o.RequestedBy),
		cellText(string(o.Department)),
		cellDate(o.DateDesired),
		cellText(string(o.Priority)),
		cellText(string(o.WorkType)),
		cellText(o.Description),
		cellText(o.ProjectOrFixture),
		cellText(string(o.Status)),
		cellDate(o.DateCompleted),
		cellText(o.Notes),
	}
}

func cellText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func cellDate(d *models.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.Time
}

// parseCellDate accepts Excel serial numbers and hand typed dates
func parseCellDate(raw string) *models.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		return models.DateOf(t).Ptr()
	}
	if d, ok := utils.ParseDateText(raw); ok {
		return &d
	}
	return nil
}

func columnNumber(name string) int {
	for i, c := range Columns {
		if c == name {
			return i + 1
		}
	}
	return 0
}

// cellName panics only on coordinates below 1, which callers never pass
func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}
