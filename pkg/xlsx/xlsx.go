// Package xlsx exports query results to an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
)

const (
	moneyFormat   = `$#,##0`
	percentFormat = `0.##"%"`
	columnWidth   = 15
)

// Write renders results as one sheet named after the layout and writes the
// workbook to w.
//
// Money and percent cells stay numeric with a number format so they sort and
// sum in Excel. Flags become "T", durations use the display form.
//
// Example:
//
//	err := xlsx.Write(w, layout, results)
func Write(w io.Writer, layout minion.Layout, results []minion.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := layout.Name
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	columns := layout.ColumnDefs()
	for col, c := range columns {
		cell := columnName(col+1) + "1"
		f.SetCellValue(sheetName, cell, c.Label)
		f.SetCellStyle(sheetName, cell, cell, styles.header)
	}

	for rowIdx := range results {
		r := &results[rowIdx]
		for col, c := range columns {
			cell := columnName(col+1) + strconv.Itoa(rowIdx+2)
			value, _ := r.Value(c.Name)
			if err := f.SetCellValue(sheetName, cell, cellValue(c.Kind, value)); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
			if style, ok := styles.byKind[c.Kind]; ok {
				f.SetCellStyle(sheetName, cell, cell, style)
			}
		}
	}

	if len(columns) > 0 {
		last := columnName(len(columns))
		f.SetColWidth(sheetName, "A", last, columnWidth)
		f.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		f.AutoFilter(sheetName, "A1:"+last+strconv.Itoa(len(results)+1), nil)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type styles struct {
	header int
	byKind map[minion.Kind]int
}

func newStyles(f *excelize.File) (styles, error) {
	s := styles{byKind: map[minion.Kind]int{}}
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	money, percent := moneyFormat, percentFormat
	for kind, numFmt := range map[minion.Kind]*string{
		minion.KindMoney:   &money,
		minion.KindPercent: &percent,
	} {
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: numFmt})
		if err != nil {
			return s, fmt.Errorf("failed to create %s style: %w", kind, err)
		}
		s.byKind[kind] = id
	}

	s.byKind[minion.KindInt], err = f.NewStyle(&excelize.Style{NumFmt: 1})
	if err != nil {
		return s, fmt.Errorf("failed to create int style: %w", err)
	}
	return s, nil
}

// cellValue converts a column value into what excelize should store.
func cellValue(kind minion.Kind, value any) any {
	switch kind {
	case minion.KindFlag, minion.KindDuration:
		return format.Cell(kind, value)
	case minion.KindText:
		if t, ok := value.(minion.Text); ok {
			return t.Display()
		}
		return value
	case minion.KindPercent:
		// blank on zero, as on the page
		if v, ok := value.(float64); ok && v == 0 {
			return ""
		}
		return value
	default:
		return value
	}
}

// columnName converts a column index to an Excel column name (1 → A, 27 → AA)
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
