package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetWriter appends rows to the sheets of one workbook.
type sheetWriter struct {
	file       *excelize.File
	sheet      string
	row        int
	boldStyle  int
	moneyStyle int
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		f.Close()
		return nil, err
	}
	return &sheetWriter{file: f, boldStyle: bold, moneyStyle: money}, nil
}

// addSheet starts a sheet. The first call renames the default sheet.
func (w *sheetWriter) addSheet(name string) error {
	// Excel limits sheet names to 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

func (w *sheetWriter) writeRow(values []any, bold bool) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return err
	}
	if bold && len(values) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(values), w.row)
		_ = w.file.SetCellStyle(w.sheet, cell, end, w.boldStyle)
	}
	w.row++
	return nil
}

// moneyColumns formats columns (1-based) from row 2 down as currency.
func (w *sheetWriter) moneyColumns(cols ...int) {
	if w.row <= 2 {
		return
	}
	for _, c := range cols {
		start, _ := excelize.CoordinatesToCellName(c, 2)
		end, _ := excelize.CoordinatesToCellName(c, w.row-1)
		_ = w.file.SetCellStyle(w.sheet, start, end, w.moneyStyle)
	}
}

func (w *sheetWriter) save(out io.Writer) error {
	return w.file.Write(out)
}

func (w *sheetWriter) close() error {
	return w.file.Close()
}
