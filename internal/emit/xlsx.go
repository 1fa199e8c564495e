package emit

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
	"github.com/soyeahso/d20stats/internal/stats"
)

// Sheet names of the workbook.
const (
	SheetAllTime  = "All time"
	SheetPrevious = "Previous session"
)

// percentFormat is the built-in "0.00%" number format.
const percentFormat = 10

// XLSXEmitter writes <world>_data.xlsx with one sheet per time window
// and one row per slice.
type XLSXEmitter struct {
	Dir string
	written
	log *logging.Logger
}

func (e *XLSXEmitter) Name() string { return "xlsx" }

func (e *XLSXEmitter) Emit(ctx context.Context, b *domain.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Error().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetAllTime); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	columns := stats.MetricNames()
	if len(b.Previous) > 0 {
		for _, name := range stats.MetricNames() {
			if stats.IsCount(name) {
				columns = append(columns, name+stats.PrevSuffix)
			}
		}
	}
	if err := writeSheet(f, SheetAllTime, columns, b.Reports, b.FieldMetadata); err != nil {
		return err
	}

	if len(b.Previous) > 0 {
		if _, err := f.NewSheet(SheetPrevious); err != nil {
			return fmt.Errorf("creating sheet: %w", err)
		}
		if err := writeSheet(f, SheetPrevious, stats.MetricNames(), b.Previous, b.FieldMetadata); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	path, err := writeFile(e.Dir, FileName(b.World, "_data.xlsx"), func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return fmt.Errorf("xlsx output: %w", err)
	}
	e.path = path
	e.log.Info().Str("path", path).Msg("wrote report")
	return nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, reports []domain.Report, meta map[string]domain.FieldMeta) error {
	header := make([]any, 0, len(columns)+1)
	header = append(header, "player")
	for _, c := range columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i, r := range reports {
		row := make([]any, 0, len(columns)+1)
		row = append(row, r.Label)
		for _, c := range columns {
			row = append(row, r.Get(c))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}
	for i, c := range columns {
		if !meta[c].IsPercent {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(sheet, col, style); err != nil {
			return fmt.Errorf("%s column %s: %w", sheet, col, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}
