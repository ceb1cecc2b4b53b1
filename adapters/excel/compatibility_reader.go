// Package excel reads the curated compatibility matrix workbook. The matrix
// is maintained by method owners outside the engine; declarations it yields
// merge into the configuration set before snapshot validation, so a workbook
// can never bypass anti-universality.
package excel

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/internal/registry"
)

// Sheet layout: one sheet per context axis named "questions", "dimensions",
// "policies". Row 1 holds context value ids from column B on; column A holds
// method ids from row 2 on. Cells hold a compatibility level; blank means
// undeclared.
var axisSheets = map[string]calibration.ContextAxis{
	"questions":  calibration.AxisQuestion,
	"dimensions": calibration.AxisDimension,
	"policies":   calibration.AxisPolicy,
}

// CompatibilityReader implements config.CompatibilitySource for workbooks.
type CompatibilityReader struct {
	filePath string
}

// NewCompatibilityReader creates a reader for the given workbook path.
func NewCompatibilityReader(filePath string) *CompatibilityReader {
	return &CompatibilityReader{filePath: filePath}
}

// LoadDeclarations reads every axis sheet into per-method declarations.
func (r *CompatibilityReader) LoadDeclarations(ctx context.Context) (map[core.MethodID]map[calibration.ContextAxis]registry.Declarations, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewConfigurationError(r.filePath, "compatibility workbook not found")
	}
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open compatibility workbook: %w", err)
	}
	defer f.Close()

	out := make(map[core.MethodID]map[calibration.ContextAxis]registry.Declarations)
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		axis, ok := axisSheets[strings.ToLower(strings.TrimSpace(sheet))]
		if !ok {
			continue
		}
		if err := r.readSheet(f, sheet, axis, out); err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, core.NewConfigurationError(r.filePath,
			"workbook has no questions/dimensions/policies sheet")
	}
	return out, nil
}

func (r *CompatibilityReader) readSheet(f *excelize.File, sheet string, axis calibration.ContextAxis, out map[core.MethodID]map[calibration.ContextAxis]registry.Declarations) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return core.NewConfigurationError(r.filePath,
			fmt.Sprintf("sheet %s needs a header row of context ids and at least one method row", sheet))
	}

	contextIDs := rows[0][1:]
	for rowIdx, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		method := core.MethodID(strings.TrimSpace(row[0]))
		decls := make(registry.Declarations)
		for col, contextID := range contextIDs {
			contextID = strings.TrimSpace(contextID)
			if contextID == "" {
				continue
			}
			cell := ""
			if col+1 < len(row) {
				cell = strings.TrimSpace(row[col+1])
			}
			if cell == "" {
				continue // blank cell stays undeclared
			}
			level, err := calibration.ParseCompatibilityLevel(strings.ToLower(cell))
			if err != nil {
				return core.NewConfigurationError(r.filePath,
					fmt.Sprintf("sheet %s row %d: %v", sheet, rowIdx+2, err))
			}
			decls[contextID] = level
		}
		if len(decls) == 0 {
			continue
		}
		if out[method] == nil {
			out[method] = make(map[calibration.ContextAxis]registry.Declarations, 3)
		}
		out[method][axis] = decls
	}
	return nil
}
