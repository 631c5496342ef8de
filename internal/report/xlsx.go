package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

const (
	summarySheet = "summary"
	periodsSheet = "periods"
)

// BuildXLSX returns a workbook with a summary sheet and a per-period sheet.
func BuildXLSX(name string, params hydro.Parameters, res hydro.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(periodsSheet)

	summary := [][2]any{
		{"Scenario", name},
		{"Periods", len(res.Outputs)},
		{"Ks", params.Ks},
		{"Kc", params.Kc},
		{"Kb", params.Kb},
		{"Kw", params.Kw},
		{"Kz", params.Kz},
		{"C", params.C},
		{"PBIAS", res.Indices.PBIAS},
		{"NSE", res.Indices.NSE},
		{"R2", res.Indices.R2},
		{"RMSE", res.Indices.RMSE},
	}
	if res.Indices.HasPearson {
		summary = append(summary, [2]any{"Pearson r2", res.Indices.PearsonR2})
	}

	_ = f.SetCellValue(summarySheet, "A1", "Simulation Report")
	for i, kv := range summary {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1])
	}

	header := []any{"Period", "Reservoir", "Channel", "Soil", "Observed", "Simulated"}
	if err := f.SetSheetRow(periodsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, out := range res.Outputs {
		var observed float64
		if i < len(res.Observed) {
			observed = res.Observed[i]
		}
		row := []any{i + 1, out.Reservoir, out.Channel, out.Soil, observed, out.SimulatedDischarge()}
		if err := f.SetSheetRow(periodsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
