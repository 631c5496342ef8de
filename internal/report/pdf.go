package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// BuildPDF returns a one-page summary with the indices and a period table.
func BuildPDF(name string, params hydro.Parameters, res hydro.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Simulation Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Scenario: %s", name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Parameters: Ks=%g Kc=%g Kb=%g Kw=%g Kz=%g C=%g",
		params.Ks, params.Kc, params.Kb, params.Kw, params.Kz, params.C))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Periods: %d", len(res.Outputs)))
	pdf.Ln(8)

	idx := res.Indices
	pdf.Cell(0, 6, fmt.Sprintf("PBIAS: %.4f", idx.PBIAS))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("NSE: %.4f", idx.NSE))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("R2: %.4f", idx.R2))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("RMSE: %.4f", idx.RMSE))
	pdf.Ln(8)

	widths := []float64{20, 30, 30, 30, 30, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Period", "Reservoir", "Channel", "Soil", "Observed", "Simulated"} {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, out := range res.Outputs {
		var observed float64
		if i < len(res.Observed) {
			observed = res.Observed[i]
		}
		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		for j, v := range []float64{out.Reservoir, out.Channel, out.Soil, observed, out.SimulatedDischarge()} {
			pdf.CellFormat(widths[j+1], 6, fmt.Sprintf("%.3f", v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
