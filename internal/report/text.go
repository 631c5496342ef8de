// Package report renders simulation results as text, XLSX and PDF.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// WriteText prints the per-period storages followed by the performance indices.
func WriteText(w io.Writer, name string, res hydro.Result) error {
	if err := WriteStorages(w, name, res); err != nil {
		return err
	}

	idx := res.Indices
	if _, err := fmt.Fprintf(w, "\nPBIAS: %.6f\nNSE:   %.6f\nR2:    %.6f\nRMSE:  %.6f\n",
		idx.PBIAS, idx.NSE, idx.R2, idx.RMSE); err != nil {
		return err
	}
	if idx.HasPearson {
		if _, err := fmt.Fprintf(w, "r²:    %.6f\n", idx.PearsonR2); err != nil {
			return err
		}
	}
	return nil
}

// WriteStorages prints only the per-period storage table. It is used when the
// simulation completed but the run could not be scored.
func WriteStorages(w io.Writer, name string, res hydro.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	if name != "" {
		fmt.Fprintf(tw, "Scenario: %s\n\n", name)
	}
	fmt.Fprintln(tw, "period\treservoir\tchannel\tsoil\tobserved\tsimulated\t")
	for i, out := range res.Outputs {
		var observed float64
		if i < len(res.Observed) {
			observed = res.Observed[i]
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			i+1, out.Reservoir, out.Channel, out.Soil, observed, out.SimulatedDischarge())
	}
	return tw.Flush()
}
