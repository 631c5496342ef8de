package hydro

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// sums holds the accumulators every index is derived from.
type sums struct {
	n      float64
	obs    float64
	sim    float64
	obsSq  float64
	simSq  float64
	obsSim float64

	// constant is true when every observed value equals the first.
	constant bool
}

func accumulate(observed, simulated []float64) sums {
	s := sums{n: float64(len(observed)), constant: true}
	for i, o := range observed {
		if o != observed[0] {
			s.constant = false
		}
		m := simulated[i]
		s.obs += o
		s.sim += m
		s.obsSq += o * o
		s.simSq += m * m
		s.obsSim += o * m
	}
	return s
}

// residual is the sum of squared differences between the series.
func (s sums) residual() float64 {
	return s.simSq + s.obsSq - 2*s.obsSim
}

// Evaluate scores simulated against observed discharge. Both series must be
// non-empty, of equal length and hold only finite values.
//
// R2 is the residual-ratio form 1 - SSres/sum(obs^2), not the squared
// correlation; the latter is reported separately as PearsonR2.
func Evaluate(observed, simulated []float64) (Indices, error) {
	if len(observed) != len(simulated) {
		return Indices{}, invalidInput(OpEvaluate,
			fmt.Sprintf("observed has %d values, simulated has %d", len(observed), len(simulated)))
	}
	if len(observed) == 0 {
		return Indices{}, invalidInput(OpEvaluate, "empty series")
	}
	for i := range observed {
		if !finite(observed[i]) {
			return Indices{}, invalidInputAt(OpEvaluate, i, fmt.Sprintf("observed discharge is %g", observed[i]))
		}
		if !finite(simulated[i]) {
			return Indices{}, invalidInputAt(OpEvaluate, i, fmt.Sprintf("simulated discharge is %g", simulated[i]))
		}
	}

	s := accumulate(observed, simulated)

	// Each index is checked on its own so a degenerate series reports every
	// undefined score, not only the first.
	var errs []error
	if s.obs == 0 {
		errs = append(errs, divisionByZero(OpPBIAS, -1, "sum of observed discharge is zero"))
	}
	nseDen := s.obsSq - s.obs*s.obs/s.n
	// A constant series can leave rounding residue in the denominator.
	if nseDen == 0 || s.constant {
		errs = append(errs, divisionByZero(OpNSE, -1, "observed discharge has zero variance"))
	}
	if s.obsSq == 0 {
		errs = append(errs, divisionByZero(OpR2, -1, "observed discharge is all zeros"))
	}
	if len(errs) > 0 {
		return Indices{}, errors.Join(errs...)
	}

	idx := Indices{
		PBIAS: (s.sim - s.obs) / s.obs,
		NSE:   1 - s.residual()/nseDen,
		R2:    1 - s.residual()/s.obsSq,
		RMSE:  math.Sqrt(math.Max(s.residual(), 0) / s.n),
	}
	if !finite(idx.PBIAS) || !finite(idx.NSE) || !finite(idx.R2) || !finite(idx.RMSE) {
		return Indices{}, invalidInput(OpEvaluate, "discharge magnitudes overflow the index sums")
	}

	if r := stat.Correlation(observed, simulated, nil); !math.IsNaN(r) {
		idx.PearsonR2 = r * r
		idx.HasPearson = true
	}
	return idx, nil
}
