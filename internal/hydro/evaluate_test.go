package hydro

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestEvaluateIdenticalSeries(t *testing.T) {
	series := []float64{1.5, 3.0, 7.25, 2.0, 4.5}

	idx, err := Evaluate(series, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.PBIAS != 0 {
		t.Errorf("PBIAS = %v, want 0", idx.PBIAS)
	}
	if idx.NSE != 1 {
		t.Errorf("NSE = %v, want 1", idx.NSE)
	}
	if idx.R2 != 1 {
		t.Errorf("R2 = %v, want 1", idx.R2)
	}
	if idx.RMSE != 0 {
		t.Errorf("RMSE = %v, want 0", idx.RMSE)
	}
	if !idx.HasPearson || !almostEqual(idx.PearsonR2, 1) {
		t.Errorf("PearsonR2 = %v (has=%v), want 1", idx.PearsonR2, idx.HasPearson)
	}
}

func TestEvaluateKnownValues(t *testing.T) {
	observed := []float64{2, 4, 6}
	simulated := []float64{3, 4, 5}

	// sums: obs=12 sim=12 obs2=56 sim2=50 obsSim=52
	// residual = 50 + 56 - 104 = 2
	// nse den = 56 - 144/3 = 8
	idx, err := Evaluate(observed, simulated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"pbias", idx.PBIAS, 0},
		{"nse", idx.NSE, 1 - 2.0/8.0},
		{"r2", idx.R2, 1 - 2.0/56.0},
		{"rmse", idx.RMSE, math.Sqrt(2.0 / 3.0)},
		{"pearson", idx.PearsonR2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !almostEqual(tt.got, tt.want) {
				t.Errorf("got %.9f, want %.9f", tt.got, tt.want)
			}
		})
	}
}

func TestEvaluatePBIASSign(t *testing.T) {
	idx, err := Evaluate([]float64{1, 2, 3}, []float64{2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(idx.PBIAS, 0.5) {
		t.Errorf("PBIAS = %v, want 0.5", idx.PBIAS)
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name      string
		observed  []float64
		simulated []float64
		wantErr   error
		wantOps   []string
	}{
		{
			name:      "constant observed",
			observed:  []float64{5.0, 5.0, 5.0},
			simulated: []float64{4.0, 5.0, 6.0},
			wantErr:   ErrDivisionByZero,
			wantOps:   []string{OpNSE},
		},
		{
			name:      "constant fractional observed",
			observed:  []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1},
			simulated: []float64{0, 0.1, 0.2, 0.1, 0, 0.1, 0.2},
			wantErr:   ErrDivisionByZero,
			wantOps:   []string{OpNSE},
		},
		{
			name:      "zero-sum observed",
			observed:  []float64{-1, 1},
			simulated: []float64{0, 0},
			wantErr:   ErrDivisionByZero,
			wantOps:   []string{OpPBIAS},
		},
		{
			name:      "all zeros",
			observed:  []float64{0, 0, 0},
			simulated: []float64{1, 2, 3},
			wantErr:   ErrDivisionByZero,
			wantOps:   []string{OpPBIAS, OpNSE, OpR2},
		},
		{
			name:      "length mismatch",
			observed:  []float64{1, 2},
			simulated: []float64{1},
			wantErr:   ErrInvalidInput,
		},
		{
			name:    "empty",
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Evaluate(tt.observed, tt.simulated)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if idx != (Indices{}) {
				t.Errorf("expected zero Indices on failure, got %+v", idx)
			}
			for _, op := range tt.wantOps {
				if !hasOp(err, op) {
					t.Errorf("error %q does not report op %q", err, op)
				}
			}
		})
	}
}

func TestEvaluateConstantSimulatedHasNoPearson(t *testing.T) {
	idx, err := Evaluate([]float64{1, 2, 3}, []float64{2, 2, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.HasPearson {
		t.Errorf("expected no Pearson R2 for constant simulated series, got %v", idx.PearsonR2)
	}
}

func TestRun(t *testing.T) {
	inputs := []PeriodInput{
		{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 8},
		{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 6},
		{Precipitation: 0, Evapotranspiration: 3, ObservedDischarge: 4},
	}

	res, err := Run(testParams, inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Outputs) != 3 || len(res.Observed) != 3 || len(res.Simulated) != 3 {
		t.Fatalf("unexpected lengths: %d outputs, %d observed, %d simulated",
			len(res.Outputs), len(res.Observed), len(res.Simulated))
	}
	for i := range inputs {
		if res.Observed[i] != inputs[i].ObservedDischarge {
			t.Errorf("observed[%d] = %v, want %v", i, res.Observed[i], inputs[i].ObservedDischarge)
		}
		if res.Simulated[i] != res.Outputs[i].SimulatedDischarge() {
			t.Errorf("simulated[%d] = %v, want %v", i, res.Simulated[i], res.Outputs[i].SimulatedDischarge())
		}
	}

	want, err := Evaluate(res.Observed, res.Simulated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Indices != want {
		t.Errorf("indices = %+v, want %+v", res.Indices, want)
	}
}

func TestRunSinglePeriodCannotBeScored(t *testing.T) {
	res, err := Run(testParams, []PeriodInput{{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 8}})
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero for a one-period run, got %v", err)
	}
	if len(res.Outputs) != 1 {
		t.Errorf("expected the simulated period to be kept, got %d outputs", len(res.Outputs))
	}
}

func TestRunKeepsOutputsWhenScoringFails(t *testing.T) {
	in := PeriodInput{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 5}
	inputs := []PeriodInput{in, in, in}

	res, err := Run(testParams, inputs)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if !hasOp(err, OpNSE) {
		t.Errorf("error %q does not report op %q", err, OpNSE)
	}

	want, simErr := Simulate(testParams, inputs)
	if simErr != nil {
		t.Fatalf("unexpected error: %v", simErr)
	}
	if len(res.Outputs) != len(want) {
		t.Fatalf("expected %d outputs, got %d", len(want), len(res.Outputs))
	}
	for i := range want {
		if res.Outputs[i] != want[i] {
			t.Errorf("output %d = %+v, want %+v", i, res.Outputs[i], want[i])
		}
		if res.Observed[i] != 5 || res.Simulated[i] != want[i].SimulatedDischarge() {
			t.Errorf("period %d: observed %v simulated %v", i, res.Observed[i], res.Simulated[i])
		}
	}
	if res.Indices != (Indices{}) {
		t.Errorf("expected zero Indices, got %+v", res.Indices)
	}
}

func TestRunRejectsNaNObservedDischarge(t *testing.T) {
	inputs := []PeriodInput{
		{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 8},
		{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 6},
		{Precipitation: 0, Evapotranspiration: 3, ObservedDischarge: math.NaN()},
	}

	res, err := Run(testParams, inputs)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v (indices %+v)", err, res.Indices)
	}
	var ce *ComputeError
	if !errors.As(err, &ce) || ce.Period != 2 {
		t.Errorf("expected failure at period 2, got %v", err)
	}
}

func TestEvaluateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name       string
		observed   []float64
		simulated  []float64
		wantPeriod int
	}{
		{"NaN observed", []float64{1, math.NaN(), 3}, []float64{1, 2, 3}, 1},
		{"infinite simulated", []float64{1, 2, 3}, []float64{1, 2, math.Inf(1)}, 2},
		{"sums overflow", []float64{1e200, 2e200}, []float64{1e200, 1e200}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Evaluate(tt.observed, tt.simulated)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v (indices %+v)", err, idx)
			}
			var ce *ComputeError
			if !errors.As(err, &ce) || ce.Period != tt.wantPeriod {
				t.Errorf("expected period %d, got %v", tt.wantPeriod, err)
			}
		})
	}
}

func TestComputeErrorsFromJoined(t *testing.T) {
	_, err := Evaluate([]float64{0, 0, 0}, []float64{1, 2, 3})
	wrapped := fmt.Errorf("scenario flat: %w", err)

	var ops []string
	for _, ce := range ComputeErrors(wrapped) {
		ops = append(ops, ce.Op)
	}
	if want := []string{OpPBIAS, OpNSE, OpR2}; !slices.Equal(ops, want) {
		t.Errorf("ops = %v, want %v", ops, want)
	}
	if got := ComputeErrors(errors.New("plain")); got != nil {
		t.Errorf("expected no compute errors, got %v", got)
	}
}

func hasOp(err error, op string) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if hasOp(e, op) {
				return true
			}
		}
		return false
	}
	var ce *ComputeError
	return errors.As(err, &ce) && ce.Op == op
}
