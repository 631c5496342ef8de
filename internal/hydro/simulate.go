package hydro

import "fmt"

// Step applies one period's input to state. The returned output doubles as
// the state for the next period.
func Step(s State, p Parameters, in PeriodInput, period int) (PeriodOutput, error) {
	reservoir := UpdateReservoir(s.Reservoir, in.Precipitation, in.Evapotranspiration, p.Kb)

	flow, err := RouteChannel(s.Channel, s.Soil, in.ObservedDischarge, p, period)
	if err != nil {
		return PeriodOutput{}, err
	}

	return PeriodOutput{
		Reservoir: reservoir,
		Channel:   UpdateChannel(s.Channel, flow, p.Kc),
		Soil:      UpdateSoil(s.Soil, in.Precipitation, in.Evapotranspiration, p.Ks, p.Kz),
	}, nil
}

// Simulate runs the model over inputs starting from empty storages and
// returns one output per input, in order. The first failing period aborts the
// run. NaN or infinite parameters and inputs are rejected.
func Simulate(p Parameters, inputs []PeriodInput) ([]PeriodOutput, error) {
	if len(inputs) == 0 {
		return nil, invalidInput(OpSimulate, "no periods to simulate")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	for i, in := range inputs {
		if err := in.validate(i); err != nil {
			return nil, err
		}
	}

	outputs := make([]PeriodOutput, 0, len(inputs))
	var s State
	for i, in := range inputs {
		out, err := Step(s, p, in, i)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
		s = State(out)
	}
	return outputs, nil
}

func (p Parameters) validate() error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"ks", p.Ks}, {"kc", p.Kc}, {"kb", p.Kb}, {"kw", p.Kw}, {"kz", p.Kz}, {"c", p.C},
	} {
		if !finite(c.value) {
			return invalidInput(OpSimulate, fmt.Sprintf("parameter %s is %g", c.name, c.value))
		}
	}
	return nil
}

func (in PeriodInput) validate(period int) error {
	switch {
	case !finite(in.Precipitation):
		return invalidInputAt(OpSimulate, period, fmt.Sprintf("precipitation is %g", in.Precipitation))
	case !finite(in.Evapotranspiration):
		return invalidInputAt(OpSimulate, period, fmt.Sprintf("evapotranspiration is %g", in.Evapotranspiration))
	case !finite(in.ObservedDischarge):
		return invalidInputAt(OpSimulate, period, fmt.Sprintf("observed discharge is %g", in.ObservedDischarge))
	}
	return nil
}

// Series returns the observed and simulated discharge sequences for a run.
func Series(inputs []PeriodInput, outputs []PeriodOutput) (observed, simulated []float64, err error) {
	if len(inputs) != len(outputs) {
		return nil, nil, invalidInput(OpSimulate,
			fmt.Sprintf("%d inputs but %d outputs", len(inputs), len(outputs)))
	}
	observed = make([]float64, len(inputs))
	simulated = make([]float64, len(outputs))
	for i := range inputs {
		observed[i] = inputs[i].ObservedDischarge
		simulated[i] = outputs[i].SimulatedDischarge()
	}
	return observed, simulated, nil
}

// Run simulates inputs and scores the simulated discharge. When only scoring
// fails, the returned Result still carries the outputs and both discharge
// series, and its Indices are left zero.
func Run(p Parameters, inputs []PeriodInput) (Result, error) {
	outputs, err := Simulate(p, inputs)
	if err != nil {
		return Result{}, err
	}
	observed, simulated, err := Series(inputs, outputs)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Outputs:   outputs,
		Observed:  observed,
		Simulated: simulated,
	}
	indices, err := Evaluate(observed, simulated)
	if err != nil {
		return res, err
	}
	res.Indices = indices
	return res, nil
}
