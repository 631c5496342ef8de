package restserver

import (
	"time"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// SimulateRequest is the body of POST /api/v1/simulate. Parameters override
// those of the named scenario; one of the two must be given.
type SimulateRequest struct {
	Scenario   string              `json:"scenario,omitempty"`
	Parameters *hydro.Parameters   `json:"parameters,omitempty"`
	Periods    []hydro.PeriodInput `json:"periods"`
	Save       bool                `json:"save,omitempty"`
}

// PeriodResult is one row of a simulation response
type PeriodResult struct {
	Period    int     `json:"period"`
	Reservoir float64 `json:"reservoir"`
	Channel   float64 `json:"channel"`
	Soil      float64 `json:"soil"`
	Observed  float64 `json:"observed"`
	Simulated float64 `json:"simulated"`
}

// SimulateResponse is returned by a successful simulation
type SimulateResponse struct {
	RunID      string           `json:"run_id,omitempty"`
	Scenario   string           `json:"scenario,omitempty"`
	Parameters hydro.Parameters `json:"parameters"`
	Periods    []PeriodResult   `json:"periods"`
	Indices    hydro.Indices    `json:"indices"`
	Duration   time.Duration    `json:"duration_ns"`
}

// ErrorResponse is the body of every error reply. Kind, Op and Period
// describe the first model error; Errors lists all of them. Periods is set
// when the simulation completed but scoring failed.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Kind    string               `json:"kind,omitempty"`
	Op      string               `json:"op,omitempty"`
	Period  *int                 `json:"period,omitempty"`
	Errors  []ComputeErrorDetail `json:"errors,omitempty"`
	RunID   string               `json:"run_id,omitempty"`
	Periods []PeriodResult       `json:"periods,omitempty"`
}

// ComputeErrorDetail is one model error in an ErrorResponse
type ComputeErrorDetail struct {
	Kind   string `json:"kind"`
	Op     string `json:"op"`
	Period *int   `json:"period,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func newSimulateResponse(res hydro.Result) SimulateResponse {
	periods := make([]PeriodResult, len(res.Outputs))
	for i, out := range res.Outputs {
		periods[i] = PeriodResult{
			Period:    i,
			Reservoir: out.Reservoir,
			Channel:   out.Channel,
			Soil:      out.Soil,
			Observed:  res.Observed[i],
			Simulated: res.Simulated[i],
		}
	}
	return SimulateResponse{Periods: periods, Indices: res.Indices}
}
