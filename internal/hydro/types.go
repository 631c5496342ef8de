// Package hydro implements a lumped reservoir/channel/soil storage model with
// Muskingum-style channel routing and goodness-of-fit scoring of the simulated
// streamflow against observations.
package hydro

// Parameters holds the linear transfer coefficients of the model.
// A Parameters value is not modified during a run.
type Parameters struct {
	Ks float64 `json:"ks" msgpack:"ks"` // surface drainage
	Kc float64 `json:"kc" msgpack:"kc"` // infiltration
	Kb float64 `json:"kb" msgpack:"kb"` // reservoir storage
	Kw float64 `json:"kw" msgpack:"kw"` // channel storage
	Kz float64 `json:"kz" msgpack:"kz"` // soil storage
	C  float64 `json:"c" msgpack:"c"`   // routing time constant
}

// PeriodInput is the forcing for one time step.
type PeriodInput struct {
	Precipitation      float64 `json:"precipitation" msgpack:"p"`
	Evapotranspiration float64 `json:"evapotranspiration" msgpack:"et"`
	ObservedDischarge  float64 `json:"observed_discharge" msgpack:"q"`
}

// PeriodOutput holds the three storages at the end of a time step.
type PeriodOutput struct {
	Reservoir float64 `json:"reservoir" msgpack:"reservoir"`
	Channel   float64 `json:"channel" msgpack:"channel"`
	Soil      float64 `json:"soil" msgpack:"soil"`
}

// SimulatedDischarge is the streamflow the model produces for the period.
func (o PeriodOutput) SimulatedDischarge() float64 {
	return o.Channel + o.Soil
}

// State is the storage carried from one period to the next. The zero value
// is the initial state of every run.
type State struct {
	Reservoir float64
	Channel   float64
	Soil      float64
}

// Indices are the goodness-of-fit scores of one simulation.
type Indices struct {
	PBIAS float64 `json:"pbias" msgpack:"pbias"`
	NSE   float64 `json:"nse" msgpack:"nse"`
	R2    float64 `json:"r2" msgpack:"r2"`
	RMSE  float64 `json:"rmse" msgpack:"rmse"`

	// PearsonR2 is the squared correlation coefficient. It is only set when
	// both series have non-zero variance.
	PearsonR2  float64 `json:"pearson_r2,omitempty" msgpack:"pearson_r2,omitempty"`
	HasPearson bool    `json:"has_pearson" msgpack:"has_pearson"`
}

// Result bundles everything a complete run produces.
type Result struct {
	Outputs   []PeriodOutput `json:"outputs" msgpack:"outputs"`
	Observed  []float64      `json:"observed" msgpack:"observed"`
	Simulated []float64      `json:"simulated" msgpack:"simulated"`
	Indices   Indices        `json:"indices" msgpack:"indices"`
}
