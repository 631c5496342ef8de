package timescaledb

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/hydrosim/internal/hydro"
	"github.com/chrissnell/hydrosim/internal/storage"
)

// Run is the database row for one simulation run
type Run struct {
	ID         string    `gorm:"primaryKey;column:id;type:uuid"`
	StartedAt  time.Time `gorm:"primaryKey;column:started_at"`
	Scenario   string    `gorm:"column:scenario;not null;index"`
	DurationNS int64     `gorm:"column:duration_ns"`
	Periods    int       `gorm:"column:periods"`
	Ks         float64   `gorm:"column:ks"`
	Kc         float64   `gorm:"column:kc"`
	Kb         float64   `gorm:"column:kb"`
	Kw         float64   `gorm:"column:kw"`
	Kz         float64   `gorm:"column:kz"`
	C          float64   `gorm:"column:c"`
	PBIAS      *float64  `gorm:"column:pbias"`
	NSE        *float64  `gorm:"column:nse"`
	R2         *float64  `gorm:"column:r2"`
	RMSE       *float64  `gorm:"column:rmse"`
	PearsonR2  *float64  `gorm:"column:pearson_r2"`
	Error      string    `gorm:"column:error"`
}

// TableName implements the Tabler interface for the Run struct
func (Run) TableName() string {
	return "hydrosim_runs"
}

// RunPeriod is the database row for one period of a run. Storages are NULL
// for failed runs.
type RunPeriod struct {
	RunID              string   `gorm:"primaryKey;column:run_id;type:uuid"`
	Period             int      `gorm:"primaryKey;column:period"`
	Precipitation      float64  `gorm:"column:precipitation"`
	Evapotranspiration float64  `gorm:"column:evapotranspiration"`
	ObservedDischarge  float64  `gorm:"column:observed_discharge"`
	Reservoir          *float64 `gorm:"column:reservoir"`
	Channel            *float64 `gorm:"column:channel"`
	Soil               *float64 `gorm:"column:soil"`
}

// TableName implements the Tabler interface for the RunPeriod struct
func (RunPeriod) TableName() string {
	return "hydrosim_run_periods"
}

func ptr(v float64) *float64 {
	return &v
}

func toRows(run *storage.RunRecord) (Run, []RunPeriod) {
	p := run.Parameters
	row := Run{
		ID:         run.ID.String(),
		StartedAt:  run.StartedAt,
		Scenario:   run.Scenario,
		DurationNS: int64(run.Duration),
		Periods:    len(run.Inputs),
		Ks:         p.Ks,
		Kc:         p.Kc,
		Kb:         p.Kb,
		Kw:         p.Kw,
		Kz:         p.Kz,
		C:          p.C,
		Error:      run.Error,
	}
	if idx := run.Indices; idx != nil {
		row.PBIAS = ptr(idx.PBIAS)
		row.NSE = ptr(idx.NSE)
		row.R2 = ptr(idx.R2)
		row.RMSE = ptr(idx.RMSE)
		if idx.HasPearson {
			row.PearsonR2 = ptr(idx.PearsonR2)
		}
	}

	periods := make([]RunPeriod, len(run.Inputs))
	for i, in := range run.Inputs {
		periods[i] = RunPeriod{
			RunID:              row.ID,
			Period:             i,
			Precipitation:      in.Precipitation,
			Evapotranspiration: in.Evapotranspiration,
			ObservedDischarge:  in.ObservedDischarge,
		}
		if i < len(run.Outputs) {
			out := run.Outputs[i]
			periods[i].Reservoir = ptr(out.Reservoir)
			periods[i].Channel = ptr(out.Channel)
			periods[i].Soil = ptr(out.Soil)
		}
	}
	return row, periods
}

func (r Run) summary() (storage.RunSummary, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return storage.RunSummary{}, fmt.Errorf("invalid run id %q: %w", r.ID, err)
	}

	summary := storage.RunSummary{
		ID:        id,
		Scenario:  r.Scenario,
		StartedAt: r.StartedAt,
		Periods:   r.Periods,
		Error:     r.Error,
	}
	if r.NSE != nil {
		idx := &hydro.Indices{NSE: *r.NSE}
		if r.PBIAS != nil {
			idx.PBIAS = *r.PBIAS
		}
		if r.R2 != nil {
			idx.R2 = *r.R2
		}
		if r.RMSE != nil {
			idx.RMSE = *r.RMSE
		}
		if r.PearsonR2 != nil {
			idx.PearsonR2 = *r.PearsonR2
			idx.HasPearson = true
		}
		summary.Indices = idx
	}
	return summary, nil
}

func fromRows(r Run, periods []RunPeriod) (*storage.RunRecord, error) {
	summary, err := r.summary()
	if err != nil {
		return nil, err
	}

	run := &storage.RunRecord{
		ID:         summary.ID,
		Scenario:   r.Scenario,
		StartedAt:  r.StartedAt,
		Duration:   time.Duration(r.DurationNS),
		Parameters: hydro.Parameters{Ks: r.Ks, Kc: r.Kc, Kb: r.Kb, Kw: r.Kw, Kz: r.Kz, C: r.C},
		Indices:    summary.Indices,
		Error:      r.Error,
	}
	for _, p := range periods {
		run.Inputs = append(run.Inputs, hydro.PeriodInput{
			Precipitation:      p.Precipitation,
			Evapotranspiration: p.Evapotranspiration,
			ObservedDischarge:  p.ObservedDischarge,
		})
		if p.Reservoir != nil && p.Channel != nil && p.Soil != nil {
			run.Outputs = append(run.Outputs, hydro.PeriodOutput{
				Reservoir: *p.Reservoir,
				Channel:   *p.Channel,
				Soil:      *p.Soil,
			})
		}
	}
	return run, nil
}
