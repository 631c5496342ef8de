package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/hydrosim/internal/forcing"
	"github.com/chrissnell/hydrosim/internal/hydro"
	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/pkg/config"
)

// ScenarioRun is the outcome of running one configured scenario
type ScenarioRun struct {
	Scenario config.ScenarioData
	Record   *storage.RunRecord
	Result   hydro.Result
}

// RunScenario reads the scenario's forcing file, runs the model and stores
// the run. Model failures are stored too and returned as the error; the
// returned ScenarioRun then still holds any simulated outputs.
func (a *App) RunScenario(ctx context.Context, sc config.ScenarioData) (*ScenarioRun, error) {
	if sc.ForcingFile == "" {
		return nil, fmt.Errorf("scenario %s: no forcing file configured", sc.Name)
	}

	inputs, err := forcing.ReadFile(sc.ForcingFile)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	params := sc.Parameters.Model()
	started := time.Now()
	res, runErr := hydro.Run(params, inputs)
	record := storage.NewRunRecord(sc.Name, started, params, inputs, res, runErr)

	a.metrics.ObserveRun(sc.Name, len(inputs), record.Duration, record.Indices, runErr)

	if err := a.store.SaveRun(ctx, record); err != nil {
		return nil, fmt.Errorf("scenario %s: could not save run: %w", sc.Name, err)
	}

	if runErr != nil {
		a.logger.Errorw("run failed", "scenario", sc.Name, "run_id", record.ID, "periods", len(inputs), "error", runErr)
		return &ScenarioRun{Scenario: sc, Record: record, Result: res}, fmt.Errorf("scenario %s: %w", sc.Name, runErr)
	}

	a.logger.Infow("run complete",
		"scenario", sc.Name,
		"run_id", record.ID,
		"periods", len(inputs),
		"pbias", res.Indices.PBIAS,
		"nse", res.Indices.NSE,
		"r2", res.Indices.R2,
	)
	return &ScenarioRun{Scenario: sc, Record: record, Result: res}, nil
}

// RunScenarios runs the named scenarios, or all configured scenarios when
// names is empty. Scenarios run concurrently up to runner.max-parallel; one
// failing scenario does not stop the others. The returned slice is in the
// order of names and holds nil for scenarios that produced no run.
func (a *App) RunScenarios(ctx context.Context, names []string) ([]*ScenarioRun, error) {
	scenarios, err := a.selectScenarios(names)
	if err != nil {
		return nil, err
	}

	limit := a.config.Runner.MaxParallel
	if limit <= 0 {
		limit = defaultMaxParallel
	}

	runs := make([]*ScenarioRun, len(scenarios))
	errs := make([]error, len(scenarios))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("scenario %s: %w", sc.Name, err)
				return nil
			}
			runs[i], errs[i] = a.RunScenario(ctx, sc)
			return nil
		})
	}
	g.Wait()

	return runs, errors.Join(errs...)
}

func (a *App) selectScenarios(names []string) ([]config.ScenarioData, error) {
	if len(names) == 0 {
		if len(a.config.Scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios configured")
		}
		return a.config.Scenarios, nil
	}

	scenarios := make([]config.ScenarioData, 0, len(names))
	for _, name := range names {
		sc, err := a.config.FindScenario(name)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, nil
}
