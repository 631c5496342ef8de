package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/hydrosim/internal/hydro"
	"github.com/chrissnell/hydrosim/internal/storage"
)

var testParams = hydro.Parameters{Ks: 0.1, Kc: 0.2, Kb: 1.0, Kw: 0.3, Kz: 0.1, C: 0.5}

var testInputs = []hydro.PeriodInput{
	{Precipitation: 10, Evapotranspiration: 2, ObservedDischarge: 8},
	{Precipitation: 4, Evapotranspiration: 1, ObservedDischarge: 5},
	{Precipitation: 0, Evapotranspiration: 3, ObservedDischarge: 2},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "results.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	res, err := hydro.Run(testParams, testInputs)
	if err != nil {
		t.Fatalf("hydro.Run failed: %v", err)
	}
	run := storage.NewRunRecord("upper", time.Now(), testParams, testInputs, res, nil)

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.Scenario != "upper" || got.Parameters != testParams {
		t.Errorf("unexpected run header: %+v", got)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("started at = %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.Duration != run.Duration {
		t.Errorf("duration = %v, want %v", got.Duration, run.Duration)
	}
	if len(got.Inputs) != len(testInputs) || len(got.Outputs) != len(res.Outputs) {
		t.Fatalf("got %d inputs and %d outputs", len(got.Inputs), len(got.Outputs))
	}
	for i := range testInputs {
		if got.Inputs[i] != testInputs[i] {
			t.Errorf("input %d = %+v, want %+v", i, got.Inputs[i], testInputs[i])
		}
		if got.Outputs[i] != res.Outputs[i] {
			t.Errorf("output %d = %+v, want %+v", i, got.Outputs[i], res.Outputs[i])
		}
	}
	if got.Indices == nil || *got.Indices != res.Indices {
		t.Errorf("indices = %+v, want %+v", got.Indices, res.Indices)
	}
}

func TestSaveFailedRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, runErr := hydro.Run(hydro.Parameters{}, testInputs)
	if runErr == nil {
		t.Fatal("expected zero parameters to fail")
	}
	run := storage.NewRunRecord("broken", time.Now(), hydro.Parameters{}, testInputs, hydro.Result{}, runErr)

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Error != runErr.Error() {
		t.Errorf("error = %q, want %q", got.Error, runErr.Error())
	}
	if got.Indices != nil || len(got.Outputs) != 0 {
		t.Errorf("failed run has indices %+v and %d outputs", got.Indices, len(got.Outputs))
	}
	if len(got.Inputs) != len(testInputs) {
		t.Errorf("expected inputs to be kept, got %d", len(got.Inputs))
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 0, 3)
	for i, scenario := range []string{"a", "b", "a"} {
		run := &storage.RunRecord{
			ID:        uuid.New(),
			Scenario:  scenario,
			StartedAt: base.Add(time.Duration(i) * 1500 * time.Millisecond),
			Inputs:    testInputs,
		}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	list, err := store.ListRuns(ctx, "a")
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[0] {
		t.Errorf("unexpected list: %+v", list)
	}
	if list[0].Periods != len(testInputs) {
		t.Errorf("periods = %d, want %d", list[0].Periods, len(testInputs))
	}

	all, err := store.ListRuns(ctx, "")
	if err != nil || len(all) != 3 {
		t.Errorf("ListRuns(all) = %d runs, err %v", len(all), err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetRun(context.Background(), uuid.New()); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth failed: %v", err)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")
	logger := zap.NewNop().Sugar()

	store, err := New(ctx, path, logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := hydro.Run(testParams, testInputs)
	if err != nil {
		t.Fatalf("hydro.Run failed: %v", err)
	}
	run := storage.NewRunRecord("upper", time.Now(), testParams, testInputs, res, nil)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	store.Close()

	reopened, err := New(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetRun(ctx, run.ID); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestSchemaRollbackAndHealth(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")
	logger := zap.NewNop().Sugar()

	store, err := New(ctx, path, logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	current, latest, err := store.SchemaVersion(ctx)
	if err != nil || current != latest || latest < 1 {
		t.Fatalf("schema version = %d/%d, err %v", current, latest, err)
	}

	st, err := MigrateSchema(ctx, path, 0, logger)
	if err != nil {
		t.Fatalf("MigrateSchema(0) failed: %v", err)
	}
	if st.Current != 0 || len(st.Pending) != latest {
		t.Errorf("after rollback: current %d, %d pending", st.Current, len(st.Pending))
	}
	if err := store.CheckHealth(ctx); err == nil {
		t.Error("expected health check to fail on a rolled back schema")
	}

	if _, err := MigrateSchema(ctx, path, latest+1, logger); err == nil {
		t.Error("expected an error migrating past the latest version")
	}

	st, err = SchemaStatus(ctx, path, logger)
	if err != nil || st.Current != 0 {
		t.Fatalf("SchemaStatus = %+v, err %v", st, err)
	}

	reopened, err := New(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if err := reopened.CheckHealth(ctx); err != nil {
		t.Errorf("CheckHealth after reopen failed: %v", err)
	}
}
