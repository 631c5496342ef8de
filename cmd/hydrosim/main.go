package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrissnell/hydrosim/internal/app"
	"github.com/chrissnell/hydrosim/internal/constants"
	"github.com/chrissnell/hydrosim/internal/log"
	"github.com/chrissnell/hydrosim/internal/report"
	"github.com/chrissnell/hydrosim/internal/storage/sqlite"
	"github.com/chrissnell/hydrosim/pkg/config"
	"github.com/chrissnell/hydrosim/pkg/migrate"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	scenarios := flag.String("scenario", "", "Comma-separated scenarios to run (default: all configured scenarios)")
	forcingFile := flag.String("forcing", "", "Forcing file (.csv or .msgpack) overriding the scenario's; requires a single -scenario")
	xlsxPath := flag.String("xlsx", "", "Write an XLSX report to this path")
	pdfPath := flag.String("pdf", "", "Write a PDF report to this path")
	serve := flag.Bool("serve", false, "Run the REST API server instead of a batch run")
	schemaStatus := flag.Bool("schema-status", false, "Print the SQLite result database's schema version and exit")
	schemaVersion := flag.Int("schema-version", -1, "Migrate the SQLite result database to this schema version (0 reverts all) and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hydrosim %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		scenarios:     splitList(*scenarios),
		forcingFile:   *forcingFile,
		xlsxPath:      *xlsxPath,
		pdfPath:       *pdfPath,
		serve:         *serve,
		debug:         *debug,
		schemaStatus:  *schemaStatus,
	}
	if *schemaVersion >= 0 {
		opts.schemaVersion = schemaVersion
	}
	err := run(context.Background(), *cfgFile, *cfgBackend, opts)
	log.Sync()
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

type options struct {
	scenarios     []string
	forcingFile   string
	xlsxPath      string
	pdfPath       string
	serve         bool
	debug         bool
	schemaStatus  bool
	schemaVersion *int // nil unless -schema-version was given
}

func run(ctx context.Context, cfgFile, cfgBackend string, opts options) error {
	provider, err := newProvider(cfgFile, cfgBackend)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	if cfgData.Log.File != "" {
		if err := log.InitWithOptions(log.Options{
			Debug:      opts.debug,
			File:       cfgData.Log.File,
			MaxSizeMB:  cfgData.Log.MaxSizeMB,
			MaxBackups: cfgData.Log.MaxBackups,
			MaxAgeDays: cfgData.Log.MaxAgeDays,
		}); err != nil {
			return err
		}
	}

	if opts.schemaStatus || opts.schemaVersion != nil {
		return manageSchema(ctx, os.Stdout, cfgData, opts)
	}

	application, err := app.New(ctx, provider, log.GetSugaredLogger())
	if err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	defer application.Close()

	if opts.serve {
		return application.Serve(ctx)
	}

	var runs []*app.ScenarioRun
	var runErr error
	if opts.forcingFile != "" {
		if len(opts.scenarios) != 1 {
			return fmt.Errorf("-forcing requires exactly one -scenario")
		}
		sc, err := application.Config().FindScenario(opts.scenarios[0])
		if err != nil {
			return err
		}
		override := *sc
		override.ForcingFile = opts.forcingFile
		r, err := application.RunScenario(ctx, override)
		runs, runErr = []*app.ScenarioRun{r}, err
	} else {
		runs, runErr = application.RunScenarios(ctx, opts.scenarios)
	}

	var reportErrs []error
	completed := 0
	for _, r := range runs {
		if r != nil && !r.Record.Failed() {
			completed++
		}
	}
	for _, r := range runs {
		if r == nil {
			continue
		}
		if err := printRun(os.Stdout, r); err != nil {
			reportErrs = append(reportErrs, err)
		}
		if r.Record.Failed() {
			continue
		}
		if err := writeReports(r, opts, completed > 1); err != nil {
			reportErrs = append(reportErrs, err)
		}
	}

	return errors.Join(runErr, errors.Join(reportErrs...))
}

// manageSchema reports or moves the schema version of the SQLite result
// database without running any scenario
func manageSchema(ctx context.Context, w io.Writer, cfg *config.ConfigData, opts options) error {
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path == "" {
		return fmt.Errorf("schema management needs a storage.sqlite.path in the configuration")
	}
	path := cfg.Storage.SQLite.Path

	var st migrate.Status
	var err error
	if opts.schemaVersion != nil {
		st, err = sqlite.MigrateSchema(ctx, path, *opts.schemaVersion, log.GetSugaredLogger())
	} else {
		st, err = sqlite.SchemaStatus(ctx, path, log.GetSugaredLogger())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: schema version %d of %d\n", path, st.Current, st.Latest)
	for _, m := range st.Pending {
		fmt.Fprintf(w, "  pending %03d %s\n", m.Version, m.Name)
	}
	return nil
}

// printRun writes a run's text report. A run that simulated but could not be
// scored prints its storages and the scoring error instead of indices.
func printRun(w io.Writer, r *app.ScenarioRun) error {
	if r.Record.Failed() {
		if len(r.Result.Outputs) == 0 {
			return nil
		}
		if err := report.WriteStorages(w, r.Scenario.Name, r.Result); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\nindices unavailable: %s\n\n", r.Record.Error)
		return err
	}
	if err := report.WriteText(w, r.Scenario.Name, r.Result); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func newProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

func writeReports(r *app.ScenarioRun, opts options, multi bool) error {
	params := r.Scenario.Parameters.Model()

	if opts.xlsxPath != "" {
		data, err := report.BuildXLSX(r.Scenario.Name, params, r.Result)
		if err != nil {
			return fmt.Errorf("scenario %s: building XLSX report: %w", r.Scenario.Name, err)
		}
		path := reportPath(opts.xlsxPath, r.Scenario.Name, multi)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("scenario %s: %w", r.Scenario.Name, err)
		}
		log.Infof("wrote XLSX report %s", path)
	}

	if opts.pdfPath != "" {
		data, err := report.BuildPDF(r.Scenario.Name, params, r.Result)
		if err != nil {
			return fmt.Errorf("scenario %s: building PDF report: %w", r.Scenario.Name, err)
		}
		path := reportPath(opts.pdfPath, r.Scenario.Name, multi)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("scenario %s: %w", r.Scenario.Name, err)
		}
		log.Infof("wrote PDF report %s", path)
	}

	return nil
}

// reportPath inserts the scenario name before the extension when several
// scenarios share one -xlsx or -pdf path
func reportPath(path, scenario string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + scenario + ext
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
