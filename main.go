package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"training-insights/internal/analysis"
	"training-insights/internal/config"
	"training-insights/internal/export"
	"training-insights/internal/ingest"
	"training-insights/internal/service"
	"training-insights/internal/store"
	"training-insights/internal/tui"
)

const usage = `Usage: insights <command> [flags]

Commands:
  analyze    analyze a FIT file or JSON input
  reanalyze  analyze a stored activity again
  delete     remove a stored activity
  status     recompute training load for stored athletes
  init       write an example config file
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "reanalyze":
		err = runReanalyze(ctx, os.Args[2:])
	case "delete":
		err = runDelete(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "init":
		err = runInit()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var (
		fitPath    = fs.String("fit", "", "FIT activity file")
		inputPath  = fs.String("input", "", "JSON input with activity, streams and history")
		athleteID  = fs.String("athlete", "", "Athlete whose stored history is used")
		save       = fs.Bool("save", false, "Store the activity and its metrics as history")
		exportPath = fs.String("export", "", "Write the result to a .json, .parquet or .csv file")
		interact   = fs.Bool("tui", false, "Show the report in an interactive viewer")
	)
	fs.Parse(args)

	var in analysis.Input
	var err error
	switch {
	case *fitPath != "" && *inputPath != "":
		return errors.New("use either -fit or -input, not both")
	case *fitPath != "":
		in.Activity, in.Streams, err = ingest.LoadFIT(*fitPath)
	case *inputPath != "":
		in, err = ingest.LoadInput(*inputPath)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		return fmt.Errorf("loading activity: %w", err)
	}
	if *save && *athleteID == "" {
		return errors.New("-save needs -athlete")
	}

	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewInsightsService(db, cfg.Options())
	result, err := svc.Analyze(ctx, *athleteID, in)
	if err != nil {
		return err
	}

	if *save {
		if err := svc.Save(ctx, *athleteID, in, result); err != nil {
			return err
		}
		count, err := db.CountActivities(ctx, *athleteID)
		if err != nil {
			return err
		}
		log.Printf("Saved activity %s; athlete %s has %d stored activities", in.Activity.ID, *athleteID, count)
	}

	return present(cfg, in.Activity, result, *exportPath, *interact)
}

func runReanalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reanalyze", flag.ExitOnError)
	var (
		athleteID  = fs.String("athlete", "", "Athlete whose stored history is used")
		activityID = fs.String("activity", "", "Stored activity ID (default: the athlete's latest)")
		exportPath = fs.String("export", "", "Write the result to a .json, .parquet or .csv file")
		interact   = fs.Bool("tui", false, "Show the report in an interactive viewer")
	)
	fs.Parse(args)

	if *activityID == "" && *athleteID == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewInsightsService(db, cfg.Options())
	var (
		activity analysis.ActivitySummary
		result   *analysis.Result
	)
	if *activityID == "" {
		activity, result, err = svc.ReanalyzeLatest(ctx, *athleteID)
	} else {
		activity, result, err = svc.Reanalyze(ctx, *athleteID, *activityID)
	}
	if errors.Is(err, store.ErrActivityNotFound) {
		return errors.New("no such stored activity")
	}
	if err != nil {
		return err
	}

	return present(cfg, activity, result, *exportPath, *interact)
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	activityID := fs.String("activity", "", "Stored activity ID")
	fs.Parse(args)

	if *activityID == "" {
		fs.Usage()
		os.Exit(2)
	}

	_, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteActivity(ctx, *activityID); err != nil {
		return fmt.Errorf("deleting activity %s: %w", *activityID, err)
	}
	fmt.Printf("Deleted activity %s\n", *activityID)
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	var (
		athletes = fs.String("athletes", "", "Comma-separated athlete IDs (default: every stored athlete)")
		workers  = fs.Int("workers", service.DefaultWorkers, "Athletes recomputed concurrently")
	)
	fs.Parse(args)

	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	var ids []string
	for _, id := range strings.Split(*athletes, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	svc := service.NewInsightsService(db, cfg.Options())
	results, err := svc.Status(ctx, ids, *workers)
	if err != nil {
		return fmt.Errorf("recomputing status: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No stored athletes.")
		return nil
	}

	fmt.Printf("%-20s %10s %8s %8s %6s  %-18s %s\n", "ATHLETE", "ACTIVITIES", "ACUTE", "CHRONIC", "ACWR", "RISK", "READINESS")
	for _, s := range results {
		acwr := "-"
		if s.TrainingLoad.ACWR != nil {
			acwr = fmt.Sprintf("%.2f", *s.TrainingLoad.ACWR)
		}
		fmt.Printf("%-20s %10d %8.0f %8.0f %6s  %-18s %s\n",
			s.AthleteID, s.Activities, s.TrainingLoad.AcuteLoad, s.TrainingLoad.ChronicLoad,
			acwr, s.TrainingLoad.RiskLevel, s.TrainingLoad.ReadinessLabel)
		for _, w := range s.Warnings {
			log.Printf("athlete %s: %s", s.AthleteID, w)
		}
	}
	return nil
}

func runInit() error {
	if err := config.CreateExample(); err != nil {
		return fmt.Errorf("creating example config: %w", err)
	}
	configDir, _ := config.GetConfigDir()
	fmt.Printf("Edit your athlete profile at:\n  %s/config.json\n", configDir)
	return nil
}

// open loads the config, falling back to defaults when none exists, and
// opens the history database
func open() (*config.Config, *store.Store, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		log.Println("No config file found, using defaults (run `insights init` to create one)")
		def := config.DefaultConfig()
		cfg = &def
	} else if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, nil, fmt.Errorf("config validation failed: %w (edit %s/config.json)", err, configDir)
	}

	path, err := cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, db, nil
}

func present(cfg *config.Config, activity analysis.ActivitySummary, result *analysis.Result, exportPath string, interact bool) error {
	if exportPath != "" {
		if err := export.Write(exportPath, result); err != nil {
			return fmt.Errorf("exporting result: %w", err)
		}
		log.Printf("Wrote %s", exportPath)
	}

	units := tui.NewUnits(cfg.Display)
	if !interact {
		fmt.Println(tui.RenderReport(result, activity, units))
		return nil
	}

	p := tea.NewProgram(tui.NewReportModel(result, activity, units), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
