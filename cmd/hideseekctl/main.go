package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ttacon/chalk"

	"hideseek/internal/presentation"
	"hideseek/internal/storage"
	"hideseek/pkg/hideseek"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, chalk.Red.Color(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "episodes":
		return runEpisodes(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command %q", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "hideseek.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := hideseek.New(hideseek.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	hiderPolicy := fs.String("hider", "random", "hider policy: random|hold|heuristic")
	seekerPolicy := fs.String("seeker", "heuristic", "seeker policy: random|hold|heuristic")
	layout := fs.String("layout", "room", "arena layout: room|open")
	duration := fs.Duration("duration", 60*time.Second, "simulated time to run")
	seed := fs.Int64("seed", 1, "rng seed for random policies")
	configPath := fs.String("config", "", "optional tuning JSON path")
	envFile := fs.String("env-file", ".env", "optional dotenv file with HIDESEEK_ overrides")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "hideseek.db", "sqlite database path")
	ground := fs.Bool("ground", false, "print ground indicator changes while running")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *duration <= 0 {
		return errors.New("duration must be > 0")
	}

	tuning, err := loadTuning(*envFile, *configPath, os.LookupEnv)
	if err != nil {
		return err
	}

	opts := hideseek.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	}
	if *ground {
		opts.Indicator = presentation.NewTerminal(os.Stdout)
	}
	client, err := hideseek.New(opts)
	if err != nil {
		return err
	}
	defer client.Close()
	defer stopOnInterrupt(client)()

	summary, err := client.Run(ctx, hideseek.RunRequest{
		HiderPolicy:  *hiderPolicy,
		SeekerPolicy: *seekerPolicy,
		Layout:       *layout,
		Duration:     *duration,
		Seed:         *seed,
		Tuning:       &tuning,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Printf("run_id=%s frames=%s sim_time=%s captures=%d timeouts=%d capture_rate=%s\n",
		summary.RunID,
		humanize.Comma(int64(summary.Frames)),
		summary.SimTime,
		summary.Captures,
		summary.Timeouts,
		rateColor(summary.CaptureRate),
	)
	fmt.Printf("hider_reward=%.3f seeker_reward=%.3f episodes=%d artifacts=%s\n",
		summary.HiderReward,
		summary.SeekerReward,
		summary.Episodes,
		summary.ArtifactsDir,
	)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	fromStore := fs.Bool("from-store", false, "list run summaries from the store instead of the run index")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "hideseek.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := hideseek.New(hideseek.Options{StoreKind: *storeKind, DBPath: *dbPath, BenchmarksDir: benchmarksDir})
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.Runs(ctx, hideseek.RunsRequest{Limit: *limit, FromStore: *fromStore})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	now := time.Now().UTC()
	for _, item := range items {
		fmt.Printf("run_id=%s created=%s agent=%s layout=%s seed=%d sim_seconds=%.1f captures=%d timeouts=%d capture_rate=%s\n",
			item.RunID,
			createdDisplay(item.CreatedAtUTC, now),
			item.Agent,
			item.Layout,
			item.Seed,
			item.SimSeconds,
			item.Captures,
			item.Timeouts,
			rateColor(item.CaptureRate),
		)
	}
	return nil
}

func runEpisodes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("episodes", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "read episodes of the most recent run")
	role := fs.String("role", "", "filter by role: hider|seeker")
	limit := fs.Int("limit", 0, "max episodes to print (0 prints all)")
	summary := fs.Bool("stats", false, "print per-role aggregates instead of episodes")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "hideseek.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("episodes requires --run-id or --latest")
	}
	if *role != "" && *role != "hider" && *role != "seeker" {
		return fmt.Errorf("unsupported role: %s", *role)
	}
	if *limit < 0 {
		return errors.New("limit must be >= 0")
	}

	client, err := hideseek.New(hideseek.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	req := hideseek.EpisodesRequest{RunID: *runID, Latest: *latest, Role: *role, Limit: *limit}
	if *summary {
		roles, err := client.EpisodeStats(ctx, req)
		if err != nil {
			return err
		}
		for _, s := range roles {
			if *role != "" && s.Role != *role {
				continue
			}
			fmt.Printf("role=%s episodes=%d mean_reward=%.3f best_reward=%.3f reasons=%s triggers=%s\n",
				s.Role,
				s.Episodes,
				s.MeanReward,
				s.BestReward,
				countsDisplay(s.Reasons),
				countsDisplay(s.Triggers),
			)
		}
		return nil
	}

	episodes, err := client.Episodes(ctx, req)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Println("no episodes found")
		return nil
	}
	for _, e := range episodes {
		fmt.Printf("role=%s index=%d reward=%.3f steps=%s reason=%s triggers=%s\n",
			e.Role,
			e.Index,
			e.Reward,
			humanize.Comma(int64(e.Steps)),
			e.Reason,
			strings.Join(e.Triggers, ","),
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "hideseek.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit run detail as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("show requires --run-id or --latest")
	}

	client, err := hideseek.New(hideseek.Options{StoreKind: *storeKind, DBPath: *dbPath, BenchmarksDir: benchmarksDir})
	if err != nil {
		return err
	}
	defer client.Close()

	detail, err := client.Show(ctx, hideseek.ShowRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}

	s := detail.Summary
	fmt.Printf("run_id=%s source=%s agent=%s layout=%s seed=%d\n", s.ID, detail.Source, s.Agent, s.Layout, s.Seed)
	fmt.Printf("frames=%s sim_seconds=%.1f seeking_phases=%d captures=%d timeouts=%d capture_rate=%s\n",
		humanize.Comma(int64(s.Frames)),
		s.SimSeconds,
		s.SeekingPhases,
		s.Captures,
		s.Timeouts,
		rateColor(s.CaptureRate),
	)
	fmt.Printf("hider_reward=%.3f hider_episodes=%d seeker_reward=%.3f seeker_episodes=%d\n",
		s.HiderReward,
		s.HiderEpisodes,
		s.SeekerReward,
		s.SeekerEpisodes,
	)
	if detail.HasConfig {
		fmt.Printf("config hider=%s seeker=%s duration_seconds=%.1f tuning_keys=%d\n",
			detail.Config.HiderPolicy,
			detail.Config.SeekerPolicy,
			detail.Config.DurationSeconds,
			len(detail.Config.Tuning),
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := hideseek.New(hideseek.Options{StoreKind: "memory", BenchmarksDir: benchmarksDir, ExportsDir: *outDir})
	if err != nil {
		return err
	}
	defer client.Close()

	exported, err := client.Export(ctx, hideseek.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hideseekctl <init|run|runs|episodes|show|export> [flags]", msg)
}

// stopOnInterrupt stops the client's active runs on the first interrupt so
// a long run ends with the context error instead of killing the process.
func stopOnInterrupt(client *hideseek.Client) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			for _, id := range client.ActiveRuns() {
				_ = client.StopRun(id)
			}
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
