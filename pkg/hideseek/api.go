package hideseek

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hideseek/internal/arena"
	"hideseek/internal/config"
	"hideseek/internal/model"
	"hideseek/internal/platform"
	"hideseek/internal/presentation"
	"hideseek/internal/scape"
	"hideseek/internal/stats"
	"hideseek/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "hideseek.db"
	defaultDuration      = 60 * time.Second
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	// Indicator additionally receives ground indicator changes of every run.
	Indicator presentation.Indicator
}

type Client struct {
	store storage.Store
	polis *platform.Polis

	benchmarksDir string
	exportsDir    string
	indicator     presentation.Indicator
}

type RunRequest struct {
	HiderPolicy  string
	SeekerPolicy string
	Layout       string
	Duration     time.Duration
	Seed         int64
	// Tuning overrides the defaults when set.
	Tuning *config.Tuning
}

type RunSummary struct {
	RunID         string
	ArtifactsDir  string
	Frames        int
	SimTime       time.Duration
	Captures      int
	Timeouts      int
	SeekingPhases int
	CaptureRate   float64
	HiderReward   float64
	SeekerReward  float64
	Episodes      int
}

type RunsRequest struct {
	Limit int
	// FromStore lists the store's run summaries instead of the run index.
	FromStore bool
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Agent        string
	Layout       string
	Seed         int64
	SimSeconds   float64
	Captures     int
	Timeouts     int
	CaptureRate  float64
}

type EpisodesRequest struct {
	RunID  string
	Latest bool
	Role   string
	Limit  int
}

type EpisodeItem struct {
	Role     string
	Index    int
	Reward   float64
	Steps    int
	Reason   string
	Triggers []string
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

// RunDetail is one run's summary plus the config it was started with.
// Source tells whether the summary came from the store or the artifacts.
type RunDetail struct {
	Summary   model.RunSummary
	Config    stats.RunConfig
	HasConfig bool
	Source    string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		polis:         platform.NewPolis(platform.Config{Store: store}),
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
		indicator:     opts.Indicator,
	}, nil
}

func (c *Client) Close() error {
	c.polis.Stop()
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.polis.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.HiderPolicy == "" {
		req.HiderPolicy = "random"
	}
	if req.SeekerPolicy == "" {
		req.SeekerPolicy = "heuristic"
	}
	if req.Duration <= 0 {
		req.Duration = defaultDuration
	}
	tuning := config.Default()
	if req.Tuning != nil {
		tuning = *req.Tuning
	}
	if err := tuning.Validate(); err != nil {
		return RunSummary{}, err
	}
	layout, err := arena.LayoutByName(req.Layout)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := uuid.NewString()
	pair := scape.NamedPolicies{Hider: req.HiderPolicy, Seeker: req.SeekerPolicy, Seed: req.Seed}
	match, err := c.polis.RunMatch(ctx, platform.MatchConfig{
		RunID: runID,
		Scape: scape.HideSeekScape{
			Tuning:    tuning,
			Layout:    layout,
			Duration:  req.Duration,
			Indicator: c.indicator,
		},
		Agent:        pair,
		HiderPolicy:  req.HiderPolicy,
		SeekerPolicy: req.SeekerPolicy,
		Layout:       layout.Name,
		Seed:         req.Seed,
		CreatedAt:    now,
	})
	if err != nil {
		return RunSummary{}, err
	}

	indicator := make([]string, 0, len(match.Result.Indicator))
	for _, state := range match.Result.Indicator {
		indicator = append(indicator, string(state))
	}
	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:           runID,
			Agent:           pair.ID(),
			HiderPolicy:     req.HiderPolicy,
			SeekerPolicy:    req.SeekerPolicy,
			Layout:          layout.Name,
			Seed:            req.Seed,
			DurationSeconds: req.Duration.Seconds(),
			Tuning:          config.Values(tuning),
		},
		Summary:   match.Summary,
		Episodes:  match.Episodes,
		Indicator: indicator,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:        runID,
		Agent:        pair.ID(),
		Layout:       layout.Name,
		Seed:         req.Seed,
		SimSeconds:   match.Summary.SimSeconds,
		Captures:     match.Summary.Captures,
		Timeouts:     match.Summary.Timeouts,
		CaptureRate:  match.Summary.CaptureRate,
		CreatedAtUTC: now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:         runID,
		ArtifactsDir:  filepath.Clean(runDir),
		Frames:        match.Result.Frames,
		SimTime:       match.Result.SimTime,
		Captures:      match.Summary.Captures,
		Timeouts:      match.Summary.Timeouts,
		SeekingPhases: match.Summary.SeekingPhases,
		CaptureRate:   match.Summary.CaptureRate,
		HiderReward:   match.Summary.HiderReward,
		SeekerReward:  match.Summary.SeekerReward,
		Episodes:      len(match.Episodes),
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.FromStore {
		return c.storedRuns(ctx, req.Limit)
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Agent:        e.Agent,
			Layout:       e.Layout,
			Seed:         e.Seed,
			SimSeconds:   e.SimSeconds,
			Captures:     e.Captures,
			Timeouts:     e.Timeouts,
			CaptureRate:  e.CaptureRate,
		})
	}
	return out, nil
}

func (c *Client) storedRuns(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	summaries, err := c.polis.Runs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(limit, len(summaries)))
	for i := len(summaries) - 1; i >= 0 && len(out) < limit; i-- {
		s := summaries[i]
		out = append(out, RunItem{
			RunID:        s.ID,
			CreatedAtUTC: s.CreatedAt.UTC().Format(time.RFC3339Nano),
			Agent:        s.Agent,
			Layout:       s.Layout,
			Seed:         s.Seed,
			SimSeconds:   s.SimSeconds,
			Captures:     s.Captures,
			Timeouts:     s.Timeouts,
			CaptureRate:  s.CaptureRate,
		})
	}
	return out, nil
}

// Show reads one run's summary from the store, falling back to its
// summary artifact, together with the recorded run config.
func (c *Client) Show(ctx context.Context, req ShowRequest) (RunDetail, error) {
	if req.RunID != "" && req.Latest {
		return RunDetail{}, errors.New("use either run id or latest")
	}
	runID := req.RunID
	if req.Latest {
		latest, err := c.latestRunID()
		if err != nil {
			return RunDetail{}, err
		}
		runID = latest
	}
	if runID == "" {
		return RunDetail{}, errors.New("show requires run id or latest")
	}
	if err := c.Init(ctx); err != nil {
		return RunDetail{}, err
	}

	detail := RunDetail{Source: "store"}
	summary, ok, err := c.polis.Run(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		detail.Source = "artifacts"
		summary, ok, err = stats.ReadRunSummary(c.benchmarksDir, runID)
		if err != nil {
			return RunDetail{}, err
		}
		if !ok {
			return RunDetail{}, fmt.Errorf("run not found: %s", runID)
		}
	}
	detail.Summary = summary

	cfg, ok, err := stats.ReadRunConfig(c.benchmarksDir, runID)
	if err != nil {
		return RunDetail{}, err
	}
	detail.Config, detail.HasConfig = cfg, ok
	return detail, nil
}

// ActiveRuns lists the runs of this client still in flight.
func (c *Client) ActiveRuns() []string {
	return c.polis.ActiveRuns()
}

// StopRun cancels an in-flight run; its Run call returns the context error.
func (c *Client) StopRun(runID string) error {
	return c.polis.StopRun(runID)
}

// Episodes lists a run's ended episodes from the store, falling back to
// the run artifacts when the store no longer holds the run.
func (c *Client) Episodes(ctx context.Context, req EpisodesRequest) ([]EpisodeItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	records, err := c.episodeRecords(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	out := make([]EpisodeItem, 0, len(records))
	for _, r := range records {
		if req.Role != "" && r.Role != req.Role {
			continue
		}
		out = append(out, EpisodeItem{
			Role:     r.Role,
			Index:    r.Index,
			Reward:   r.Reward,
			Steps:    r.Steps,
			Reason:   r.Reason,
			Triggers: append([]string(nil), r.Triggers...),
		})
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

// EpisodeStats aggregates a run's episodes per role.
func (c *Client) EpisodeStats(ctx context.Context, req EpisodesRequest) ([]stats.RoleStats, error) {
	records, err := c.episodeRecords(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	return stats.SummarizeEpisodes(records), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		latest, err := c.latestRunID()
		if err != nil {
			return ExportSummary{}, err
		}
		runID = latest
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) episodeRecords(ctx context.Context, runID string, latest bool) ([]model.EpisodeRecord, error) {
	if runID != "" && latest {
		return nil, errors.New("use either run id or latest")
	}
	if latest {
		id, err := c.latestRunID()
		if err != nil {
			return nil, err
		}
		runID = id
	}
	if runID == "" {
		return nil, errors.New("episodes requires run id or latest")
	}

	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, ok, err := c.polis.Episodes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return records, nil
	}
	records, ok, err = stats.ReadEpisodesCSV(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("episodes not found for run %s", runID)
	}
	return records, nil
}

func (c *Client) latestRunID() (string, error) {
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}
