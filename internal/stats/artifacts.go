package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hideseek/internal/model"
)

const runIndexFile = "run_index.json"

var requiredArtifacts = []string{"config.json", "summary.json", "episodes.json", "episodes.csv"}

type RunConfig struct {
	RunID           string             `json:"run_id"`
	Agent           string             `json:"agent"`
	HiderPolicy     string             `json:"hider_policy"`
	SeekerPolicy    string             `json:"seeker_policy"`
	Layout          string             `json:"layout"`
	Seed            int64              `json:"seed"`
	DurationSeconds float64            `json:"duration_seconds"`
	Tuning          map[string]float64 `json:"tuning"`
}

type RunArtifacts struct {
	Config    RunConfig             `json:"config"`
	Summary   model.RunSummary      `json:"summary"`
	Episodes  []model.EpisodeRecord `json:"episodes"`
	Indicator []string              `json:"indicator,omitempty"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Agent        string  `json:"agent"`
	Layout       string  `json:"layout"`
	Seed         int64   `json:"seed"`
	SimSeconds   float64 `json:"sim_seconds"`
	Captures     int     `json:"captures"`
	Timeouts     int     `json:"timeouts"`
	CaptureRate  float64 `json:"capture_rate"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "episodes.json"), artifacts.Episodes); err != nil {
		return "", err
	}
	if err := WriteEpisodesCSV(filepath.Join(runDir, "episodes.csv"), artifacts.Episodes); err != nil {
		return "", err
	}
	if len(artifacts.Indicator) > 0 {
		if err := writeJSON(filepath.Join(runDir, "indicator.json"), artifacts.Indicator); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range requiredArtifacts {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	indicatorPath := filepath.Join(src, "indicator.json")
	if _, err := os.Stat(indicatorPath); err == nil {
		if err := copyFile(indicatorPath, filepath.Join(dst, "indicator.json")); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func ReadRunSummary(baseDir, runID string) (model.RunSummary, bool, error) {
	var summary model.RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, "summary.json"), &summary)
	return summary, ok, err
}

var episodeHeader = []string{"role", "index", "reward", "steps", "reason", "triggers"}

// WriteEpisodesCSV writes one row per episode; triggers are joined with ';'.
func WriteEpisodesCSV(path string, episodes []model.EpisodeRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(episodeHeader); err != nil {
		return err
	}
	for _, e := range episodes {
		if err := writer.Write([]string{
			e.Role,
			strconv.Itoa(e.Index),
			strconv.FormatFloat(e.Reward, 'f', -1, 64),
			strconv.Itoa(e.Steps),
			e.Reason,
			strings.Join(e.Triggers, ";"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadEpisodesCSV(baseDir, runID string) ([]model.EpisodeRecord, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, "episodes.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.EpisodeRecord{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < len(episodeHeader) {
		return nil, false, fmt.Errorf("episodes header must have %d columns", len(episodeHeader))
	}

	var episodes []model.EpisodeRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		index, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, false, fmt.Errorf("episode index: %w", err)
		}
		reward, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, fmt.Errorf("episode reward: %w", err)
		}
		steps, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, false, fmt.Errorf("episode steps: %w", err)
		}
		var triggers []string
		if record[5] != "" {
			triggers = strings.Split(record[5], ";")
		}
		episodes = append(episodes, model.EpisodeRecord{
			RunID:    runID,
			Role:     record[0],
			Index:    index,
			Reward:   reward,
			Steps:    steps,
			Reason:   record[4],
			Triggers: triggers,
		})
	}
	return episodes, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
