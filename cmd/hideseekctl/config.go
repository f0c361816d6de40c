package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/ttacon/chalk"

	"hideseek/internal/config"
)

// loadTuning layers defaults, the optional JSON file, then HIDESEEK_
// variables. A dotenv file seeds the process environment first without
// overriding variables that are already set.
func loadTuning(envFile, configPath string, lookup func(string) (string, bool)) (config.Tuning, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Tuning{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	tuning := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath, tuning)
		if err != nil {
			return config.Tuning{}, err
		}
		tuning = loaded
	}
	tuning, err := config.ApplyEnv(tuning, lookup)
	if err != nil {
		return config.Tuning{}, err
	}
	if err := tuning.Validate(); err != nil {
		return config.Tuning{}, err
	}
	return tuning, nil
}

func rateColor(rate float64) string {
	text := fmt.Sprintf("%.3f", rate)
	switch {
	case rate >= 0.5:
		return chalk.Green.Color(text)
	case rate > 0:
		return chalk.Yellow.Color(text)
	default:
		return text
	}
}

func createdDisplay(createdAtUTC string, now time.Time) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return strings.ReplaceAll(humanize.RelTime(created, now, "ago", "from now"), " ", "_")
}

func countsDisplay(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, ",")
}
