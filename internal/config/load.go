package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override, e.g. HIDESEEK_HIDING_TIME.
const EnvPrefix = "HIDESEEK_"

type field struct {
	key string
	get func(*Tuning) float64
	set func(*Tuning, float64)
}

func floatField(key string, ptr func(*Tuning) *float64) field {
	return field{
		key: key,
		get: func(t *Tuning) float64 { return *ptr(t) },
		set: func(t *Tuning, v float64) { *ptr(t) = v },
	}
}

// secondsField maps a duration to a float number of seconds.
func secondsField(key string, ptr func(*Tuning) *time.Duration) field {
	return field{
		key: key,
		get: func(t *Tuning) float64 { return ptr(t).Seconds() },
		set: func(t *Tuning, v float64) { *ptr(t) = time.Duration(math.Round(v * float64(time.Second))) },
	}
}

var fields = []field{
	secondsField("hiding_time", func(t *Tuning) *time.Duration { return &t.Phase.HidingTime }),
	secondsField("seeking_time", func(t *Tuning) *time.Duration { return &t.Phase.SeekingTime }),
	floatField("catch_reward", func(t *Tuning) *float64 { return &t.Phase.CatchReward }),

	secondsField("fixed_delta", func(t *Tuning) *time.Duration { return &t.Motion.FixedDelta }),
	floatField("movement_speed", func(t *Tuning) *float64 { return &t.Motion.MovementSpeed }),
	floatField("rotation_speed", func(t *Tuning) *float64 { return &t.Motion.RotationSpeed }),

	floatField("hidden_reward", func(t *Tuning) *float64 { return &t.Hider.HiddenReward }),
	floatField("not_hidden_penalty", func(t *Tuning) *float64 { return &t.Hider.NotHiddenPenalty }),
	floatField("running_away_bonus", func(t *Tuning) *float64 { return &t.Hider.RunningAwayBonus }),
	floatField("running_away_floor", func(t *Tuning) *float64 { return &t.Hider.RunningAwayFloor }),
	floatField("hidden_trickle", func(t *Tuning) *float64 { return &t.Hider.HiddenTrickle }),
	floatField("approach_cover_reward", func(t *Tuning) *float64 { return &t.Hider.ApproachCoverReward }),
	floatField("approach_cover_radius", func(t *Tuning) *float64 { return &t.Hider.ApproachCoverRadius }),
	floatField("relocation_bonus", func(t *Tuning) *float64 { return &t.Hider.RelocationBonus }),
	floatField("relocation_radius", func(t *Tuning) *float64 { return &t.Hider.RelocationRadius }),
	secondsField("relocation_window", func(t *Tuning) *time.Duration { return &t.Hider.RelocationWindow }),
	floatField("facing_reward", func(t *Tuning) *float64 { return &t.Hider.FacingReward }),
	floatField("facing_angle", func(t *Tuning) *float64 { return &t.Hider.FacingAngle }),
	floatField("not_facing_penalty", func(t *Tuning) *float64 { return &t.Hider.NotFacingPenalty }),
	floatField("hider_wall_penalty", func(t *Tuning) *float64 { return &t.Hider.WallPenalty }),
	floatField("survived_bonus", func(t *Tuning) *float64 { return &t.Hider.SurvivedBonus }),
	floatField("early_capture_penalty", func(t *Tuning) *float64 { return &t.Hider.EarlyCapturePenalty }),
	secondsField("min_hidden_duration", func(t *Tuning) *time.Duration { return &t.Hider.MinHiddenDuration }),
	floatField("stationary_epsilon", func(t *Tuning) *float64 { return &t.Hider.StationaryEpsilon }),
	floatField("occlusion_distance", func(t *Tuning) *float64 { return &t.Hider.OcclusionDistance }),

	floatField("first_sight_reward", func(t *Tuning) *float64 { return &t.Seeker.FirstSightReward }),
	floatField("sight_trickle", func(t *Tuning) *float64 { return &t.Seeker.SightTrickle }),
	floatField("closest_reward", func(t *Tuning) *float64 { return &t.Seeker.ClosestReward }),
	floatField("closest_margin", func(t *Tuning) *float64 { return &t.Seeker.ClosestMargin }),
	floatField("approach_step", func(t *Tuning) *float64 { return &t.Seeker.ApproachStep }),
	floatField("approach_scale", func(t *Tuning) *float64 { return &t.Seeker.ApproachScale }),
	floatField("alignment_reward", func(t *Tuning) *float64 { return &t.Seeker.AlignmentReward }),
	floatField("alignment_bonus_threshold", func(t *Tuning) *float64 { return &t.Seeker.AlignmentBonusThreshold }),
	floatField("alignment_bonus_scale", func(t *Tuning) *float64 { return &t.Seeker.AlignmentBonusScale }),
	floatField("capture_reward", func(t *Tuning) *float64 { return &t.Seeker.CaptureReward }),
	floatField("seeker_wall_penalty", func(t *Tuning) *float64 { return &t.Seeker.WallPenalty }),
}

// LoadFile reads a JSON object of snake_case keys over base. Durations are
// given in seconds. Unknown keys are rejected so typos do not go unnoticed.
func LoadFile(path string, base Tuning) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	return Apply(base, raw)
}

// Apply overlays raw values onto base.
func Apply(base Tuning, raw map[string]any) (Tuning, error) {
	out := base
	known := make(map[string]field, len(fields))
	for _, f := range fields {
		known[f.key] = f
	}
	for key, value := range raw {
		f, ok := known[key]
		if !ok {
			return Tuning{}, fmt.Errorf("%w: unknown key %q", ErrInvalidTuning, key)
		}
		v, ok := asFloat64(value)
		if !ok {
			return Tuning{}, fmt.Errorf("%w: key %q must be numeric, got %T", ErrInvalidTuning, key, value)
		}
		f.set(&out, v)
	}
	return out, out.Validate()
}

// ApplyEnv overlays HIDESEEK_* variables found by lookup onto base.
func ApplyEnv(base Tuning, lookup func(string) (string, bool)) (Tuning, error) {
	out := base
	for _, f := range fields {
		name := EnvPrefix + strings.ToUpper(f.key)
		raw, ok := lookup(name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Tuning{}, fmt.Errorf("%w: %s: %v", ErrInvalidTuning, name, err)
		}
		f.set(&out, v)
	}
	return out, out.Validate()
}

// Values flattens t into the same keys LoadFile accepts.
func Values(t Tuning) map[string]float64 {
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		out[f.key] = f.get(&t)
	}
	return out
}

func asFloat64(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
