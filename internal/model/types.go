package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunSummary is the persisted outcome of one simulated hide-and-seek run.
type RunSummary struct {
	VersionedRecord
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Agent          string    `json:"agent"`
	HiderPolicy    string    `json:"hider_policy"`
	SeekerPolicy   string    `json:"seeker_policy"`
	Layout         string    `json:"layout"`
	Seed           int64     `json:"seed"`
	SimSeconds     float64   `json:"sim_seconds"`
	Frames         int       `json:"frames"`
	Captures       int       `json:"captures"`
	Timeouts       int       `json:"timeouts"`
	SeekingPhases  int       `json:"seeking_phases"`
	CaptureRate    float64   `json:"capture_rate"`
	HiderReward    float64   `json:"hider_reward"`
	SeekerReward   float64   `json:"seeker_reward"`
	HiderEpisodes  int       `json:"hider_episodes"`
	SeekerEpisodes int       `json:"seeker_episodes"`
}

// EpisodeRecord is one ended agent episode.
type EpisodeRecord struct {
	VersionedRecord
	RunID    string   `json:"run_id"`
	Role     string   `json:"role"`
	Index    int      `json:"index"`
	Reward   float64  `json:"reward"`
	Steps    int      `json:"steps"`
	Reason   string   `json:"reason"`
	Triggers []string `json:"triggers,omitempty"`
}
