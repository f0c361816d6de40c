package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"hideseek/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion stamps new records.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRunSummary(run model.RunSummary) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunSummary{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return run, nil
}

func EncodeEpisodes(episodes []model.EpisodeRecord) ([]byte, error) {
	return json.Marshal(episodes)
}

func DecodeEpisodes(data []byte) ([]model.EpisodeRecord, error) {
	var episodes []model.EpisodeRecord
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, err
	}
	for _, episode := range episodes {
		if err := checkVersion(episode.VersionedRecord); err != nil {
			return nil, fmt.Errorf("%s episode %d: %w", episode.Role, episode.Index, err)
		}
	}
	return episodes, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
