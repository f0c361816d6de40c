package stats

import (
	"sort"

	"hideseek/internal/model"
)

// RoleStats aggregates the ended episodes of one role.
type RoleStats struct {
	Role       string         `json:"role"`
	Episodes   int            `json:"episodes"`
	MeanReward float64        `json:"mean_reward"`
	BestReward float64        `json:"best_reward"`
	Reasons    map[string]int `json:"reasons"`
	Triggers   map[string]int `json:"triggers"`
}

// SummarizeEpisodes groups episodes by role, sorted by role name.
func SummarizeEpisodes(episodes []model.EpisodeRecord) []RoleStats {
	byRole := map[string]*RoleStats{}
	for _, e := range episodes {
		s, ok := byRole[e.Role]
		if !ok {
			s = &RoleStats{Role: e.Role, BestReward: e.Reward, Reasons: map[string]int{}, Triggers: map[string]int{}}
			byRole[e.Role] = s
		}
		s.Episodes++
		s.MeanReward += e.Reward
		if e.Reward > s.BestReward {
			s.BestReward = e.Reward
		}
		s.Reasons[e.Reason]++
		for _, t := range e.Triggers {
			s.Triggers[t]++
		}
	}

	out := make([]RoleStats, 0, len(byRole))
	for _, s := range byRole {
		s.MeanReward /= float64(s.Episodes)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

// HiderSurvivals counts hider episodes that ended by timeout.
func HiderSurvivals(episodes []model.EpisodeRecord) int {
	n := 0
	for _, e := range episodes {
		if e.Role == "hider" && e.Reason == "timeout" {
			n++
		}
	}
	return n
}
