package stats

import (
	"math"
	"testing"
)

func TestSummarizeEpisodes(t *testing.T) {
	stats := SummarizeEpisodes(sampleArtifacts("run-1").Episodes)
	if len(stats) != 2 || stats[0].Role != "hider" || stats[1].Role != "seeker" {
		t.Fatalf("expected hider then seeker, got %+v", stats)
	}
	hider := stats[0]
	if hider.Episodes != 2 || math.Abs(hider.MeanReward-(-0.095)) > 1e-9 || hider.BestReward != 1.01 {
		t.Fatalf("unexpected hider stats %+v", hider)
	}
	if hider.Reasons["found"] != 1 || hider.Reasons["timeout"] != 1 {
		t.Fatalf("unexpected hider reasons %+v", hider.Reasons)
	}
	if stats[1].Triggers["first_sight"] != 1 {
		t.Fatalf("unexpected seeker triggers %+v", stats[1].Triggers)
	}
	if got := HiderSurvivals(sampleArtifacts("run-1").Episodes); got != 1 {
		t.Fatalf("expected one survival, got %d", got)
	}
	if got := SummarizeEpisodes(nil); len(got) != 0 {
		t.Fatalf("expected no stats for no episodes, got %+v", got)
	}
}
