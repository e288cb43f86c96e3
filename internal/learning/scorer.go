package learning

import (
	"math"
	"sort"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/storage"
)

// recencyHalfLife is the half-life for exponential decay (24 hours).
const recencyHalfLife = 24 * time.Hour

// HistorySource reads dispatch history.
type HistorySource interface {
	GetDispatchHistory(function string, since time.Time) ([]storage.DispatchRecord, error)
}

// FunctionStats summarizes the dispatches of one function.
type FunctionStats struct {
	Function   string    `json:"function"`
	Dispatches int       `json:"dispatches"`
	Failures   int       `json:"failures"`
	MeanScore  float64   `json:"mean_score"`
	Recency    float64   `json:"recency"`
	LastUsed   time.Time `json:"last_used,omitempty"`
}

// FailureRate returns the share of dispatches whose handler failed.
func (s FunctionStats) FailureRate() float64 {
	if s.Dispatches == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Dispatches)
}

// Summarize computes stats for one function from its history.
func Summarize(function string, history []storage.DispatchRecord, now time.Time) FunctionStats {
	stats := FunctionStats{Function: function}
	if len(history) == 0 {
		return stats
	}

	var scoreSum float64
	for _, r := range history {
		stats.Dispatches++
		if r.Failed {
			stats.Failures++
		}
		scoreSum += r.Score
		if r.Timestamp.After(stats.LastUsed) {
			stats.LastUsed = r.Timestamp
		}
	}

	stats.MeanScore = scoreSum / float64(stats.Dispatches)
	stats.Recency = calculateRecency(history, now)
	return stats
}

// calculateRecency measures how recent the usage is (normalized 0-1).
// Uses exponential decay: recent usage weighted higher.
func calculateRecency(history []storage.DispatchRecord, now time.Time) float64 {
	if len(history) == 0 {
		return 0.0
	}

	weightedSum := 0.0
	for _, r := range history {
		hoursSince := now.Sub(r.Timestamp).Hours()

		// After 24 hours: weight = 0.5, after 48 hours: weight = 0.25
		weightedSum += math.Exp(-math.Ln2 * hoursSince / recencyHalfLife.Hours())
	}

	return math.Min(weightedSum/float64(len(history)), 1.0)
}

// Report summarizes dispatches since the given time for every function
// name, most dispatched first. Names without history are included with zero
// counts; ties keep the input order.
func Report(src HistorySource, functions []string, since, now time.Time) ([]FunctionStats, error) {
	report := make([]FunctionStats, 0, len(functions))

	for _, name := range functions {
		history, err := src.GetDispatchHistory(name, since)
		if err != nil {
			return nil, err
		}
		report = append(report, Summarize(name, history, now))
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Dispatches > report[j].Dispatches
	})

	return report, nil
}
