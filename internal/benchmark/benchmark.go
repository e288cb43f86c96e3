/*
Package benchmark measures retrieval quality and latency.

Each registered function carries sample prompts. The benchmark resolves every
sample and reports how many land on the function they were written for, plus
resolution latency percentiles.
*/
package benchmark

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
)

// Resolver is the index under test.
type Resolver interface {
	Resolve(ctx context.Context, prompt string) (search.Match, error)
}

// Case is one prompt and the function it should resolve to.
type Case struct {
	Prompt string `json:"prompt"`
	Want   string `json:"want"`
}

// Miss records a case that resolved elsewhere.
type Miss struct {
	Case
	Got   string  `json:"got"`
	Score float64 `json:"score"`
}

// LatencyStats summarizes resolution latency.
type LatencyStats struct {
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	Max  time.Duration `json:"max"`
}

// BenchmarkResult contains the outcome of a run.
type BenchmarkResult struct {
	Model     string       `json:"model"`
	Threshold float64      `json:"threshold"`
	Cases     int          `json:"cases"`
	Correct   int          `json:"correct"`
	Accuracy  float64      `json:"accuracy"`
	Misses    []Miss       `json:"misses,omitempty"`
	Latency   LatencyStats `json:"latency"`
}

// Options configures a run.
type Options struct {
	// Repeat resolves every case this many times for latency sampling.
	// Accuracy is taken from the first pass.
	Repeat int

	Model     string
	Threshold float64
}

// CasesFromEntries builds cases from each entry's examples and its own
// description.
func CasesFromEntries(entries []registry.Entry) []Case {
	var cases []Case
	for _, e := range entries {
		cases = append(cases, Case{Prompt: e.Description, Want: string(e.ID)})
		for _, ex := range e.Examples {
			cases = append(cases, Case{Prompt: ex, Want: string(e.ID)})
		}
	}
	return cases
}

// RunBenchmark resolves every case and scores the results.
func RunBenchmark(ctx context.Context, r Resolver, cases []Case, opts Options) (*BenchmarkResult, error) {
	repeat := opts.Repeat
	if repeat <= 0 {
		repeat = 1
	}

	result := &BenchmarkResult{
		Model:     opts.Model,
		Threshold: opts.Threshold,
		Cases:     len(cases),
	}
	if len(cases) == 0 {
		return result, nil
	}

	latencies := make([]time.Duration, 0, len(cases)*repeat)

	for pass := 0; pass < repeat; pass++ {
		for _, c := range cases {
			start := time.Now()
			m, err := r.Resolve(ctx, c.Prompt)
			latencies = append(latencies, time.Since(start))
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", c.Prompt, err)
			}

			if pass > 0 {
				continue
			}
			if m.Function == c.Want {
				result.Correct++
			} else {
				result.Misses = append(result.Misses, Miss{Case: c, Got: m.Function, Score: m.Score})
			}
		}
	}

	result.Accuracy = float64(result.Correct) / float64(result.Cases) * 100
	result.Latency = summarize(latencies)
	return result, nil
}

func summarize(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, l := range sorted {
		total += l
	}

	return LatencyStats{
		Mean: total / time.Duration(len(sorted)),
		P50:  percentile(sorted, 50),
		P95:  percentile(sorted, 95),
		Max:  sorted[len(sorted)-1],
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// FormatResult formats the benchmark result for display.
func FormatResult(result *BenchmarkResult) string {
	var sb strings.Builder

	sb.WriteString("╔══════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║              RETRIEVAL BENCHMARK RESULTS                     ║\n")
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("  Model:      %s\n", result.Model))
	sb.WriteString(fmt.Sprintf("  Threshold:  %.2f\n", result.Threshold))
	sb.WriteString(fmt.Sprintf("  Accuracy:   %d/%d (%.1f%%)\n", result.Correct, result.Cases, result.Accuracy))
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("  Latency:    mean %v  p50 %v  p95 %v  max %v\n",
		result.Latency.Mean, result.Latency.P50, result.Latency.P95, result.Latency.Max))

	if len(result.Misses) > 0 {
		sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
		sb.WriteString("  Misses:\n")
		for _, m := range result.Misses {
			sb.WriteString(fmt.Sprintf("    %q → %s (want %s, score %.3f)\n", m.Prompt, m.Got, m.Want, m.Score))
		}
	}

	sb.WriteString("╚══════════════════════════════════════════════════════════════╝\n")
	return sb.String()
}
