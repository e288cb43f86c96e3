package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/automation"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
)

// tableResolver answers from a fixed prompt → function table.
type tableResolver map[string]string

func (t tableResolver) Resolve(_ context.Context, prompt string) (search.Match, error) {
	if fn, ok := t[prompt]; ok {
		return search.Match{Function: fn, Score: 0.9}, nil
	}
	return search.Match{Function: search.NoMatch}, nil
}

type errResolver struct{}

func (errResolver) Resolve(context.Context, string) (search.Match, error) {
	return search.Match{}, errors.New("index closed")
}

func TestCasesFromEntries(t *testing.T) {
	entries := []registry.Entry{
		{ID: registry.ListFiles, Description: "List files", Examples: []string{"ls", "dir"}},
	}

	cases := CasesFromEntries(entries)

	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}
	for _, c := range cases {
		if c.Want != "list_files" {
			t.Errorf("expected want list_files, got %s", c.Want)
		}
	}
	if cases[0].Prompt != "List files" {
		t.Errorf("description should be the first case, got %q", cases[0].Prompt)
	}
}

func TestRunBenchmark(t *testing.T) {
	cases := []Case{
		{Prompt: "Open Chrome", Want: "open_chrome"},
		{Prompt: "List files", Want: "list_files"},
		{Prompt: "weather", Want: "get_cpu_usage"},
		{Prompt: "calc", Want: "open_calculator"},
	}
	r := tableResolver{
		"Open Chrome": "open_chrome",
		"List files":  "list_files",
		"calc":        "open_notepad",
	}

	result, err := RunBenchmark(context.Background(), r, cases, Options{Repeat: 3, Model: "test"})
	if err != nil {
		t.Fatalf("RunBenchmark failed: %v", err)
	}

	if result.Cases != 4 || result.Correct != 2 {
		t.Errorf("expected 2/4 correct, got %d/%d", result.Correct, result.Cases)
	}
	if result.Accuracy != 50.0 {
		t.Errorf("expected accuracy 50%%, got %.2f", result.Accuracy)
	}
	if len(result.Misses) != 2 {
		t.Fatalf("expected 2 misses (first pass only), got %d", len(result.Misses))
	}
	if result.Misses[0].Got != search.NoMatch || result.Misses[1].Got != "open_notepad" {
		t.Errorf("unexpected misses: %+v", result.Misses)
	}
	if result.Latency.Max < result.Latency.P50 {
		t.Errorf("max latency below median: %+v", result.Latency)
	}
}

func TestRunBenchmark_Empty(t *testing.T) {
	result, err := RunBenchmark(context.Background(), tableResolver{}, nil, Options{})
	if err != nil {
		t.Fatalf("RunBenchmark failed: %v", err)
	}
	if result.Cases != 0 || result.Accuracy != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestRunBenchmark_ResolveError(t *testing.T) {
	_, err := RunBenchmark(context.Background(), errResolver{}, []Case{{Prompt: "x", Want: "y"}}, Options{})
	if err == nil {
		t.Error("expected error")
	}
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		p    int
		want time.Duration
	}{
		{50, 50 * time.Millisecond},
		{95, 95 * time.Millisecond},
		{100, 100 * time.Millisecond},
		{0, 1 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("p%d: expected %v, got %v", tt.p, tt.want, got)
		}
	}
}

// The shipped sample prompts must all resolve with the default hash
// embedder and threshold.
func TestBuiltinExamplesResolve(t *testing.T) {
	entries := automation.Entries(automation.Deps{})

	docs := make([]search.Document, len(entries))
	for i, e := range entries {
		docs[i] = search.Document{Name: string(e.ID), Text: e.Description}
	}

	idx := search.NewIndex(search.NewEmbeddingModel(search.NewHashEmbedder(1024), nil, nil), nil, search.Options{Threshold: 0.25})
	if err := idx.Build(context.Background(), docs); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := RunBenchmark(context.Background(), idx, CasesFromEntries(entries), Options{})
	if err != nil {
		t.Fatalf("RunBenchmark failed: %v", err)
	}

	if result.Correct != result.Cases {
		t.Errorf("expected every example to resolve, misses: %+v", result.Misses)
	}
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(&BenchmarkResult{
		Model:    "hash-bow-1024",
		Cases:    2,
		Correct:  1,
		Accuracy: 50,
		Misses:   []Miss{{Case: Case{Prompt: "weather", Want: "get_cpu_usage"}, Got: "none"}},
	})

	for _, want := range []string{"hash-bow-1024", "1/2 (50.0%)", `"weather" → none`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
