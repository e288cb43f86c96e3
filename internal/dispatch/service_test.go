package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/prompt-dispatch/internal/automation"
	"github.com/khanglvm/prompt-dispatch/internal/codegen"
	"github.com/khanglvm/prompt-dispatch/internal/launcher"
	"github.com/khanglvm/prompt-dispatch/internal/learning"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
	"github.com/khanglvm/prompt-dispatch/internal/session"
)

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
}

func (f *fakeLauncher) Launch(_ context.Context, app launcher.App) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, app.Name)
	return 4242, nil
}

type fakeStats struct {
	cpu, ram float64
	err      error
}

func (f fakeStats) CPUPercent(context.Context) (float64, error) { return f.cpu, f.err }
func (f fakeStats) RAMPercent(context.Context) (float64, error) { return f.ram, f.err }

type recordingTracker struct {
	mu     sync.Mutex
	events []learning.DispatchEvent
}

func (r *recordingTracker) Track(e learning.DispatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type harness struct {
	svc      *Service
	launcher *fakeLauncher
	sessions *session.Memory
	tracker  *recordingTracker
}

func newHarness(t *testing.T, stats fakeStats) *harness {
	t.Helper()

	h := &harness{
		launcher: &fakeLauncher{},
		sessions: session.NewMemory(),
		tracker:  &recordingTracker{},
	}

	reg := registry.New()
	require.NoError(t, automation.Register(reg, automation.Deps{Launcher: h.launcher, Stats: stats}))

	keyword, err := search.NewIndexer()
	require.NoError(t, err)
	t.Cleanup(func() { keyword.Close() })

	idx := search.NewIndex(search.NewEmbeddingModel(search.NewHashEmbedder(1024), nil, nil), keyword, search.Options{Threshold: 0.25})
	require.NoError(t, idx.Build(context.Background(), Documents(reg.Entries())))

	h.svc, err = New(Deps{
		Resolver: idx,
		Invoker:  reg,
		Renderer: codegen.New(),
		Sessions: h.sessions,
		Tracker:  h.tracker,
	})
	require.NoError(t, err)
	return h
}

func TestExecute_OpenChromeThenListFiles(t *testing.T) {
	h := newHarness(t, fakeStats{cpu: 12.5, ram: 40})
	ctx := context.Background()

	res, err := h.svc.Execute(ctx, Request{Prompt: "Open Chrome", SessionID: "test1"})
	require.NoError(t, err)

	assert.Equal(t, "open_chrome", res.Function)
	assert.Equal(t, "open_chrome executed successfully.", res.Output)
	assert.Contains(t, res.Code, "from automation import open_chrome")
	assert.Equal(t, []string{"Open Chrome"}, res.SessionHistory)
	assert.Equal(t, []string{"chrome"}, h.launcher.launched)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	res, err = h.svc.Execute(ctx, Request{
		Prompt:    "List files",
		SessionID: "test1",
		Params:    map[string]string{"directory": dir},
	})
	require.NoError(t, err)

	assert.Equal(t, "list_files", res.Function)
	assert.Contains(t, res.Output, "notes.txt")
	assert.Contains(t, res.Code, "from automation import list_files")
	assert.Equal(t, []string{"Open Chrome", "List files"}, res.SessionHistory)
}

func TestExecute_SystemStats(t *testing.T) {
	h := newHarness(t, fakeStats{cpu: 12.5, ram: 40})

	res, err := h.svc.Execute(context.Background(), Request{Prompt: "What's my CPU usage?", SessionID: "s"})
	require.NoError(t, err)
	assert.Equal(t, "get_cpu_usage", res.Function)
	assert.Equal(t, "CPU Usage: 12.5%", res.Output)

	res, err = h.svc.Execute(context.Background(), Request{Prompt: "How much RAM is used?", SessionID: "s"})
	require.NoError(t, err)
	assert.Equal(t, "get_ram_usage", res.Function)
	assert.Equal(t, "RAM Usage: 40.0%", res.Output)
}

func TestExecute_NoMatch(t *testing.T) {
	h := newHarness(t, fakeStats{})

	res, err := h.svc.Execute(context.Background(), Request{Prompt: "tell me a joke", SessionID: "s"})
	require.NoError(t, err)

	assert.Equal(t, search.NoMatch, res.Function)
	assert.Equal(t, NoMatchOutput, res.Output)
	assert.Empty(t, res.Code)
	assert.False(t, res.Matched())
	assert.Equal(t, []string{"tell me a joke"}, res.SessionHistory)
	assert.Empty(t, h.launcher.launched)
}

func TestExecute_HandlerFailureIsReported(t *testing.T) {
	h := newHarness(t, fakeStats{err: errors.New("permission denied")})

	res, err := h.svc.Execute(context.Background(), Request{Prompt: "What's my CPU usage?", SessionID: "s"})
	require.NoError(t, err)

	assert.Equal(t, "get_cpu_usage", res.Function)
	assert.Contains(t, res.Output, "Error executing function:")
	assert.Contains(t, res.Output, "permission denied")
	require.NotNil(t, res.Err)
	assert.Equal(t, registry.KindHandler, res.Err.Kind)
	assert.NotEmpty(t, res.Code)

	require.Len(t, h.tracker.events, 1)
	assert.True(t, h.tracker.events[0].Failed)
}

func TestExecute_InvalidRequest(t *testing.T) {
	h := newHarness(t, fakeStats{})

	_, err := h.svc.Execute(context.Background(), Request{Prompt: "  ", SessionID: "s"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.svc.Execute(context.Background(), Request{Prompt: "Open Chrome"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Equal(t, 0, h.sessions.Len())
}

func TestExecute_TracksEveryDispatch(t *testing.T) {
	h := newHarness(t, fakeStats{})

	for _, p := range []string{"Open Chrome", "tell me a joke"} {
		_, err := h.svc.Execute(context.Background(), Request{Prompt: p, SessionID: "s"})
		require.NoError(t, err)
	}

	require.Len(t, h.tracker.events, 2)
	assert.Equal(t, "open_chrome", h.tracker.events[0].Function)
	assert.True(t, h.tracker.events[0].Matched)
	assert.Equal(t, search.NoMatch, h.tracker.events[1].Function)
	assert.False(t, h.tracker.events[1].Matched)
}

func TestExecuteMultiple(t *testing.T) {
	h := newHarness(t, fakeStats{cpu: 1, ram: 2})

	out, err := h.svc.ExecuteMultiple(context.Background(), []string{"Open calculator", "memory usage", "tell me a joke"}, "multi")
	require.NoError(t, err)

	require.Len(t, out.Results, 3)
	assert.Equal(t, "open_calculator", out.Results[0].Function)
	assert.Equal(t, "get_ram_usage", out.Results[1].Function)
	assert.Equal(t, search.NoMatch, out.Results[2].Function)
	assert.Equal(t, []string{"Open calculator", "memory usage", "tell me a joke"}, out.SessionHistory)

	_, err = h.svc.ExecuteMultiple(context.Background(), nil, "multi")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExecuteMultiple_RejectsBeforeRunning(t *testing.T) {
	h := newHarness(t, fakeStats{})

	_, err := h.svc.ExecuteMultiple(context.Background(), []string{"Open Chrome", "   "}, "multi")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorContains(t, err, "prompt 1")

	_, err = h.svc.ExecuteMultiple(context.Background(), []string{"Open Chrome"}, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Empty(t, h.launcher.launched)
	assert.Equal(t, 0, h.sessions.Len())
	assert.Empty(t, h.tracker.events)
}

func TestExecute_CanceledContext(t *testing.T) {
	h := newHarness(t, fakeStats{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Execute(ctx, Request{Prompt: "Open Chrome", SessionID: "s"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.launcher.launched)
	assert.Equal(t, 0, h.sessions.Len())
	assert.Empty(t, h.tracker.events)
}

// cancelingInvoker cancels the request context once the function has run.
type cancelingInvoker struct {
	Invoker
	cancel context.CancelFunc
}

func (c cancelingInvoker) Invoke(ctx context.Context, id registry.FunctionID, args registry.Args) registry.Result {
	res := c.Invoker.Invoke(ctx, id, args)
	c.cancel()
	return res
}

func TestExecute_CanceledAfterInvokeKeepsHistory(t *testing.T) {
	h := newHarness(t, fakeStats{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.svc.invoker = cancelingInvoker{Invoker: h.svc.invoker, cancel: cancel}

	res, err := h.svc.Execute(ctx, Request{Prompt: "Open Chrome", SessionID: "s"})
	require.NoError(t, err)
	assert.Equal(t, "open_chrome", res.Function)
	assert.Equal(t, []string{"Open Chrome"}, res.SessionHistory)
	assert.Equal(t, []string{"chrome"}, h.launcher.launched)

	got, err := h.svc.History(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"Open Chrome"}, got)
}

func TestHistory(t *testing.T) {
	h := newHarness(t, fakeStats{})

	_, err := h.svc.Execute(context.Background(), Request{Prompt: "Open notepad", SessionID: "h"})
	require.NoError(t, err)

	got, err := h.svc.History(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, []string{"Open notepad"}, got)

	_, err = h.svc.History(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (search.Match, error) {
	return search.Match{}, errors.New("index unavailable")
}

type failingSessions struct{}

func (failingSessions) Append(context.Context, string, string) ([]string, error) {
	return nil, errors.New("disk full")
}

func (failingSessions) History(context.Context, string) ([]string, error) {
	return nil, errors.New("disk full")
}

func TestExecute_InfrastructureErrors(t *testing.T) {
	reg := registry.New()
	require.NoError(t, automation.Register(reg, automation.Deps{Launcher: &fakeLauncher{}, Stats: fakeStats{}}))

	sessions := session.NewMemory()
	svc, err := New(Deps{Resolver: failingResolver{}, Invoker: reg, Renderer: codegen.New(), Sessions: sessions})
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), Request{Prompt: "Open Chrome", SessionID: "s"})
	assert.ErrorContains(t, err, "index unavailable")
	assert.Equal(t, 0, sessions.Len())

	h := newHarness(t, fakeStats{})
	h.svc.sessions = failingSessions{}
	_, err = h.svc.Execute(context.Background(), Request{Prompt: "Open Chrome", SessionID: "s"})
	assert.ErrorContains(t, err, "disk full")
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestDocuments(t *testing.T) {
	docs := Documents(automation.Entries(automation.Deps{}))

	require.Len(t, docs, len(registry.KnownIDs()))
	assert.Equal(t, "open_chrome", docs[0].Name)
	assert.Equal(t, "Open the Google Chrome web browser", docs[0].Text)
}
