/*
Package dispatch turns a prompt into an executed automation function.

For each prompt the service resolves the best function, invokes it behind the
registry's failure boundary, renders the equivalent script and appends the
prompt to the caller's session history.
*/
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/learning"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
	"github.com/khanglvm/prompt-dispatch/internal/session"
)

// NoMatchOutput is the output returned when no function resolves.
const NoMatchOutput = "No matching function found"

// ErrInvalidRequest marks requests rejected before any work is done.
var ErrInvalidRequest = errors.New("invalid request")

// Resolver finds the function for a prompt.
type Resolver interface {
	Resolve(ctx context.Context, prompt string) (search.Match, error)
}

// Invoker runs a function.
type Invoker interface {
	Invoke(ctx context.Context, id registry.FunctionID, args registry.Args) registry.Result
}

// Renderer produces the script for a function.
type Renderer interface {
	Render(name string) (string, error)
}

// Tracker receives an event per dispatch.
type Tracker interface {
	Track(event learning.DispatchEvent)
}

// Request is one prompt to dispatch.
type Request struct {
	Prompt    string
	SessionID string
	Params    map[string]string
}

// Result is the outcome of a dispatch.
type Result struct {
	Function       string   `json:"function"`
	Output         string   `json:"output"`
	Code           string   `json:"code"`
	SessionHistory []string `json:"session_history"`

	Score  float64             `json:"-"`
	Method string              `json:"-"`
	Err    *registry.ExecError `json:"-"`
}

// Matched reports whether a function was resolved.
func (r *Result) Matched() bool {
	return r.Function != search.NoMatch
}

// MultiResult is the outcome of ExecuteMultiple.
type MultiResult struct {
	SessionHistory []string  `json:"session_history"`
	Results        []*Result `json:"results"`
}

// Deps are the collaborators of a Service.
type Deps struct {
	Resolver Resolver
	Invoker  Invoker
	Renderer Renderer
	Sessions session.Store

	// Tracker is optional.
	Tracker Tracker

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service dispatches prompts.
type Service struct {
	resolver Resolver
	invoker  Invoker
	renderer Renderer
	sessions session.Store
	tracker  Tracker
	logger   *slog.Logger
}

// New creates a service. Resolver, Invoker, Renderer and Sessions are
// required.
func New(deps Deps) (*Service, error) {
	if deps.Resolver == nil || deps.Invoker == nil || deps.Renderer == nil || deps.Sessions == nil {
		return nil, errors.New("dispatch: resolver, invoker, renderer and session store are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: deps.Resolver,
		invoker:  deps.Invoker,
		renderer: deps.Renderer,
		sessions: deps.Sessions,
		tracker:  deps.Tracker,
		logger:   logger,
	}, nil
}

// Execute dispatches one prompt. A prompt that resolves to nothing is not an
// error: the result names the "none" function. Errors are returned for
// invalid requests and infrastructure failures only.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req.Prompt, req.SessionID); err != nil {
		return nil, err
	}

	start := time.Now()

	match, err := s.resolver.Resolve(ctx, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prompt: %w", err)
	}

	res := &Result{Score: match.Score, Method: match.Method}

	if !match.Matched() {
		res.Function = search.NoMatch
		res.Output = NoMatchOutput
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inv := s.invoker.Invoke(ctx, registry.FunctionID(match.Function), registry.Args(req.Params))

		code, err := s.renderer.Render(match.Function)
		if err != nil {
			return nil, err
		}

		res.Function = match.Function
		res.Output = inv.Text()
		res.Code = code
		res.Err = inv.Err
	}

	// The function may already have run; record the prompt even if the
	// caller has gone away.
	history, err := s.sessions.Append(context.WithoutCancel(ctx), req.SessionID, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to update session history: %w", err)
	}
	res.SessionHistory = history

	if s.tracker != nil {
		s.tracker.Track(learning.NewDispatchEvent(res.Function, req.SessionID, req.Prompt, res.Score, res.Matched(), res.Err != nil))
	}

	attrs := []any{
		"function", res.Function,
		"score", res.Score,
		"method", res.Method,
		"duration", time.Since(start),
	}
	if res.Err != nil {
		s.logger.Warn("function failed", append(attrs, "kind", res.Err.Kind, "error", res.Err.Message)...)
	} else {
		s.logger.Info("prompt dispatched", attrs...)
	}

	return res, nil
}

// ExecuteMultiple dispatches prompts in order within one session and
// returns each result plus the final history. Every prompt is validated
// before the first one runs.
func (s *Service) ExecuteMultiple(ctx context.Context, prompts []string, sessionID string) (*MultiResult, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: prompts must not be empty", ErrInvalidRequest)
	}
	for i, prompt := range prompts {
		if err := validate(prompt, sessionID); err != nil {
			return nil, fmt.Errorf("prompt %d: %w", i, err)
		}
	}

	out := &MultiResult{Results: make([]*Result, 0, len(prompts))}
	for i, prompt := range prompts {
		res, err := s.Execute(ctx, Request{Prompt: prompt, SessionID: sessionID})
		if err != nil {
			return nil, fmt.Errorf("prompt %d: %w", i, err)
		}
		out.Results = append(out.Results, res)
		out.SessionHistory = res.SessionHistory
	}
	return out, nil
}

func validate(prompt, sessionID string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if sessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	}
	return nil
}

// History returns the prompts of a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	}
	return s.sessions.History(ctx, sessionID)
}
