package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/roteiro/internal/llm"
	"github.com/mohammad-safakhou/roteiro/internal/telemetry"
)

// State is the accumulated mapping of stage outputs produced so far in a
// single pipeline run. It grows monotonically: once a stage writes its key
// the entry is never mutated again.
type State map[string]string

// Set writes a stage output. Overwriting an existing key is a bug in the
// stage wiring, not a runtime condition, so it is rejected outright.
func (s State) Set(key, text string) error {
	if _, ok := s[key]; ok {
		return fmt.Errorf("output key %q already written", key)
	}
	s[key] = text
	return nil
}

// Get returns the output for key, or the empty string when the stage has
// not run yet.
func (s State) Get(key string) string {
	return s[key]
}

// Has reports whether a stage has written its output.
func (s State) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Stage is one step of the pipeline producing exactly one named output.
// Build constructs the system and human instruction text from the request
// (captured by the closure) and every prior output the stage needs.
type Stage struct {
	Name  string
	Key   string
	Build func(s State) (system, human string)
}

// StageError names the stage whose generation failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is a successful pipeline run: every stage key present in Outputs.
type Result struct {
	RunID   string
	Outputs State
	Elapsed time.Duration
}

// Pipeline threads a State through a fixed ordered list of stages. The
// capability is caller-owned and injected at construction; the pipeline
// holds no global client and no state across runs.
type Pipeline struct {
	provider llm.Provider
	stages   []Stage
	logger   *log.Logger
	metrics  *telemetry.Telemetry
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithLogger sets the run logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTelemetry attaches metrics recording.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(p *Pipeline) { p.metrics = t }
}

// New creates a pipeline over the given stages. Stage names and output keys
// must be non-empty and keys unique, otherwise construction fails.
func New(provider llm.Provider, stages []Stage, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider must not be nil")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage required")
	}
	seen := make(map[string]bool, len(stages))
	for _, st := range stages {
		if st.Name == "" || st.Key == "" || st.Build == nil {
			return nil, fmt.Errorf("stage %q incompletely defined", st.Name)
		}
		if seen[st.Key] {
			return nil, fmt.Errorf("duplicate output key %q", st.Key)
		}
		seen[st.Key] = true
	}

	p := &Pipeline{
		provider: provider,
		stages:   stages,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the stages strictly in order, fail-fast. On success the
// returned Result carries every stage's output. On failure the error is a
// *StageError naming the failing stage, and the partially populated state
// is returned alongside it; callers must not assume any key beyond the last
// successful stage exists.
func (p *Pipeline) Run(ctx context.Context) (Result, State, error) {
	runID := uuid.New().String()
	state := make(State, len(p.stages))
	start := time.Now()

	p.logger.Printf("run %s: starting %d stages", runID, len(p.stages))

	for _, st := range p.stages {
		stageStart := time.Now()
		text, err := runStage(ctx, p.provider, st, state)
		if p.metrics != nil {
			p.metrics.RecordStage(st.Name, time.Since(stageStart), err == nil)
		}
		if err != nil {
			p.logger.Printf("run %s: stage %s failed after %s: %v", runID, st.Name, time.Since(stageStart), err)
			if p.metrics != nil {
				p.metrics.RecordRun(false)
			}
			return Result{}, state, &StageError{Stage: st.Name, Err: err}
		}
		if err := state.Set(st.Key, text); err != nil {
			if p.metrics != nil {
				p.metrics.RecordRun(false)
			}
			return Result{}, state, &StageError{Stage: st.Name, Err: err}
		}
		p.logger.Printf("run %s: stage %s completed in %s (%d chars)", runID, st.Name, time.Since(stageStart), len(text))
	}

	if p.metrics != nil {
		p.metrics.RecordRun(true)
	}
	return Result{RunID: runID, Outputs: state, Elapsed: time.Since(start)}, state, nil
}

// runStage builds the stage prompt and makes exactly one capability call.
// An empty or whitespace-only completion is a generation failure.
func runStage(ctx context.Context, provider llm.Provider, st Stage, state State) (string, error) {
	system, human := st.Build(state)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleHuman, Content: human},
	}

	text, err := provider.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}
