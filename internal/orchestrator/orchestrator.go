// Package orchestrator runs the generate-check-retry loop that produces one
// unique question per request.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/questiongen"
	"github.com/persenaut/challenges/internal/similarity"
)

// DefaultMaxAttempts is the attempt budget per request.
const DefaultMaxAttempts = 3

// State is a step of the generation loop.
type State int

const (
	StateGenerating State = iota
	StateChecking
	StateRetrying
	StateAccepted
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateChecking:
		return "checking"
	case StateRetrying:
		return "retrying"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted
}

// Transition describes one state change.
type Transition struct {
	From, To State

	// Attempt is the zero-based attempt the transition belongs to.
	Attempt int

	// Verdict is set when leaving StateChecking.
	Verdict *similarity.Verdict

	// Err is set when a generation attempt failed.
	Err error
}

// Observer receives every transition. It must not block.
type Observer func(Transition)

// Input is the request-scoped context of one run.
type Input struct {
	Theme string
	Level string

	// History holds stored question texts for the pair, oldest first. In-run
	// candidates are appended after it, so the generator sees the newest
	// priors last and keeps those when it truncates the list.
	History []string
}

// Result is an accepted question.
type Result struct {
	Question *challenge.GeneratedQuestion

	// Attempts is how many attempts were used, including the accepted one.
	Attempts int

	// Candidates are every text generated during the run, in order.
	Candidates []string
}

// Orchestrator couples a generator with a similarity checker.
type Orchestrator struct {
	gen         questiongen.Generator
	checker     *similarity.Checker
	maxAttempts int
	observer    Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxAttempts sets the attempt budget. Values below 1 keep the default.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.maxAttempts = n
		}
	}
}

// WithObserver installs a transition hook.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New creates an Orchestrator.
func New(gen questiongen.Generator, checker *similarity.Checker, opts ...Option) *Orchestrator {
	o := &Orchestrator{gen: gen, checker: checker, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MaxAttempts returns the configured attempt budget.
func (o *Orchestrator) MaxAttempts() int { return o.maxAttempts }

// Run drives a Machine to a terminal state.
//
// It returns the accepted question, or:
//   - *challenge.UniquenessExhausted when every candidate collided,
//   - the last *challenge.GenerationFailure when no candidate was produced,
//   - *challenge.ConfigurationError or the context error immediately.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	m := o.NewMachine(in)
	for !m.State().Terminal() {
		if err := m.Step(ctx); err != nil {
			return nil, err
		}
	}
	return m.Result()
}

// NewMachine returns a Machine in StateGenerating at attempt 0.
func (o *Orchestrator) NewMachine(in Input) *Machine {
	return &Machine{o: o, in: in}
}

// Machine holds the state of one run. It is not safe for concurrent use.
type Machine struct {
	o  *Orchestrator
	in Input

	state      State
	attempt    int
	current    *challenge.GeneratedQuestion
	candidates []string
	lastErr    error
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Attempt returns the zero-based index of the current attempt.
func (m *Machine) Attempt() int { return m.attempt }

// Candidates returns the texts generated so far.
func (m *Machine) Candidates() []string { return m.candidates }

// Step performs one transition. It returns an error only when the run must
// be abandoned: context cancellation or a configuration error.
func (m *Machine) Step(ctx context.Context) error {
	switch m.state {
	case StateGenerating:
		return m.generate(ctx)
	case StateChecking:
		m.check()
	case StateRetrying:
		m.to(Transition{To: StateGenerating, Attempt: m.attempt})
	}
	return nil
}

func (m *Machine) generate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	priors := make([]string, 0, len(m.in.History)+len(m.candidates))
	priors = append(priors, m.in.History...)
	priors = append(priors, m.candidates...)

	q, err := m.o.gen.Generate(ctx, questiongen.Input{
		Theme:          m.in.Theme,
		Level:          m.in.Level,
		Attempt:        m.attempt,
		PriorQuestions: priors,
	})
	if err != nil {
		var cfgErr *challenge.ConfigurationError
		if errors.As(err, &cfgErr) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		m.lastErr = err
		m.fail(Transition{Attempt: m.attempt, Err: err})
		return nil
	}

	m.current = q
	m.candidates = append(m.candidates, q.Text)
	m.to(Transition{To: StateChecking, Attempt: m.attempt})
	return nil
}

func (m *Machine) check() {
	// The current candidate is the last entry; it must not be compared
	// against itself.
	n := len(m.candidates) - 1
	priors := make([]string, 0, len(m.in.History)+n)
	priors = append(priors, m.in.History...)
	priors = append(priors, m.candidates[:n]...)

	v := m.o.checker.Check(m.current.Text, priors)
	if v.Unique {
		m.to(Transition{To: StateAccepted, Attempt: m.attempt, Verdict: &v})
		return
	}
	m.fail(Transition{Attempt: m.attempt, Verdict: &v})
}

// fail consumes the current attempt and moves to Retrying or Exhausted.
func (m *Machine) fail(t Transition) {
	t.To = StateRetrying
	if m.attempt+1 >= m.o.maxAttempts {
		t.To = StateExhausted
	}
	m.to(t)
	if t.To == StateRetrying {
		m.attempt++
	}
}

func (m *Machine) to(t Transition) {
	t.From = m.state
	m.state = t.To
	if m.o.observer != nil {
		m.o.observer(t)
	}
}

// Result returns the outcome of a terminal machine.
func (m *Machine) Result() (*Result, error) {
	switch m.state {
	case StateAccepted:
		return &Result{
			Question:   m.current,
			Attempts:   m.attempt + 1,
			Candidates: m.candidates,
		}, nil
	case StateExhausted:
		if len(m.candidates) > 0 {
			return nil, &challenge.UniquenessExhausted{
				Attempts:    m.attempt + 1,
				LastAttempt: m.candidates[len(m.candidates)-1],
			}
		}
		return nil, m.lastErr
	default:
		return nil, fmt.Errorf("orchestrator: no result in state %s", m.state)
	}
}

// LogObserver logs transitions at debug level.
func LogObserver(logger *zap.Logger) Observer {
	return func(t Transition) {
		fields := []zap.Field{
			zap.Stringer("from", t.From),
			zap.Stringer("to", t.To),
			zap.Int("attempt", t.Attempt),
		}
		if t.Verdict != nil {
			fields = append(fields,
				zap.Bool("unique", t.Verdict.Unique),
				zap.String("reason", t.Verdict.Reason),
				zap.Float64("score", t.Verdict.Score),
			)
		}
		if t.Err != nil {
			fields = append(fields, zap.Error(t.Err))
		}
		logger.Debug("orchestrator transition", fields...)
	}
}
