// Package handler turns one inbound request into one stored, unique
// challenge question.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/samber/lo/mutable"
	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/orchestrator"
)

// Defaults for Config.
const (
	DefaultHistoryLimit = 5
	DefaultStoreTimeout = 5 * time.Second
)

// Config bounds the store interaction of one request.
type Config struct {
	// HistoryLimit is how many stored questions are compared against.
	HistoryLimit int

	// StoreTimeout bounds each store read and write.
	StoreTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{HistoryLimit: DefaultHistoryLimit, StoreTimeout: DefaultStoreTimeout}
}

// Readiness is implemented by backends that can check their credential
// before any work is done.
type Readiness interface {
	Ready(ctx context.Context) error
}

// Outcome is the successful result of Handle.
type Outcome struct {
	ID        string `json:"id"`
	Challenge string `json:"challenge"`
	Theme     string `json:"theme"`
	Level     string `json:"level"`
	Attempts  int    `json:"attempts"`
	Model     string `json:"model,omitempty"`
}

// Handler wires the gateway and the orchestrator together.
type Handler struct {
	gateway  challenge.Gateway
	orch     *orchestrator.Orchestrator
	ready    Readiness
	cfg      Config
	logger   *zap.Logger
	validate *validator.Validate
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadiness installs a credential preflight.
func WithReadiness(r Readiness) Option {
	return func(h *Handler) { h.ready = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler. Zero fields in cfg take their defaults.
func New(gateway challenge.Gateway, orch *orchestrator.Orchestrator, cfg Config, opts ...Option) *Handler {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	h := &Handler{
		gateway:  gateway,
		orch:     orch,
		cfg:      cfg,
		logger:   zap.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle validates req, generates a question unique against the recent
// history of the pair and stores it.
//
// Errors are one of the challenge error types or a context error.
func (h *Handler) Handle(ctx context.Context, req challenge.Request) (*Outcome, error) {
	req = req.Normalize()
	if err := h.Validate(req); err != nil {
		return nil, err
	}

	if h.ready != nil {
		if err := h.ready.Ready(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var cfgErr *challenge.ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			return nil, &challenge.ConfigurationError{Err: err}
		}
	}

	log := h.logger.With(zap.String("theme", req.Theme), zap.String("level", req.Level))

	history := h.history(ctx, log, req)

	res, err := h.orch.Run(ctx, orchestrator.Input{
		Theme:   req.Theme,
		Level:   req.Level,
		History: oldestFirst(history),
	})
	if err != nil {
		log.Info("generation ended without a question", zap.Error(err))
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saveCtx, cancel := context.WithTimeout(ctx, h.cfg.StoreTimeout)
	defer cancel()
	stored, err := h.gateway.Save(saveCtx, *res.Question, req.Theme, req.Level)
	if err != nil {
		return nil, &challenge.PersistenceFailure{Op: "save", Err: err}
	}

	log.Info("challenge stored",
		zap.String("id", stored.ID),
		zap.Int("attempts", res.Attempts),
		zap.String("model", stored.SourceModel),
	)

	return &Outcome{
		ID:        stored.ID,
		Challenge: stored.Text,
		Theme:     req.Theme,
		Level:     req.Level,
		Attempts:  res.Attempts,
		Model:     stored.SourceModel,
	}, nil
}

// oldestFirst returns the texts of records, which FetchRecent yields newest
// first, in the order the orchestrator expects.
func oldestFirst(records []challenge.StoredQuestion) []string {
	texts := challenge.Texts(records)
	mutable.Reverse(texts)
	return texts
}

// history loads the recent questions of the pair. A failed read is logged
// and treated as an empty history.
func (h *Handler) history(ctx context.Context, log *zap.Logger, req challenge.Request) []challenge.StoredQuestion {
	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.StoreTimeout)
	defer cancel()

	records, err := h.gateway.FetchRecent(fetchCtx, req.Theme, req.Level, h.cfg.HistoryLimit)
	if err != nil {
		log.Warn("history fetch failed, continuing without history",
			zap.Error(&challenge.PersistenceFailure{Op: "fetch", Err: err}))
		return nil
	}
	return records
}

// Recent returns up to limit stored questions of the pair, newest first.
func (h *Handler) Recent(ctx context.Context, theme, level string, limit int) ([]challenge.StoredQuestion, error) {
	req := challenge.Request{Theme: theme, Level: level}.Normalize()
	if err := h.Validate(req); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = h.cfg.HistoryLimit
	}

	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.StoreTimeout)
	defer cancel()
	records, err := h.gateway.FetchRecent(fetchCtx, req.Theme, req.Level, limit)
	if err != nil {
		return nil, &challenge.PersistenceFailure{Op: "fetch", Err: err}
	}
	return records, nil
}

// MissingFieldsMessage is the message of a request that lacks a field.
const MissingFieldsMessage = "Faltan campos obligatorios: 'tematica' y/o 'nivel'"

// Validate checks the request fields. It returns nil or a
// *challenge.ValidationError naming the offending fields.
func (h *Handler) Validate(req challenge.Request) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &challenge.ValidationError{Message: err.Error()}
	}

	missing := lo.Filter(fieldErrs, func(fe validator.FieldError, _ int) bool {
		return fe.Tag() == "required"
	})
	if len(missing) > 0 {
		names := lo.Map(missing, func(fe validator.FieldError, _ int) string {
			return jsonName(fe.Field())
		})
		return &challenge.ValidationError{Field: strings.Join(names, ","), Message: MissingFieldsMessage}
	}

	first := fieldErrs[0]
	return &challenge.ValidationError{
		Field:   jsonName(first.Field()),
		Message: fmt.Sprintf("'%s' no puede superar %s caracteres", jsonName(first.Field()), first.Param()),
	}
}

func jsonName(field string) string {
	switch field {
	case "Theme":
		return "tematica"
	case "Level":
		return "nivel"
	default:
		return strings.ToLower(field)
	}
}
