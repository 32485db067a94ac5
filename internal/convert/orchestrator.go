// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert sequences a conversion: it validates the request through
// the workflow state machine, drives an engine session through
// load/write/run/read/exit, and assembles the result for download.
//
// The workflow is a State value advanced by the pure Transition function.
// Orchestrator holds one State and runs at most one conversion at a time.
package convert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/internal/download"
	"github.com/pdiddy/mediaconv/internal/engine"
	"github.com/pdiddy/mediaconv/pkg/types"
)

// errEngineAborted is the failure recorded when execute never returned.
var errEngineAborted = errors.New("conversion aborted: engine panicked")

// Recorder receives metadata about each conversion attempt.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder records every submitted conversion with r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator runs conversions against an engine.
type Orchestrator struct {
	engine   engine.Engine
	strategy types.Strategy
	backend  types.EngineBackend
	recorder Recorder
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// New returns an orchestrator using eng with the given strategy. An empty
// strategy means remux.
func New(eng engine.Engine, strategy types.Strategy, opts ...Option) (*Orchestrator, error) {
	if strategy == "" {
		strategy = types.StrategyRemux
	}
	if _, err := BuildArgs(strategy, "in", "out"); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		engine:   eng,
		strategy: strategy,
		backend:  types.EngineBackend(eng.Name()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Select validates file and makes it the selected file.
func (o *Orchestrator) Select(file types.SelectedFile) error {
	return o.apply(SelectFile{File: file})
}

// Choose sets the target extension.
func (o *Orchestrator) Choose(ext string) error {
	return o.apply(ChooseExtension{Extension: ext})
}

// Reset drops the selected file and returns to Idle.
func (o *Orchestrator) Reset() error {
	return o.apply(Reset{})
}

func (o *Orchestrator) apply(e Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := Transition(o.state, e)
	o.state = next
	return err
}

// Convert converts the selected file to the chosen extension. Guard
// failures are returned before the engine is touched and leave the state
// as it was. A conversion already in flight yields apperr.ErrBusy.
// Cancelling ctx kills the engine run; the session is still released.
func (o *Orchestrator) Convert(ctx context.Context) (types.ConversionResult, error) {
	o.mu.Lock()
	prev := o.state
	next, err := Transition(prev, Submit{})
	o.state = next
	o.mu.Unlock()

	if err != nil {
		if !errors.Is(err, apperr.ErrBusy) {
			o.record(ctx, prev, time.Now(), nil, err)
		}
		return types.ConversionResult{}, err
	}

	started := time.Now()
	log := o.logger.With(
		zap.String("file", next.File.Name),
		zap.String("target", next.Target),
		zap.String("strategy", string(o.strategy)),
	)
	log.Info("conversion started")

	result, err := o.settle(ctx, log, next)
	o.record(ctx, next, started, &result, err)
	if err != nil {
		log.Warn("conversion failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return types.ConversionResult{}, err
	}
	log.Info("conversion complete",
		zap.String("output", result.Filename),
		zap.Int("bytes", len(result.Data)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// settle runs execute and moves the state out of Converting on every path,
// a panic in the engine included.
func (o *Orchestrator) settle(ctx context.Context, log *zap.Logger, s State) (result types.ConversionResult, err error) {
	returned := false
	defer func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		switch {
		case !returned:
			o.state, _ = Transition(o.state, Fail{Err: errEngineAborted})
		case err != nil:
			o.state, _ = Transition(o.state, Fail{Err: err})
		default:
			o.state, _ = Transition(o.state, Succeed{Result: result})
		}
	}()
	result, err = o.execute(ctx, log, *s.File, s.Category, s.Target)
	returned = true
	return result, err
}

// execute runs one engine session. The session is released on every path.
func (o *Orchestrator) execute(ctx context.Context, log *zap.Logger, file types.SelectedFile, category types.MediaCategory, target string) (types.ConversionResult, error) {
	output := download.Filename(file.Name, target)
	args, err := BuildArgs(o.strategy, file.Name, output)
	if err != nil {
		return types.ConversionResult{}, err
	}

	sess, err := o.engine.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.ConversionResult{}, fmt.Errorf("loading engine: %w", ctxErr)
		}
		return types.ConversionResult{}, ClassifyLoadError(err)
	}
	defer func() {
		if err := sess.Exit(); err != nil {
			log.Warn("engine teardown failed", zap.Error(&apperr.TeardownWarning{Err: err}))
		}
	}()
	log.Debug("engine session opened", zap.String("engine", o.engine.Name()), zap.String("session", sess.ID()))

	if err := sess.WriteFile(file.Name, file.Data); err != nil {
		return types.ConversionResult{}, runError("write", err)
	}
	if err := sess.Run(ctx, args); err != nil {
		return types.ConversionResult{}, runError("run", err)
	}
	data, err := sess.ReadFile(output)
	if err != nil {
		return types.ConversionResult{}, runError("read", err)
	}

	return types.ConversionResult{
		Data:     data,
		MIMEType: download.MIMEType(category, target),
		Filename: output,
	}, nil
}

// record hands the attempt to the recorder. Recording failures are logged.
func (o *Orchestrator) record(ctx context.Context, s State, started time.Time, result *types.ConversionResult, err error) {
	if o.recorder == nil {
		return
	}
	rec := types.ConversionRecord{
		Category:        s.Category,
		TargetExtension: s.Target,
		Strategy:        o.strategy,
		Backend:         o.backend,
		StartedAt:       started.UTC(),
		Duration:        time.Since(started),
	}
	if s.File != nil {
		rec.SourceName = s.File.Name
		rec.SourceMIMEType = s.File.MIMEType
	}
	switch {
	case err == nil:
		rec.Outcome = types.OutcomeComplete
		rec.OutputName = result.Filename
		rec.OutputSize = int64(len(result.Data))
	case apperr.IsUserError(err) && !isMemory(err):
		rec.Outcome = types.OutcomeRejected
		rec.Error = err.Error()
	default:
		rec.Outcome = types.OutcomeFailed
		rec.Error = err.Error()
	}
	if rerr := o.recorder.Record(context.WithoutCancel(ctx), rec); rerr != nil {
		o.logger.Warn("recording conversion history failed", zap.Error(rerr))
	}
}

func isMemory(err error) bool {
	var memErr *apperr.EngineLoadMemoryError
	return errors.As(err, &memErr)
}
