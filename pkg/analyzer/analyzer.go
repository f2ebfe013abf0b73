// Package analyzer orchestrates a trace analysis run: it scans a line
// source once, classifies each line against every configured profile, and
// correlates the resulting entry/exit events into durations.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/tracelag/tracelag/pkg/config"
	"github.com/tracelag/tracelag/pkg/event"
	"github.com/tracelag/tracelag/pkg/scan"
)

// Analyzer runs configured profiles over a log source. It is not safe for
// concurrent use; create one per run or serialize calls.
type Analyzer struct {
	profiles    []ProfileResult
	classifiers []*event.Classifier

	// Options
	mode          config.Mode
	workers       int
	progress      ProgressFunc
	profileFilter map[string]bool // nil means all profiles
}

// Option configures analyzer behavior.
type Option func(*Analyzer)

// WithMode selects stream or batch correlation. Defaults to the mode in
// the configuration, or stream when unset.
func WithMode(mode config.Mode) Option {
	return func(a *Analyzer) {
		if mode != "" {
			a.mode = mode
		}
	}
}

// WithWorkers shards correlation across n goroutines by thread id. Values
// below two keep the single-goroutine path.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 1 {
			a.workers = n
		}
	}
}

// WithProgress installs a progress callback, invoked at most a few times
// per second during the scan and once at completion.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) {
		a.progress = fn
	}
}

// WithProfileFilter limits the run to the named profiles.
func WithProfileFilter(names []string) Option {
	return func(a *Analyzer) {
		if len(names) > 0 {
			a.profileFilter = make(map[string]bool)
			for _, n := range names {
				a.profileFilter[n] = true
			}
		}
	}
}

// New builds an analyzer from configuration. Every selected profile gets
// its own classifier; pattern validation failures surface here, before any
// input is read.
func New(cfg *config.Config, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		mode:    cfg.ModeEnum(),
		workers: 1,
	}
	if cfg.Workers > 1 {
		a.workers = cfg.Workers
	}

	for _, opt := range opts {
		opt(a)
	}

	for i := range cfg.Profiles {
		p := &cfg.Profiles[i]
		if a.profileFilter != nil && !a.profileFilter[p.Name] {
			continue
		}
		cl, err := event.NewClassifier(p.Entry, p.Exit)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		a.profiles = append(a.profiles, ProfileResult{
			Name:      p.Name,
			Entry:     p.Entry,
			Exit:      p.Exit,
			Threshold: p.ThresholdDuration(),
		})
		a.classifiers = append(a.classifiers, cl)
	}

	if len(a.profiles) == 0 {
		return nil, fmt.Errorf("no profiles to run (check --profile filter)")
	}

	return a, nil
}

// Run scans the source once and correlates events for every profile. The
// returned result is complete even when no pattern matched; callers decide
// how to surface that condition.
func (a *Analyzer) Run(ctx context.Context, source scan.LineSource) (*Result, error) {
	res := &Result{
		Profiles:  make([]ProfileResult, len(a.profiles)),
		Mode:      string(a.mode),
		Workers:   a.workers,
		StartTime: time.Now(),
	}
	copy(res.Profiles, a.profiles)

	var err error
	if a.workers > 1 {
		err = a.runParallel(ctx, source, res)
	} else {
		err = a.runSerial(ctx, source, res)
	}
	if err != nil {
		return nil, err
	}

	res.EndTime = time.Now()
	return res, nil
}

func (a *Analyzer) newCorrelator() correlator {
	if a.mode == config.ModeBatch {
		return newBatchCorrelator()
	}
	return newStreamCorrelator()
}

func (a *Analyzer) runSerial(ctx context.Context, source scan.LineSource, res *Result) error {
	correlators := make([]correlator, len(a.profiles))
	for i := range correlators {
		correlators[i] = a.newCorrelator()
	}
	defer func() {
		for _, c := range correlators {
			c.close()
		}
	}()

	meter := newProgressMeter(a.progress, source)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading log source: %w", err)
		}

		res.LinesScanned++
		meter.tick(res.LinesScanned)

		for i, cl := range a.classifiers {
			ev, ok := cl.Classify(line.Text)
			if !ok {
				continue
			}
			if err := correlators[i].feed(ctx, ev); err != nil {
				return fmt.Errorf("correlating profile %q: %w", a.profiles[i].Name, err)
			}
		}
	}

	for i, c := range correlators {
		cres, err := c.drain(ctx)
		if err != nil {
			return fmt.Errorf("draining profile %q: %w", a.profiles[i].Name, err)
		}
		res.Profiles[i].Correlation = cres
	}

	meter.finish(res.LinesScanned)
	return nil
}

// sourceSizer is implemented by sources that know their extent, such as
// regular files. Progress reporting degrades to line counts without it.
type sourceSizer interface {
	Size() int64
	Offset() int64
}

type progressMeter struct {
	fn      ProgressFunc
	limiter *rate.Limiter
	sizer   sourceSizer
}

// newProgressMeter returns nil when no callback is installed; the nil
// receiver methods below make that case free at the call sites.
func newProgressMeter(fn ProgressFunc, source scan.LineSource) *progressMeter {
	if fn == nil {
		return nil
	}
	m := &progressMeter{
		fn:      fn,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	if s, ok := source.(sourceSizer); ok {
		m.sizer = s
	}
	return m
}

func (m *progressMeter) tick(lines int) {
	if m == nil || !m.limiter.Allow() {
		return
	}
	m.emit(lines)
}

func (m *progressMeter) finish(lines int) {
	if m == nil {
		return
	}
	m.emit(lines)
}

func (m *progressMeter) emit(lines int) {
	p := Progress{Lines: lines}
	if m.sizer != nil {
		p.Bytes = m.sizer.Offset()
		p.Total = m.sizer.Size()
	}
	m.fn(p)
}
