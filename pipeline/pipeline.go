// Package pipeline deconvolves whole acquisition runs. Per-spectrum
// work fans out to a bounded worker group; candidate continuity
// between neighboring spectra of the same MS level and precursor
// registration between levels impose the little ordering the
// algorithm needs, and everything else overlaps. The feature tracer
// runs as a batch stage over the finished survey results.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/deconv"
	"github.com/cwbudde/algo-msdeconv/trace"
)

// ErrWorkers reports a negative worker count.
var ErrWorkers = errors.New("pipeline: invalid worker count")

// Config holds the run-level parameters. New applies the documented
// defaults to zero fields before validating.
type Config struct {
	// MS1 and MS2 configure the survey and fragment deconvolution
	// engines. MS2 applies to every level above one.
	MS1 deconv.Config
	MS2 deconv.Config

	// Trace configures the feature tracer. A zero tolerance inherits
	// the survey tolerance; a zero MaxMissedScans inherits the run's
	// survey continuity depth.
	Trace trace.Config

	// Averagine configures the isotope template grid. A zero MaxMass
	// extends the grid over the configured deconvolution mass ranges.
	Averagine averagine.Config

	// Workers bounds the number of spectra processed concurrently.
	// Default: GOMAXPROCS.
	Workers int

	// RTWindow is the retention-time span in seconds over which
	// candidate mass bins from preceding spectra stay alive. Zero
	// picks max(10 s, 1% of the run duration).
	RTWindow float64

	// MinOverlapScans floors the continuity depth in scans, whatever
	// the scan rate. Default: 10.
	MinOverlapScans int

	// MaxMSLevel bounds the processed MS levels; deeper scans pass
	// through with empty results. Default: 2.
	MaxMSLevel int

	// Decoy additionally runs half-charge decoy engines over every
	// spectrum. Decoy masses matching a target mass of the same
	// spectrum are removed, so the surviving decoy rate estimates the
	// false-discovery rate.
	Decoy bool
}

func (c Config) withDefaults() Config {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MinOverlapScans == 0 {
		c.MinOverlapScans = 10
	}
	if c.MaxMSLevel == 0 {
		c.MaxMSLevel = 2
	}
	return c
}

// Validate checks the run-level configuration after defaults are
// applied. Engine and tracer configurations are validated by their
// own constructors.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrWorkers, c.Workers)
	}
	if c.MinOverlapScans < 1 {
		return fmt.Errorf("pipeline: min overlap scans must be positive, got %d", c.MinOverlapScans)
	}
	if c.MaxMSLevel < 1 {
		return fmt.Errorf("pipeline: max MS level must be positive, got %d", c.MaxMSLevel)
	}
	if c.RTWindow < 0 {
		return fmt.Errorf("pipeline: RT window must not be negative, got %v s", c.RTWindow)
	}
	return nil
}

// Option adjusts a Runner at construction.
type Option func(*options)

type options struct {
	log   *slog.Logger
	table *averagine.Table
}

// WithLogger routes run diagnostics to l. The default runner is
// silent.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithTable reuses a prebuilt averagine table instead of building one
// from Config.Averagine. The table should cover the configured mass
// ranges.
func WithTable(table *averagine.Table) Option {
	return func(o *options) {
		if table != nil {
			o.table = table
		}
	}
}

// Runner deconvolves batches of spectra. It is immutable after
// construction and safe for concurrent use; each Run keeps its own
// state.
type Runner struct {
	cfg   Config
	log   *slog.Logger
	table *averagine.Table

	ms1, ms2       *deconv.Deconvolver
	decoy1, decoy2 *deconv.Deconvolver

	traceCfg trace.Config
}

// New builds a Runner from cfg. The averagine table and the filter
// tables of all engines are precomputed here and shared read-only by
// every Run.
func New(cfg Config, opts ...Option) (*Runner, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	table := o.table
	if table == nil {
		acfg := cfg.Averagine
		if acfg.MaxMass == 0 {
			acfg.MaxMass = engineMaxMass(cfg.MS1)
			if m := engineMaxMass(cfg.MS2); m > acfg.MaxMass {
				acfg.MaxMass = m
			}
		}
		var err error
		if table, err = averagine.Build(acfg); err != nil {
			return nil, fmt.Errorf("pipeline: averagine grid: %w", err)
		}
	}

	r := &Runner{
		cfg:   cfg,
		log:   slog.New(slog.DiscardHandler),
		table: table,
	}
	if o.log != nil {
		r.log = o.log
	}
	var err error
	if r.ms1, err = deconv.New(cfg.MS1, table); err != nil {
		return nil, fmt.Errorf("pipeline: survey engine: %w", err)
	}
	if r.ms2, err = deconv.New(cfg.MS2, table); err != nil {
		return nil, fmt.Errorf("pipeline: fragment engine: %w", err)
	}
	if cfg.Decoy {
		d1, d2 := cfg.MS1, cfg.MS2
		d1.Decoy, d2.Decoy = true, true
		if r.decoy1, err = deconv.New(d1, table); err != nil {
			return nil, fmt.Errorf("pipeline: survey decoy engine: %w", err)
		}
		if r.decoy2, err = deconv.New(d2, table); err != nil {
			return nil, fmt.Errorf("pipeline: fragment decoy engine: %w", err)
		}
	}

	r.traceCfg = cfg.Trace
	if r.traceCfg.TolerancePPM == 0 {
		r.traceCfg.TolerancePPM = r.ms1.Config().TolerancePPM
	}
	// The effective MaxMissedScans depends on the run's scan rate, so
	// the tracer itself is built per Run; reject bad parameters now.
	if _, err := trace.New(r.traceCfg, table); err != nil {
		return nil, fmt.Errorf("pipeline: tracer: %w", err)
	}
	return r, nil
}

// engineMaxMass mirrors the deconvolution mass ceiling default so the
// averagine grid covers it.
func engineMaxMass(c deconv.Config) float64 {
	if c.MaxMass > 0 {
		return c.MaxMass
	}
	return 100000
}

// Config returns the effective configuration with defaults applied.
func (r *Runner) Config() Config { return r.cfg }

// Table returns the shared averagine table, for callers that score or
// synthesize envelopes themselves.
func (r *Runner) Table() *averagine.Table { return r.table }

func (r *Runner) engine(level int) *deconv.Deconvolver {
	if level <= 1 {
		return r.ms1
	}
	return r.ms2
}

func (r *Runner) decoyEngine(level int) *deconv.Deconvolver {
	if level <= 1 {
		return r.decoy1
	}
	return r.decoy2
}
