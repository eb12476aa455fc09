// Package preset loads run parameters from YAML documents. A document
// overlays the defaults, so presets only state what they change;
// unknown keys are rejected rather than silently ignored.
package preset

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/deconv"
	"github.com/cwbudde/algo-msdeconv/pipeline"
	"github.com/cwbudde/algo-msdeconv/trace"
)

// ErrModel reports an averagine model name that is neither "peptide"
// nor "rna".
var ErrModel = errors.New("preset: unknown averagine model")

// Document is the YAML schema of a parameter preset. Values present in
// a loaded document are taken literally; Load fills omitted keys from
// Default, so a Document in hand is always complete.
type Document struct {
	Averagine AveragineDoc `yaml:"averagine"`
	MS1       LevelDoc     `yaml:"ms1"`
	MS2       LevelDoc     `yaml:"ms2"`
	Trace     TraceDoc     `yaml:"trace"`
	Pipeline  PipelineDoc  `yaml:"pipeline"`
}

// AveragineDoc configures the isotope template grid.
type AveragineDoc struct {
	MinMass  float64 `yaml:"minMass"`
	MaxMass  float64 `yaml:"maxMass"`
	MassStep float64 `yaml:"massStep"`
	// Model is "peptide" or "rna".
	Model string `yaml:"model"`
}

// LevelDoc configures the deconvolution engine of one MS level.
type LevelDoc struct {
	TolerancePPM     float64 `yaml:"tolerancePPM"`
	MinCharge        int     `yaml:"minCharge"`
	MaxCharge        int     `yaml:"maxCharge"`
	MinMass          float64 `yaml:"minMass"`
	MaxMass          float64 `yaml:"maxMass"`
	MinIsotopeCosine float64 `yaml:"minIsotopeCosine"`
	MinChargeCosine  float64 `yaml:"minChargeCosine"`
	MinChargePeaks   int     `yaml:"minChargePeaks"`
	// MaxMassCount below zero reports every surviving mass.
	MaxMassCount int     `yaml:"maxMassCount"`
	MinIntensity float64 `yaml:"minIntensity"`
	Negative     bool    `yaml:"negative"`
}

// TraceDoc configures the feature tracer.
type TraceDoc struct {
	TolerancePPM float64 `yaml:"tolerancePPM"`
	// MaxMissedScans zero inherits the run's continuity depth.
	MaxMissedScans   int     `yaml:"maxMissedScans"`
	MinRTSpan        float64 `yaml:"minRTSpanSeconds"`
	MinSampleRate    float64 `yaml:"minSampleRate"`
	MinIsotopeCosine float64 `yaml:"minIsotopeCosine"`
	MinChargeCosine  float64 `yaml:"minChargeCosine"`
}

// PipelineDoc configures run-level scheduling.
type PipelineDoc struct {
	// Workers zero means one per CPU.
	Workers int `yaml:"workers"`
	// RTWindow zero sizes the continuity window from the run duration.
	RTWindow        float64 `yaml:"rtWindowSeconds"`
	MinOverlapScans int     `yaml:"minOverlapScans"`
	MaxMSLevel      int     `yaml:"maxMSLevel"`
	Decoy           bool    `yaml:"decoy"`
}

// Default returns the standard parameter document: 10/5 ppm survey and
// fragment tolerances, charges 1 through 100, masses 50 through
// 100000 Da, and the peptide averagine model.
func Default() Document {
	return Document{
		Averagine: AveragineDoc{
			MinMass:  50,
			MaxMass:  100000,
			MassStep: 20,
			Model:    "peptide",
		},
		MS1: LevelDoc{
			TolerancePPM:     10,
			MinCharge:        1,
			MaxCharge:        100,
			MinMass:          50,
			MaxMass:          100000,
			MinIsotopeCosine: 0.75,
			MinChargeCosine:  0.5,
			MinChargePeaks:   3,
			MaxMassCount:     -1,
		},
		MS2: LevelDoc{
			TolerancePPM:     5,
			MinCharge:        1,
			MaxCharge:        100,
			MinMass:          50,
			MaxMass:          100000,
			MinIsotopeCosine: 0.8,
			MinChargeCosine:  0.5,
			MinChargePeaks:   2,
			MaxMassCount:     -1,
		},
		Trace: TraceDoc{
			TolerancePPM:     10,
			MinRTSpan:        10,
			MinSampleRate:    0.01,
			MinIsotopeCosine: 0.75,
			MinChargeCosine:  0.5,
		},
		Pipeline: PipelineDoc{
			MinOverlapScans: 10,
			MaxMSLevel:      2,
		},
	}
}

// Load strict-decodes a YAML preset on top of the defaults and
// assembles the run configuration. Unknown keys and out-of-range
// engine or tracer parameters are errors; run-level fields with
// runtime-dependent defaults are validated later by pipeline.New.
func Load(r io.Reader) (pipeline.Config, error) {
	doc := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return pipeline.Config{}, fmt.Errorf("preset: %w", err)
	}

	cfg, err := doc.Config()
	if err != nil {
		return pipeline.Config{}, err
	}
	if err := cfg.MS1.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("preset: ms1: %w", err)
	}
	if err := cfg.MS2.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("preset: ms2: %w", err)
	}
	if err := cfg.Trace.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("preset: trace: %w", err)
	}
	return cfg, nil
}

// Config assembles the document into a run configuration.
func (d Document) Config() (pipeline.Config, error) {
	model, err := parseModel(d.Averagine.Model)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		MS1: d.MS1.config(),
		MS2: d.MS2.config(),
		Trace: trace.Config{
			TolerancePPM:     d.Trace.TolerancePPM,
			MaxMissedScans:   d.Trace.MaxMissedScans,
			MinRTSpan:        d.Trace.MinRTSpan,
			MinSampleRate:    d.Trace.MinSampleRate,
			MinIsotopeCosine: d.Trace.MinIsotopeCosine,
			MinChargeCosine:  d.Trace.MinChargeCosine,
		},
		Averagine: averagine.Config{
			MinMass:  d.Averagine.MinMass,
			MaxMass:  d.Averagine.MaxMass,
			MassStep: d.Averagine.MassStep,
			Model:    model,
		},
		Workers:         d.Pipeline.Workers,
		RTWindow:        d.Pipeline.RTWindow,
		MinOverlapScans: d.Pipeline.MinOverlapScans,
		MaxMSLevel:      d.Pipeline.MaxMSLevel,
		Decoy:           d.Pipeline.Decoy,
	}, nil
}

func (l LevelDoc) config() deconv.Config {
	return deconv.Config{
		MinCharge:        l.MinCharge,
		MaxCharge:        l.MaxCharge,
		MinMass:          l.MinMass,
		MaxMass:          l.MaxMass,
		TolerancePPM:     l.TolerancePPM,
		MinIsotopeCosine: l.MinIsotopeCosine,
		MinChargeCosine:  l.MinChargeCosine,
		MinChargePeaks:   l.MinChargePeaks,
		MaxMassCount:     l.MaxMassCount,
		MinIntensity:     l.MinIntensity,
		Negative:         l.Negative,
	}
}

func parseModel(s string) (averagine.Model, error) {
	switch strings.ToLower(s) {
	case "", "peptide":
		return averagine.Peptide, nil
	case "rna":
		return averagine.RNA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrModel, s)
	}
}
