// Package trace links deconvolved masses across retention time.
//
// A deconvolved run is a sequence of survey spectra, each reduced to a
// list of peak groups. A species eluting from the column appears as a
// run of nearly identical monoisotopic masses over consecutive
// spectra. The tracer connects those detections into mass features:
// it seeds a trace at the most intense unclaimed peak group, extends
// it forward and backward through the scan sequence while the mass
// stays within tolerance of the trace's intensity-weighted centroid,
// and stops a direction after too many consecutive scans without a
// match. Traces spanning too little retention time, or hitting too few
// of the scans they span, are dropped.
//
// Accepted traces are rescored as a whole. The per-charge and
// per-isotope intensity vectors of all members are summed and passed
// through the same charge-fit and isotope-cosine measures the
// deconvolver applies per spectrum, so a feature's scores are
// comparable to its members'. The isotope fit may relocate the
// monoisotope by whole isotope units; the reported mass includes that
// correction.
package trace

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/deconv"
	"github.com/cwbudde/algo-msdeconv/internal/bitset"
	"github.com/cwbudde/algo-msdeconv/ms"
)

var (
	// ErrNoTable reports a missing averagine table.
	ErrNoTable = errors.New("trace: averagine table required")
	// ErrTolerance reports a non-positive ppm tolerance.
	ErrTolerance = errors.New("trace: invalid tolerance")
	// ErrSampleRate reports a sample rate outside (0, 1].
	ErrSampleRate = errors.New("trace: invalid sample rate")
)

// Config holds the feature tracing parameters. New applies the
// documented defaults to zero fields before validating.
type Config struct {
	// TolerancePPM is the mass tolerance in parts per million. Two
	// detections belong to the same trace when they differ by at most
	// twice this tolerance. Default: 10.
	TolerancePPM float64

	// MaxMissedScans ends a trace in one direction once this many
	// consecutive scans yield no match. It should cover the same scan
	// span the deconvolver carries candidate bins over. Default: 10.
	MaxMissedScans int

	// MinRTSpan drops traces covering less retention time than this,
	// in seconds. Default: 10.
	MinRTSpan float64

	// MinSampleRate drops traces that hit fewer than this fraction of
	// the scans they span. Default: 0.01.
	MinSampleRate float64

	// MinIsotopeCosine rejects features whose summed isotope pattern
	// matches the averagine template below this cosine. Default: 0.75.
	MinIsotopeCosine float64

	// MinChargeCosine rejects features whose summed per-charge profile
	// fits its envelope below this cosine. Default: 0.5.
	MinChargeCosine float64
}

func (c Config) withDefaults() Config {
	if c.TolerancePPM == 0 {
		c.TolerancePPM = 10
	}
	if c.MaxMissedScans == 0 {
		c.MaxMissedScans = 10
	}
	if c.MinRTSpan == 0 {
		c.MinRTSpan = 10
	}
	if c.MinSampleRate == 0 {
		c.MinSampleRate = 0.01
	}
	if c.MinIsotopeCosine == 0 {
		c.MinIsotopeCosine = 0.75
	}
	if c.MinChargeCosine == 0 {
		c.MinChargeCosine = 0.5
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if c.TolerancePPM <= 0 {
		return fmt.Errorf("%w: %v ppm", ErrTolerance, c.TolerancePPM)
	}
	if c.MinSampleRate <= 0 || c.MinSampleRate > 1 {
		return fmt.Errorf("%w: %v", ErrSampleRate, c.MinSampleRate)
	}
	if c.MaxMissedScans < 0 {
		return fmt.Errorf("trace: max missed scans must not be negative, got %d", c.MaxMissedScans)
	}
	if c.MinRTSpan < 0 {
		return fmt.Errorf("trace: min RT span must not be negative, got %v s", c.MinRTSpan)
	}
	return nil
}

// Feature is one mass traced across retention time: the aggregate of
// all peak groups judged to be the same species.
type Feature struct {
	// MonoMass is the monoisotopic mass of the feature in Da, the
	// intensity-weighted centroid of the member masses corrected by
	// the aggregate isotope fit.
	MonoMass float64
	// AvgMass is MonoMass shifted by the average-mass delta of the
	// most intense member.
	AvgMass float64

	// RTStart and RTEnd delimit the feature's elution, RTApex is the
	// retention time of its most intense member.
	RTStart float64
	RTEnd   float64
	RTApex  float64

	// Intensity is the summed intensity of all members, MaxIntensity
	// the intensity of the strongest one.
	Intensity    float64
	MaxIntensity float64

	// MinCharge and MaxCharge bound the member charge states,
	// ChargeCount is the number of distinct charges observed.
	MinCharge   int
	MaxCharge   int
	ChargeCount int

	// IsotopeCosine and ChargeCosine are the aggregate envelope fits
	// over the summed member vectors.
	IsotopeCosine float64
	ChargeCosine  float64

	// PointCount is the number of member peak groups.
	PointCount int
}

// Tracer finds mass features in deconvolved survey spectra. It is
// immutable after construction and safe for concurrent use.
type Tracer struct {
	cfg   Config
	tol   float64
	table *averagine.Table
}

// New builds a Tracer from cfg, using table for aggregate isotope
// scoring. Zero fields of cfg take their defaults.
func New(cfg Config, table *averagine.Table) (*Tracer, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracer{
		cfg:   cfg,
		tol:   cfg.TolerancePPM * 1e-6,
		table: table,
	}, nil
}

// Config returns the effective configuration with defaults applied.
func (t *Tracer) Config() Config { return t.cfg }

// scan is one survey spectrum reduced to its traced points. masses is
// ascending and parallel to groups.
type scan struct {
	rt     float64
	masses []float64
	groups []*deconv.PeakGroup
	used   []bool
}

// memberRef addresses one point of one scan.
type memberRef struct {
	scan int
	idx  int
}

// FindFeatures traces the survey-level peak groups of results across
// retention time and returns the accepted features, ordered by start
// time and then mass. Fragment-level and decoy results are ignored.
// The input is not modified.
func (t *Tracer) FindFeatures(results []deconv.Result) []Feature {
	scans := collectScans(results)
	if len(scans) == 0 {
		return nil
	}

	seeds := make([]memberRef, 0, totalPoints(scans))
	for si := range scans {
		for pi := range scans[si].groups {
			seeds = append(seeds, memberRef{scan: si, idx: pi})
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		a := scans[seeds[i].scan].groups[seeds[i].idx]
		b := scans[seeds[j].scan].groups[seeds[j].idx]
		return a.Intensity > b.Intensity
	})

	var features []Feature
	for _, seed := range seeds {
		if scans[seed.scan].used[seed.idx] {
			continue
		}
		members := t.extend(scans, seed)
		for _, m := range members {
			scans[m.scan].used[m.idx] = true
		}
		if f, ok := t.build(scans, members); ok {
			features = append(features, f)
		}
	}

	sort.SliceStable(features, func(i, j int) bool {
		if features[i].RTStart != features[j].RTStart {
			return features[i].RTStart < features[j].RTStart
		}
		return features[i].MonoMass < features[j].MonoMass
	})
	return features
}

// collectScans reduces results to the survey scan sequence in
// retention-time order. Survey spectra without peak groups still count
// as scans, so gaps cost missed-scan budget.
func collectScans(results []deconv.Result) []scan {
	idx := make([]int, 0, len(results))
	for i := range results {
		if results[i].MSLevel != 1 || results[i].Decoy {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return results[idx[a]].RT < results[idx[b]].RT
	})

	scans := make([]scan, len(idx))
	for k, i := range idx {
		r := &results[i]
		sc := scan{
			rt:     r.RT,
			masses: make([]float64, len(r.PeakGroups)),
			groups: make([]*deconv.PeakGroup, len(r.PeakGroups)),
			used:   make([]bool, len(r.PeakGroups)),
		}
		for j := range r.PeakGroups {
			sc.masses[j] = r.PeakGroups[j].MonoMass
			sc.groups[j] = &r.PeakGroups[j]
		}
		scans[k] = sc
	}
	return scans
}

func totalPoints(scans []scan) int {
	n := 0
	for i := range scans {
		n += len(scans[i].groups)
	}
	return n
}

// extend grows a trace from seed in both scan directions. Each
// accepted point updates the intensity-weighted mass centroid the next
// scan is matched against. A direction ends once MaxMissedScans
// consecutive scans offer no point within tolerance.
func (t *Tracer) extend(scans []scan, seed memberRef) []memberRef {
	members := []memberRef{seed}
	pg := scans[seed.scan].groups[seed.idx]
	wmass := pg.MonoMass * pg.Intensity
	wsum := pg.Intensity

	add := func(m memberRef) {
		members = append(members, m)
		pg := scans[m.scan].groups[m.idx]
		wmass += pg.MonoMass * pg.Intensity
		wsum += pg.Intensity
	}

	missed := 0
	for k := seed.scan + 1; k < len(scans); k++ {
		centroid := wmass / wsum
		j, ok := nearestUnused(&scans[k], centroid, 2*t.tol*centroid)
		if !ok {
			missed++
			if missed >= t.cfg.MaxMissedScans {
				break
			}
			continue
		}
		add(memberRef{scan: k, idx: j})
		missed = 0
	}

	missed = 0
	for k := seed.scan - 1; k >= 0; k-- {
		centroid := wmass / wsum
		j, ok := nearestUnused(&scans[k], centroid, 2*t.tol*centroid)
		if !ok {
			missed++
			if missed >= t.cfg.MaxMissedScans {
				break
			}
			continue
		}
		add(memberRef{scan: k, idx: j})
		missed = 0
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].scan != members[j].scan {
			return members[i].scan < members[j].scan
		}
		return members[i].idx < members[j].idx
	})
	return members
}

// nearestUnused returns the unclaimed point of sc closest to target
// within window, preferring the lower mass on ties.
func nearestUnused(sc *scan, target, window float64) (int, bool) {
	best := -1
	bestDiff := math.Inf(1)
	lo := sort.SearchFloat64s(sc.masses, target-window)
	for j := lo; j < len(sc.masses) && sc.masses[j] <= target+window; j++ {
		if sc.used[j] {
			continue
		}
		if d := math.Abs(sc.masses[j] - target); d < bestDiff {
			best, bestDiff = j, d
		}
	}
	return best, best >= 0
}

// build filters and scores one assembled trace. It returns false for
// traces spanning too little retention time, hitting too few of their
// scans, or scoring below the configured envelope fits.
func (t *Tracer) build(scans []scan, members []memberRef) (Feature, bool) {
	first, last := members[0].scan, members[len(members)-1].scan
	rtStart, rtEnd := scans[first].rt, scans[last].rt
	if rtEnd-rtStart < t.cfg.MinRTSpan {
		return Feature{}, false
	}
	spanned := last - first + 1
	if float64(len(members))/float64(spanned) < t.cfg.MinSampleRate {
		return Feature{}, false
	}

	var most *deconv.PeakGroup
	var sum, peak, apexRT, wmass float64
	minCharge, maxCharge := math.MaxInt32, 0
	for _, m := range members {
		pg := scans[m.scan].groups[m.idx]
		sum += pg.Intensity
		wmass += pg.MonoMass * pg.Intensity
		if pg.Intensity > peak {
			peak = pg.Intensity
			apexRT = scans[m.scan].rt
			most = pg
		}
		if pg.MinCharge < minCharge {
			minCharge = pg.MinCharge
		}
		if pg.MaxCharge > maxCharge {
			maxCharge = pg.MaxCharge
		}
	}
	if most == nil || sum <= 0 {
		return Feature{}, false
	}
	massDiff := most.AvgMass - most.MonoMass
	if massDiff <= 0 {
		return Feature{}, false
	}

	perCharge := make([]float64, maxCharge+1)
	perIso := make([]float64, t.table.MaxIsotopeCount())
	charges := bitset.New(maxCharge + 1)
	for _, m := range members {
		pg := scans[m.scan].groups[m.idx]
		for _, p := range pg.Peaks {
			if p.Charge >= 0 && p.Charge < len(perCharge) {
				perCharge[p.Charge] += p.Intensity
				charges.Set(p.Charge)
			}
			if p.IsotopeIndex >= 0 && p.IsotopeIndex < len(perIso) {
				perIso[p.IsotopeIndex] += p.Intensity
			}
		}
	}

	chargeCos := deconv.ChargeFitScore(perCharge)
	if chargeCos < t.cfg.MinChargeCosine {
		return Feature{}, false
	}
	centroid := wmass / sum
	isoCos, offset := deconv.IsotopeCosine(perIso, centroid, t.table)
	if isoCos < t.cfg.MinIsotopeCosine {
		return Feature{}, false
	}
	mono := centroid + float64(offset)*ms.IsotopeMassDiff

	return Feature{
		MonoMass:      mono,
		AvgMass:       mono + massDiff,
		RTStart:       rtStart,
		RTEnd:         rtEnd,
		RTApex:        apexRT,
		Intensity:     sum,
		MaxIntensity:  peak,
		MinCharge:     minCharge,
		MaxCharge:     maxCharge,
		ChargeCount:   charges.Count(),
		IsotopeCosine: isoCos,
		ChargeCosine:  chargeCos,
		PointCount:    len(members),
	}, true
}
