package deconv

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/internal/testutil"
	"github.com/cwbudde/algo-msdeconv/ms"
)

var (
	tableOnce sync.Once
	testTable *averagine.Table
	tableErr  error
)

// table builds the shared averagine grid once; building it per test
// would redo a thousand FFT convolutions.
func table(t *testing.T) *averagine.Table {
	t.Helper()
	tableOnce.Do(func() {
		testTable, tableErr = averagine.Build(averagine.Config{MinMass: 50, MaxMass: 30000})
	})
	if tableErr != nil {
		t.Fatalf("building averagine table: %v", tableErr)
	}
	return testTable
}

func newTestDeconvolver(t *testing.T, cfg Config) *Deconvolver {
	t.Helper()
	if cfg.MaxMass == 0 {
		cfg.MaxMass = 30000
	}
	d, err := New(cfg, table(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func monoMasses(groups []PeakGroup) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.MonoMass
	}
	return out
}

func TestDeconvolveSingleSpecies(t *testing.T) {
	const mono = 12000.0
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 12})
	spec.ScanID = 42
	spec.RT = 10.5

	d := newTestDeconvolver(t, Config{})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("peak groups: got %d (%v), want 1", len(res.PeakGroups), monoMasses(res.PeakGroups))
	}

	pg := res.PeakGroups[0]
	if ppm := math.Abs(pg.MonoMass-mono) / mono * 1e6; ppm > 1 {
		t.Fatalf("mono mass: got %v, want %v within 1 ppm (off by %.4f ppm)", pg.MonoMass, mono, ppm)
	}
	if pg.IsotopeCosine <= 0.99 {
		t.Fatalf("isotope cosine: got %v, want > 0.99", pg.IsotopeCosine)
	}
	if pg.MinCharge != 8 || pg.MaxCharge != 12 {
		t.Fatalf("charge range: got [%d, %d], want [8, 12]", pg.MinCharge, pg.MaxCharge)
	}
	if pg.ScanID != 42 || pg.RT != 10.5 || pg.MSLevel != 1 {
		t.Fatalf("scan metadata not carried: %+v", pg)
	}
	if pg.QScore <= 0 || pg.QScore >= 1 {
		t.Fatalf("qscore out of (0, 1): %v", pg.QScore)
	}
	if len(res.MassBins.Bins) == 0 {
		t.Fatal("no mass-bin snapshot published")
	}
	for i, p := range pg.Peaks[1:] {
		prev := pg.Peaks[i]
		if p.Charge < prev.Charge || (p.Charge == prev.Charge && p.Mz < prev.Mz) {
			t.Fatalf("peaks not ordered by charge then m/z at %d: %+v after %+v", i+1, p, prev)
		}
	}
}

func TestDeconvolveEmptySpectrum(t *testing.T) {
	d := newTestDeconvolver(t, Config{})
	res, err := d.Deconvolve(&ms.Spectrum{MSLevel: 1}, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 0 {
		t.Fatalf("peak groups: got %d, want 0", len(res.PeakGroups))
	}
	if len(res.MassBins.Bins) != 0 {
		t.Fatalf("mass bins: got %d, want 0", len(res.MassBins.Bins))
	}
}

func TestDeconvolveUnsorted(t *testing.T) {
	d := newTestDeconvolver(t, Config{})
	spec := &ms.Spectrum{
		Peaks:   []ms.Peak{{Mz: 500, Intensity: 1}, {Mz: 400, Intensity: 1}},
		MSLevel: 1,
	}
	_, err := d.Deconvolve(spec, Prior{})
	if !errors.Is(err, ErrUnsorted) {
		t.Fatalf("error: got %v, want ErrUnsorted", err)
	}
}

func TestDeconvolveHalfMassSuppressed(t *testing.T) {
	const mono = 16000.0
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 16})

	d := newTestDeconvolver(t, Config{})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}

	foundTrue := false
	for _, pg := range res.PeakGroups {
		if math.Abs(pg.MonoMass-mono/2) < 2 {
			t.Fatalf("half mass %v reported alongside %v", pg.MonoMass, mono)
		}
		if math.Abs(pg.MonoMass-mono/3) < 2 {
			t.Fatalf("third mass %v reported alongside %v", pg.MonoMass, mono)
		}
		if math.Abs(pg.MonoMass-mono)/mono*1e6 <= 1 {
			foundTrue = true
		}
	}
	if !foundTrue {
		t.Fatalf("true mass %v not reported, got %v", mono, monoMasses(res.PeakGroups))
	}
}

func TestDeconvolveIdempotent(t *testing.T) {
	tab := table(t)
	spec := testutil.Spectrum(tab,
		testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 12},
		testutil.Species{MonoMass: 4500, MinCharge: 3, MaxCharge: 7, Scale: 0.5},
	)

	d := newTestDeconvolver(t, Config{})
	first, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(first.PeakGroups, second.PeakGroups); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
}

// A two-charge ladder is below the default contiguity requirement, so
// the species only qualifies when a preceding spectrum's snapshot
// carries its mass bins in.
func TestDeconvolvePriorRelaxesSupport(t *testing.T) {
	const mono = 12000.0
	tab := table(t)
	strong := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 12})
	weak := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 9, MaxCharge: 10})

	d := newTestDeconvolver(t, Config{})

	res, err := d.Deconvolve(weak, Prior{})
	if err != nil {
		t.Fatalf("weak alone: %v", err)
	}
	if len(res.PeakGroups) != 0 {
		t.Fatalf("weak alone: got %v, want nothing", monoMasses(res.PeakGroups))
	}

	ref, err := d.Deconvolve(strong, Prior{})
	if err != nil {
		t.Fatalf("strong: %v", err)
	}
	if len(ref.PeakGroups) != 1 {
		t.Fatalf("strong: got %v, want one group", monoMasses(ref.PeakGroups))
	}

	res, err = d.Deconvolve(weak, Prior{MassBins: []MassBinSet{ref.MassBins}})
	if err != nil {
		t.Fatalf("weak with prior: %v", err)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("weak with prior: got %v, want one group", monoMasses(res.PeakGroups))
	}
	if got := res.PeakGroups[0].MonoMass; math.Abs(got-mono)/mono*1e6 > 1 {
		t.Fatalf("carried mass: got %v, want %v within 1 ppm", got, mono)
	}
}

func TestDeconvolveDecoyMissesTarget(t *testing.T) {
	const mono = 12000.0
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 12})

	d := newTestDeconvolver(t, Config{Decoy: true})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if !res.Decoy {
		t.Fatal("result not flagged as decoy")
	}
	for _, pg := range res.PeakGroups {
		if !pg.Decoy {
			t.Fatalf("group not flagged as decoy: %+v", pg)
		}
		if math.Abs(pg.MonoMass-mono) < 1 {
			t.Fatalf("decoy pass reproduced the target mass %v", pg.MonoMass)
		}
	}
}

func TestDeconvolveMaxMassCount(t *testing.T) {
	tab := table(t)
	spec := testutil.Spectrum(tab,
		testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 12, Scale: 10},
		testutil.Species{MonoMass: 4500, MinCharge: 3, MaxCharge: 7, Scale: 1},
	)

	d := newTestDeconvolver(t, Config{MaxMassCount: 1})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("peak groups: got %v, want the single most intense", monoMasses(res.PeakGroups))
	}
	if got := res.PeakGroups[0].MonoMass; math.Abs(got-12000) > 1 {
		t.Fatalf("survivor: got %v, want the 12000 Da species", got)
	}
}

func TestDeconvolveIntensityThreshold(t *testing.T) {
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 12})

	d := newTestDeconvolver(t, Config{MinIntensity: 10})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 0 {
		t.Fatalf("peak groups: got %v, want none below threshold", monoMasses(res.PeakGroups))
	}
}

func TestDeconvolveClampsBadPeaks(t *testing.T) {
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 12})
	spec.Peaks = append([]ms.Peak{
		{Mz: 100, Intensity: float32(math.NaN())},
		{Mz: 101, Intensity: -5},
	}, spec.Peaks...)

	d := newTestDeconvolver(t, Config{})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if res.ClampedPeaks != 2 {
		t.Fatalf("clamped peaks: got %d, want 2", res.ClampedPeaks)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("peak groups: got %v, want 1", monoMasses(res.PeakGroups))
	}
}

func TestDeconvolveNegativeMode(t *testing.T) {
	const mono = 12000.0
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 12})
	// Move every peak from (m+iΔ)/c + proton to (m+iΔ)/c − proton.
	for i := range spec.Peaks {
		spec.Peaks[i].Mz -= 2 * ms.ProtonMass
	}

	d := newTestDeconvolver(t, Config{Negative: true})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("peak groups: got %v, want 1", monoMasses(res.PeakGroups))
	}
	if got := res.PeakGroups[0].MonoMass; math.Abs(got-mono)/mono*1e6 > 1 {
		t.Fatalf("mono mass: got %v, want %v within 1 ppm", got, mono)
	}
}

func TestFindPrecursor(t *testing.T) {
	const mono = 12000.0
	tab := table(t)
	spec := testutil.Spectrum(tab, testutil.Species{MonoMass: mono, MinCharge: 8, MaxCharge: 12})

	d := newTestDeconvolver(t, Config{})
	res, err := d.Deconvolve(spec, Prior{})
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	if len(res.PeakGroups) != 1 {
		t.Fatalf("peak groups: got %v, want 1", monoMasses(res.PeakGroups))
	}

	// Isolate around the charge-10 apex.
	tpl := tab.Get(mono)
	isoMz := (mono+float64(tpl.ApexIndex)*ms.IsotopeMassDiff55K)/10 + ms.ProtonMass
	prec, ok := FindPrecursor(&res, ms.Precursor{Mz: isoMz, IsolationLow: isoMz - 1, IsolationHigh: isoMz + 1})
	if !ok {
		t.Fatal("precursor not found")
	}
	if prec.Charge != 10 {
		t.Fatalf("precursor charge: got %d, want 10", prec.Charge)
	}
	if math.Abs(prec.Group.MonoMass-mono) > 0.1 {
		t.Fatalf("precursor mass: got %v, want %v", prec.Group.MonoMass, mono)
	}

	if _, ok := FindPrecursor(&res, ms.Precursor{Mz: 3000, IsolationLow: 2999, IsolationHigh: 3001}); ok {
		t.Fatal("found a precursor in an empty window")
	}
}

// A registered precursor caps fragment masses and charges.
func TestDeconvolveFragmentBounds(t *testing.T) {
	tab := table(t)
	// Pretend survey found a 4500 Da precursor at charge 5; the
	// fragment spectrum contains a heavier, higher-charged species
	// that must be excluded by the bounds.
	fragment := testutil.Spectrum(tab,
		testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 12},
		testutil.Species{MonoMass: 3000, MinCharge: 2, MaxCharge: 5},
	)
	fragment.MSLevel = 2

	d := newTestDeconvolver(t, Config{MinChargePeaks: 2})
	prior := Prior{Precursor: &Precursor{
		Group:  PeakGroup{MonoMass: 4500, Intensity: 1},
		Charge: 5,
	}}
	res, err := d.Deconvolve(fragment, prior)
	if err != nil {
		t.Fatalf("Deconvolve: %v", err)
	}
	for _, pg := range res.PeakGroups {
		if pg.MonoMass > 4500+1 {
			t.Fatalf("fragment heavier than precursor: %v", pg.MonoMass)
		}
		if pg.MaxCharge > 5 {
			t.Fatalf("fragment charge above precursor: %d", pg.MaxCharge)
		}
	}
	found := false
	for _, pg := range res.PeakGroups {
		if math.Abs(pg.MonoMass-3000) < 0.1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("in-bounds fragment not reported, got %v", monoMasses(res.PeakGroups))
	}
	if res.Precursor == nil || res.Precursor.Charge != 5 {
		t.Fatal("precursor not echoed on the result")
	}
}
