package deconv

import (
	"errors"
	"math"
	"sort"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/internal/bitset"
	"github.com/cwbudde/algo-msdeconv/internal/vecmath"
	"github.com/cwbudde/algo-msdeconv/ms"
)

var (
	// ErrNoTable reports a missing averagine table.
	ErrNoTable = errors.New("deconv: averagine table required")
	// ErrUnsorted reports spectrum peaks not in ascending m/z order.
	ErrUnsorted = errors.New("deconv: spectrum peaks must be sorted by m/z")
)

const (
	// ladderIntensityFactor bounds the intensity ratio between peaks
	// on adjacent charge states; a larger jump breaks the continuity
	// run.
	ladderIntensityFactor = 4.0

	// harmonicWindowLow and harmonicWindowHigh bound the
	// satellite-to-peak intensity ratio treated as harmonic evidence.
	harmonicWindowLow  = 0.5
	harmonicWindowHigh = 2.0
)

// Deconvolver detects neutral masses in centroided spectra for one MS
// level. It holds only immutable precomputed tables, so a single
// instance may be shared across goroutines; all per-spectrum state
// lives in the Candidates value.
type Deconvolver struct {
	cfg     Config
	table   *averagine.Table
	carrier float64

	tol      float64 // fractional, TolerancePPM * 1e-6
	binWidth float64

	chargeRange int
	filter      []float64
	hFilter     [][]float64

	massBinMin   float64
	massBinMax   float64
	massBinCount int

	maxIso int
}

// New builds a Deconvolver for one MS level. Zero config fields take
// the documented defaults. The averagine table is shared read-only and
// should cover the configured mass range.
func New(cfg Config, table *averagine.Table) (*Deconvolver, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrNoTable
	}

	d := &Deconvolver{
		cfg:     cfg,
		table:   table,
		carrier: ms.ChargeCarrierMass(!cfg.Negative),
		tol:     cfg.TolerancePPM * 1e-6,
	}
	d.binWidth = 0.5 / d.tol
	d.chargeRange = cfg.MaxCharge - cfg.MinCharge + 1
	d.massBinMin = math.Log(cfg.MinMass)
	d.massBinMax = math.Log(cfg.MaxMass)
	d.massBinCount = binNumber(d.massBinMax, d.massBinMin, d.binWidth) + 1
	d.maxIso = table.MaxIsotopeCount()
	d.buildFilters()
	return d, nil
}

// Config returns the effective configuration with defaults applied.
func (d *Deconvolver) Config() Config {
	return d.cfg
}

// buildFilters precomputes the universal charge pattern and its
// harmonic variants. Decoy mode shifts every charge by one half, which
// moves the whole pattern off any real charge ladder while keeping the
// algorithm identical.
func (d *Deconvolver) buildFilters() {
	shift := 0.0
	if d.cfg.Decoy {
		shift = 0.5
	}

	d.filter = make([]float64, d.chargeRange)
	for j := range d.filter {
		d.filter[j] = math.Log(1 / (float64(d.cfg.MinCharge+j) + shift))
	}

	d.hFilter = make([][]float64, len(harmonicFactors))
	for k, h := range harmonicFactors {
		frac := float64(h/2) / float64(h)
		row := make([]float64, d.chargeRange)
		for j := range row {
			row[j] = math.Log(1 / (float64(d.cfg.MinCharge+j) + shift + frac))
		}
		d.hFilter[k] = row
	}
}

// Deconvolve runs bin selection and peak-group extraction in one call.
func (d *Deconvolver) Deconvolve(spec *ms.Spectrum, prior Prior) (Result, error) {
	c, err := d.SelectMassBins(spec, prior)
	if err != nil {
		return Result{}, err
	}
	return d.ExtractPeakGroups(c), nil
}

// Candidates carries one spectrum's state between mass-bin selection
// and peak-group extraction. The two-stage split lets a caller publish
// MassBins to following spectra before extraction finishes.
type Candidates struct {
	d    *Deconvolver
	spec *ms.Spectrum

	peaks    []LogMzPeak
	peakBins []int
	clamped  int

	mzBinMin    float64
	mzBinCount  int
	mzBins      *bitset.Set
	mzIntensity []float64

	binOffsets []int
	hOffsets   [][]int

	// chargeEnd and binEnd bound the charge indexes and mass bins
	// tried; fragment spectra are cut down by their precursor.
	chargeEnd int
	binEnd    int

	massBins      *bitset.Set // all selected bins
	ownBins       *bitset.Set // selected on this spectrum's evidence alone
	massIntensity []float64
	chargeLo      []int16
	chargeHi      []int16

	precursor *Precursor
}

// MassBins is the snapshot of mass bins this spectrum selected on its
// own charge-ladder evidence, for carrying into following spectra.
func (c *Candidates) MassBins() MassBinSet {
	set := MassBinSet{MinLogMass: c.d.massBinMin}
	if c.ownBins == nil {
		return set
	}
	set.Bins = make([]int, 0, c.ownBins.Count())
	for i := c.ownBins.NextSet(0); i >= 0; i = c.ownBins.NextSet(i + 1) {
		set.Bins = append(set.Bins, i)
	}
	return set
}

// SelectMassBins transforms, bins and selects candidate mass bins for
// one spectrum. An empty spectrum yields an empty candidate set and no
// error.
func (d *Deconvolver) SelectMassBins(spec *ms.Spectrum, prior Prior) (*Candidates, error) {
	if !spec.Sorted() {
		return nil, ErrUnsorted
	}

	c := &Candidates{
		d:         d,
		spec:      spec,
		chargeEnd: d.chargeRange,
		binEnd:    d.massBinCount,
		precursor: prior.Precursor,
	}

	maxMass := d.cfg.MaxMass
	if p := prior.Precursor; p != nil && spec.MSLevel > 1 {
		// Fragments cannot exceed their precursor in mass or charge.
		if p.Group.MonoMass < maxMass {
			maxMass = p.Group.MonoMass
			end := binNumber(math.Log(maxMass), d.massBinMin, d.binWidth) + 1
			if end < c.binEnd {
				c.binEnd = end
			}
		}
		if end := p.Charge - d.cfg.MinCharge + 1; end >= 0 && end < c.chargeEnd {
			c.chargeEnd = end
		}
	}

	d.logTransform(c, maxMass)
	if len(c.peaks) == 0 {
		return c, nil
	}

	d.fillMzBins(c)
	c.binOffsets = d.binOffsets(c.mzBinMin)
	c.hOffsets = d.harmonicOffsets(c.mzBinMin)
	d.selectBins(c, prior)
	return c, nil
}

// logTransform converts raw peaks to log-mz space, dropping peaks that
// cannot contribute to any in-range mass. NaN and negative intensities
// are clamped to zero and counted; the zero intensity then falls to
// the threshold filter.
func (d *Deconvolver) logTransform(c *Candidates, maxMass float64) {
	raw := c.spec.Peaks
	out := make([]LogMzPeak, 0, len(raw))

	// Above this m/z even the lowest charge implies a mass beyond the
	// range, and peaks are sorted.
	limit := d.carrier + maxMass/float64(d.cfg.MinCharge)

	for _, p := range raw {
		mz := p.Mz
		intensity := float64(p.Intensity)
		if mz > limit {
			break
		}
		if math.IsNaN(intensity) || math.IsInf(intensity, 0) || intensity < 0 {
			c.clamped++
			intensity = 0
		}
		if math.IsNaN(mz) || math.IsInf(mz, 0) || mz <= d.carrier {
			c.clamped++
			continue
		}
		if intensity <= d.cfg.MinIntensity {
			continue
		}
		out = append(out, LogMzPeak{
			Mz:        mz,
			Intensity: intensity,
			LogMz:     ms.LogMz(mz, !d.cfg.Negative),
		})
	}
	c.peaks = out
}

// fillMzBins populates the mz-bin presence set and per-bin summed
// intensities. A peak also smears into the neighbor bin it leans
// toward, so bin-edge peaks are seen by both.
func (d *Deconvolver) fillMzBins(c *Candidates) {
	first := c.peaks[0].LogMz
	last := c.peaks[len(c.peaks)-1].LogMz

	c.mzBinMin = first
	c.mzBinCount = binNumber(last, first, d.binWidth) + 2
	c.mzBins = bitset.New(c.mzBinCount)
	c.mzIntensity = make([]float64, c.mzBinCount)
	c.peakBins = make([]int, len(c.peaks))

	for i, p := range c.peaks {
		bin := binNumber(p.LogMz, first, d.binWidth)
		c.peakBins[i] = bin
		c.mzBins.Set(bin)
		c.mzIntensity[bin] += p.Intensity

		delta := p.LogMz - binValue(bin, first, d.binWidth)
		if delta > 0 && bin+1 < c.mzBinCount {
			c.mzBins.Set(bin + 1)
			c.mzIntensity[bin+1] += p.Intensity
		} else if delta < 0 && bin > 0 {
			c.mzBins.Set(bin - 1)
			c.mzIntensity[bin-1] += p.Intensity
		}
	}
}

// selectBins runs candidate selection: the charge-ladder continuity
// scan with harmonic suppression, relaxed qualification for bins
// carried in from preceding spectra, and the per-mz-bin vote that
// fixes each candidate's charge range.
func (d *Deconvolver) selectBins(c *Candidates, prior Prior) {
	n := d.massBinCount
	strong := bitset.New(n)
	weak := bitset.New(n)
	c.massIntensity = make([]float64, n)
	harmonicNoise := make([]float64, n)

	support := make([]uint8, n)
	prevCharge := make([]int16, n)
	prevIntensity := make([]float64, n)
	for i := range prevIntensity {
		prevIntensity[i] = 1
	}

	// support counts adjacent-charge pairs, so n contiguous peaks give
	// n-1 pairs.
	need := d.cfg.MinChargePeaks - 1
	if need < 1 {
		need = 1
	}

	for bin := c.mzBins.NextSet(0); bin >= 0; bin = c.mzBins.NextSet(bin + 1) {
		intensity := c.mzIntensity[bin]
		for j := 0; j < c.chargeEnd; j++ {
			massBin := bin + c.binOffsets[j]
			if massBin < 0 {
				continue
			}
			if massBin >= c.binEnd {
				break
			}

			ratio := intensity / prevIntensity[massBin]
			if ratio < 1 {
				ratio = 1 / ratio
			}
			if int(prevCharge[massBin]) != j || ratio > ladderIntensityFactor {
				support[massBin] = 0
			} else if !d.harmonicSatellite(c, massBin, j, intensity, harmonicNoise) {
				if support[massBin] == 0 {
					// First pair: count the previous charge's peak too.
					c.massIntensity[massBin] += prevIntensity[massBin]
				}
				c.massIntensity[massBin] += intensity
				support[massBin]++
				weak.Set(massBin)
				if int(support[massBin]) >= need {
					strong.Set(massBin)
				}
			}
			prevCharge[massBin] = int16(j + 1)
			prevIntensity[massBin] = intensity
		}
	}

	// Bins selected by preceding spectra qualify with a single pair.
	carried := bitset.New(n)
	for _, set := range prior.MassBins {
		shift := int(math.Round((d.massBinMin - set.MinLogMass) * d.binWidth))
		for _, b := range set.Bins {
			if i := b - shift; i >= 0 && i < n {
				carried.Set(i)
			}
		}
	}

	selected := bitset.New(n)
	for i := weak.NextSet(0); i >= 0; i = weak.NextSet(i + 1) {
		if !strong.Test(i) && !carried.Test(i) {
			continue
		}
		if c.massIntensity[i] > harmonicNoise[i] {
			selected.Set(i)
		}
	}

	// Vote: every mz bin backs the strongest candidate mass it can
	// reach, which both thins the candidate set and pins down each
	// survivor's charge range.
	c.massBins = bitset.New(n)
	c.ownBins = bitset.New(n)
	c.chargeLo = make([]int16, n)
	c.chargeHi = make([]int16, n)
	for i := range c.chargeLo {
		c.chargeLo[i] = int16(d.chargeRange)
		c.chargeHi[i] = -1
	}

	for bin := c.mzBins.NextSet(0); bin >= 0; bin = c.mzBins.NextSet(bin + 1) {
		best, bestJ := -1, 0
		var bestIntensity float64
		for j := 0; j < c.chargeEnd; j++ {
			massBin := bin + c.binOffsets[j]
			if massBin < 0 {
				continue
			}
			if massBin >= c.binEnd {
				break
			}
			if !selected.Test(massBin) {
				continue
			}
			if c.massIntensity[massBin] > bestIntensity {
				bestIntensity = c.massIntensity[massBin]
				best, bestJ = massBin, j
			}
		}
		if best < 0 {
			continue
		}
		c.massBins.Set(best)
		if strong.Test(best) {
			c.ownBins.Set(best)
		}
		if int16(bestJ) < c.chargeLo[best] {
			c.chargeLo[best] = int16(bestJ)
		}
		if int16(bestJ) > c.chargeHi[best] {
			c.chargeHi[best] = int16(bestJ)
		}
	}
}

// harmonicSatellite reports whether the mz bin feeding massBin at
// charge index j has a comparable satellite at one of the fractional
// harmonic charges. Satellite intensities are recorded so surviving
// candidates can be required to beat them.
func (d *Deconvolver) harmonicSatellite(c *Candidates, massBin, j int, intensity float64, noise []float64) bool {
	found := false
	for k := range c.hOffsets {
		hBin := massBin - c.hOffsets[k][j]
		if hBin < 0 || hBin >= c.mzBinCount || !c.mzBins.Test(hBin) {
			continue
		}
		h := c.mzIntensity[hBin]
		if h > intensity*harmonicWindowLow && h < intensity*harmonicWindowHigh {
			if h > noise[massBin] {
				noise[massBin] = h
			}
			found = true
		}
	}
	return found
}

// ExtractPeakGroups re-scans the peak list for every selected mass
// bin, scores the resulting peak groups and applies the survivor
// filters. The Candidates value must come from the same Deconvolver.
func (d *Deconvolver) ExtractPeakGroups(c *Candidates) Result {
	res := Result{
		ScanID:       c.spec.ScanID,
		RT:           c.spec.RT,
		MSLevel:      c.spec.MSLevel,
		Decoy:        d.cfg.Decoy,
		ClampedPeaks: c.clamped,
		Precursor:    c.precursor,
		MassBins:     c.MassBins(),
	}
	if c.massBins == nil || len(c.peaks) == 0 {
		return res
	}

	ex := newExtractor(d, c)
	for bin := c.massBins.NextSet(0); bin >= 0; bin = c.massBins.NextSet(bin + 1) {
		if pg, ok := ex.group(bin); ok {
			res.PeakGroups = append(res.PeakGroups, pg)
		}
	}

	res.PeakGroups = d.dedupe(res.PeakGroups)
	if limit := d.cfg.MaxMassCount; limit > 0 && len(res.PeakGroups) > limit {
		sort.SliceStable(res.PeakGroups, func(i, j int) bool {
			return res.PeakGroups[i].Intensity > res.PeakGroups[j].Intensity
		})
		res.PeakGroups = res.PeakGroups[:limit]
	}
	sort.SliceStable(res.PeakGroups, func(i, j int) bool {
		return res.PeakGroups[i].MonoMass < res.PeakGroups[j].MonoMass
	})
	return res
}

// dedupe keeps, per nominal mass, only the most intense peak group.
// Offset correction pulls the isotopologue comb of one species onto a
// single mono mass, so exact duplicates are the common case here.
func (d *Deconvolver) dedupe(groups []PeakGroup) []PeakGroup {
	if len(groups) < 2 {
		return groups
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].MonoMass < groups[j].MonoMass
	})
	out := groups[:0]
	for _, g := range groups {
		if n := len(out); n > 0 && g.NominalMass() == out[n-1].NominalMass() {
			if g.Intensity > out[n-1].Intensity {
				out[n-1] = g
			}
			continue
		}
		out = append(out, g)
	}
	return out
}

// extractor walks selected mass bins in ascending order, so the
// per-charge peak cursors only ever move forward. All slices are
// scratch space reused between groups.
type extractor struct {
	d *Deconvolver
	c *Candidates

	cursor []int // per charge index, first unread peak

	members   []LogMzPeak
	perIso    []float64
	repIso    []float64
	perCharge []float64 // indexed by absolute charge
	signal    []float64 // matched power per absolute charge
	noise     []float64 // unmatched power per absolute charge
}

func newExtractor(d *Deconvolver, c *Candidates) *extractor {
	return &extractor{
		d:         d,
		c:         c,
		cursor:    make([]int, d.chargeRange),
		perIso:    make([]float64, d.maxIso),
		repIso:    make([]float64, d.maxIso),
		perCharge: make([]float64, d.cfg.MaxCharge+1),
		signal:    make([]float64, d.cfg.MaxCharge+1),
		noise:     make([]float64, d.cfg.MaxCharge+1),
	}
}

// group extracts and scores the peak group for one selected mass bin.
func (e *extractor) group(bin int) (PeakGroup, bool) {
	d, c := e.d, e.c

	lo, hi := int(c.chargeLo[bin]), int(c.chargeHi[bin])
	if hi < lo {
		return PeakGroup{}, false
	}

	mass := math.Exp(binValue(bin, d.massBinMin, d.binWidth))
	tpl := d.table.Get(mass)

	e.members = e.members[:0]
	clear(e.signal)
	clear(e.noise)

	for j := lo; j <= hi; j++ {
		mzBin := bin - c.binOffsets[j]
		if mzBin < 0 || mzBin >= c.mzBinCount || !c.mzBins.Test(mzBin) {
			continue
		}
		e.collect(mzBin, j, mass)
	}
	if len(e.members) == 0 {
		return PeakGroup{}, false
	}
	return e.score(mass, tpl)
}

// collect anchors at the most intense peak in one mz bin and extends
// the isotope envelope outward at the charge's isotopologue spacing.
// Positions without a matching peak end the walk; nothing is ever
// fabricated.
func (e *extractor) collect(mzBin, j int, mass float64) {
	d, c := e.d, e.c
	peaks := c.peaks
	charge := d.cfg.MinCharge + j

	i := e.cursor[j]
	for i < len(peaks) && c.peakBins[i] < mzBin {
		i++
	}
	e.cursor[j] = i

	anchor := -1
	for k := i; k < len(peaks) && c.peakBins[k] == mzBin; k++ {
		if anchor < 0 || peaks[k].Intensity > peaks[anchor].Intensity {
			anchor = k
		}
	}
	if anchor < 0 {
		return
	}

	a := peaks[anchor]
	isoDelta := ms.IsotopeMassDiff55K / float64(charge)
	window := 2 * d.tol * a.Mz

	e.appendMember(anchor, charge, mass)

	iso := 0
	for k := anchor + 1; k < len(peaks); k++ {
		step := int(math.Round((peaks[k].Mz - a.Mz) / isoDelta))
		if step > iso+1 {
			break
		}
		if math.Abs(peaks[k].Mz-a.Mz-float64(step)*isoDelta) > window {
			e.noise[charge] += peaks[k].Intensity * peaks[k].Intensity
			continue
		}
		e.appendMember(k, charge, mass)
		iso = step
	}

	iso = 0
	for k := anchor - 1; k >= 0; k-- {
		step := int(math.Round((peaks[k].Mz - a.Mz) / isoDelta))
		if step < iso-1 {
			break
		}
		if math.Abs(peaks[k].Mz-a.Mz-float64(step)*isoDelta) > window {
			e.noise[charge] += peaks[k].Intensity * peaks[k].Intensity
			continue
		}
		e.appendMember(k, charge, mass)
		iso = step
	}
}

func (e *extractor) appendMember(idx, charge int, mass float64) {
	p := e.c.peaks[idx]
	p.Charge = charge
	p.IsotopeIndex = int(math.Round((p.UnchargedMass(e.d.carrier) - mass) / ms.IsotopeMassDiff55K))
	e.members = append(e.members, p)
}

// score turns the collected members into a scored peak group, or
// reports false when a filter rejects it.
func (e *extractor) score(mass float64, tpl averagine.Template) (PeakGroup, bool) {
	d := e.d

	// Re-anchor isotope indices at the lowest observed isotopologue;
	// the offset search below finds the true monoisotope from there.
	minIdx := e.members[0].IsotopeIndex
	for _, p := range e.members[1:] {
		if p.IsotopeIndex < minIdx {
			minIdx = p.IsotopeIndex
		}
	}
	for i := range e.members {
		e.members[i].IsotopeIndex -= minIdx
	}

	clear(e.perIso)
	for _, p := range e.members {
		if p.IsotopeIndex < len(e.perIso) {
			e.perIso[p.IsotopeIndex] += p.Intensity
		}
	}

	cos, offset := IsotopeCosine(e.perIso, mass, d.table)
	if cos < d.cfg.MinIsotopeCosine {
		return PeakGroup{}, false
	}

	// Shift members into the template frame and drop what falls
	// outside its support.
	lastIdx := tpl.LastIndex()
	if lastIdx >= d.maxIso {
		lastIdx = d.maxIso - 1
	}
	kept := e.members[:0]
	for _, p := range e.members {
		p.IsotopeIndex -= offset
		if p.IsotopeIndex < 0 || p.IsotopeIndex > lastIdx {
			e.noise[p.Charge] += p.Intensity * p.Intensity
			continue
		}
		kept = append(kept, p)
	}
	e.members = kept
	if len(e.members) == 0 {
		return PeakGroup{}, false
	}

	clear(e.perIso)
	clear(e.perCharge)
	var wsum, isum float64
	minCh, maxCh := e.members[0].Charge, e.members[0].Charge
	for _, p := range e.members {
		e.perIso[p.IsotopeIndex] += p.Intensity
		e.perCharge[p.Charge] += p.Intensity
		e.signal[p.Charge] += p.Intensity * p.Intensity
		wsum += p.Intensity * (p.UnchargedMass(d.carrier) - float64(p.IsotopeIndex)*ms.IsotopeMassDiff55K)
		isum += p.Intensity
		if p.Charge < minCh {
			minCh = p.Charge
		}
		if p.Charge > maxCh {
			maxCh = p.Charge
		}
	}
	mono := wsum / isum
	if mono < d.cfg.MinMass || mono > d.cfg.MaxMass {
		return PeakGroup{}, false
	}

	chargeCos := 1.0
	if e.c.spec.MSLevel == 1 {
		chargeCos = ChargeFitScore(e.perCharge)
		if chargeCos < d.cfg.MinChargeCosine {
			return PeakGroup{}, false
		}
	}

	rep := vecmath.ArgMax(e.perCharge)
	clear(e.repIso)
	for _, p := range e.members {
		if p.Charge == rep {
			e.repIso[p.IsotopeIndex] += p.Intensity
		}
	}
	repCos := 0.0
	if lo, hi := vectorSupport(e.repIso); lo >= 0 {
		repCos = shiftedCosine(e.repIso, lo, hi, tpl.Intensities, 0)
	}

	var ppm float64
	for _, p := range e.members {
		theo := (mono+float64(p.IsotopeIndex)*ms.IsotopeMassDiff55K)/float64(p.Charge) + d.carrier
		ppm += math.Abs(theo-p.Mz) / p.Mz * 1e6
	}
	ppm /= float64(len(e.members))

	pg := PeakGroup{
		Peaks:               append([]LogMzPeak(nil), e.members...),
		MonoMass:            mono,
		AvgMass:             mono + tpl.AverageMassDelta,
		Intensity:           isum,
		MinCharge:           minCh,
		MaxCharge:           maxCh,
		PerChargeIntensity:  append([]float64(nil), e.perCharge...),
		PerIsotopeIntensity: append([]float64(nil), e.perIso...),
		IsotopeCosine:       finiteOrZero(cos),
		ChargeCosine:        finiteOrZero(chargeCos),
		SNR:                 finiteOrZero(signalToNoise(cos, vecmath.Sum(e.signal), vecmath.Sum(e.noise))),
		AvgPPMError:         finiteOrZero(ppm),
		RepCharge:           rep,
		RepChargeCosine:     finiteOrZero(repCos),
		RepChargeSNR:        finiteOrZero(signalToNoise(repCos, e.signal[rep], e.noise[rep])),
		ScanID:              e.c.spec.ScanID,
		RT:                  e.c.spec.RT,
		MSLevel:             e.c.spec.MSLevel,
		Decoy:               d.cfg.Decoy,
	}
	sort.SliceStable(pg.Peaks, func(i, j int) bool {
		if pg.Peaks[i].Charge != pg.Peaks[j].Charge {
			return pg.Peaks[i].Charge < pg.Peaks[j].Charge
		}
		return pg.Peaks[i].Mz < pg.Peaks[j].Mz
	})
	pg.QScore = qscore(&pg)
	return pg, true
}

func vectorSupport(v []float64) (lo, hi int) {
	lo, hi = -1, -1
	for i, x := range v {
		if x <= 0 {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	return lo, hi
}

func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
