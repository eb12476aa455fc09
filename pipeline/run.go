package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-msdeconv/deconv"
	"github.com/cwbudde/algo-msdeconv/ms"
	"github.com/cwbudde/algo-msdeconv/trace"
)

// RunResult bundles the output of one Run.
type RunResult struct {
	// Results holds one entry per input spectrum, in input order.
	// Spectra that were skipped keep their scan metadata and carry no
	// peak groups.
	Results []deconv.Result

	// DecoyResults mirrors Results for the decoy pass. Nil unless the
	// runner was configured with Decoy.
	DecoyResults []deconv.Result

	// Features are the survey masses traced across retention time.
	Features []trace.Feature
}

// chain orders the spectra of one MS level. Each task publishes its
// mass-bin snapshot into its own slot and closes its ready channel;
// waiting for the immediate predecessor is enough to read the whole
// preceding window, because predecessors wait transitively.
type chain struct {
	depth int
	snaps []deconv.MassBinSet
	ready []chan struct{}
}

func newChain(n, depth int) *chain {
	ch := &chain{
		depth: depth,
		snaps: make([]deconv.MassBinSet, n),
		ready: make([]chan struct{}, n),
	}
	for i := range ch.ready {
		ch.ready[i] = make(chan struct{})
	}
	return ch
}

func (ch *chain) wait(ctx context.Context, seq int) error {
	if seq == 0 {
		return nil
	}
	select {
	case <-ch.ready[seq-1]:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ch *chain) publish(seq int, set deconv.MassBinSet) {
	ch.snaps[seq] = set
	close(ch.ready[seq])
}

// window returns the published snapshots of the depth preceding
// spectra. Valid only after wait(seq) returned.
func (ch *chain) window(seq int) []deconv.MassBinSet {
	lo := seq - ch.depth
	if lo < 0 {
		lo = 0
	}
	return ch.snaps[lo:seq]
}

// task is one spectrum's place in the run. A nil spec marks a
// spectrum that is not processed.
type task struct {
	spec  *ms.Spectrum
	level int
	// seq is the index within the level's chain.
	seq int
	// pred is the input index of the nearest preceding spectrum one
	// level up, -1 if there is none.
	pred int
}

type runState struct {
	tasks   []task
	chains  map[int]*chain
	dchains map[int]*chain

	results      []deconv.Result
	decoyResults []deconv.Result
	// done[i] closes once results[i] is stored; fragment tasks wait on
	// it to register their precursor.
	done []chan struct{}

	// surveyDepth is the survey-level continuity depth, reused as the
	// tracer's missed-scan budget.
	surveyDepth int
}

// Run deconvolves spectra and traces the survey results into features.
// Results come back in input order regardless of scheduling. The only
// returned errors are cancellation and tracer construction; malformed
// spectra are logged and skipped.
func (r *Runner) Run(ctx context.Context, spectra []*ms.Spectrum) (*RunResult, error) {
	rs := r.plan(spectra)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range rs.tasks {
		if rs.tasks[i].spec == nil {
			continue
		}
		g.Go(func() error { return r.process(gctx, rs, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tcfg := r.traceCfg
	if tcfg.MaxMissedScans == 0 {
		tcfg.MaxMissedScans = rs.surveyDepth
	}
	tracer, err := trace.New(tcfg, r.table)
	if err != nil {
		return nil, fmt.Errorf("pipeline: tracer: %w", err)
	}
	features := tracer.FindFeatures(rs.results)

	r.log.Info("run complete",
		"spectra", len(spectra),
		"features", len(features))
	return &RunResult{
		Results:      rs.results,
		DecoyResults: rs.decoyResults,
		Features:     features,
	}, nil
}

// plan assigns each spectrum its chain slot and precursor link and
// sizes the continuity windows from the run's scan rate.
func (r *Runner) plan(spectra []*ms.Spectrum) *runState {
	n := len(spectra)
	rs := &runState{
		tasks:   make([]task, n),
		chains:  make(map[int]*chain),
		dchains: make(map[int]*chain),
		results: make([]deconv.Result, n),
		done:    make([]chan struct{}, n),
	}
	if r.cfg.Decoy {
		rs.decoyResults = make([]deconv.Result, n)
	}

	counts := make(map[int]int)
	lastOfLevel := make(map[int]int)
	minRT, maxRT := math.Inf(1), math.Inf(-1)
	for i, sp := range spectra {
		rs.done[i] = make(chan struct{})
		level := sp.MSLevel
		if level < 1 || level > r.cfg.MaxMSLevel {
			r.log.Debug("spectrum outside processed MS levels",
				"scan", sp.ScanID, "msLevel", level)
			rs.results[i] = deconv.Result{ScanID: sp.ScanID, RT: sp.RT, MSLevel: level}
			close(rs.done[i])
			continue
		}

		pred := -1
		if level > 1 {
			if j, ok := lastOfLevel[level-1]; ok {
				pred = j
			}
		}
		rs.tasks[i] = task{spec: sp, level: level, seq: counts[level], pred: pred}
		counts[level]++
		lastOfLevel[level] = i
		if sp.RT < minRT {
			minRT = sp.RT
		}
		if sp.RT > maxRT {
			maxRT = sp.RT
		}
	}

	duration := 0.0
	if maxRT > minRT {
		duration = maxRT - minRT
	}
	rs.surveyDepth = r.cfg.MinOverlapScans
	for level, count := range counts {
		depth := r.overlapScans(duration, count)
		rs.chains[level] = newChain(count, depth)
		if r.cfg.Decoy {
			rs.dchains[level] = newChain(count, depth)
		}
		if level == 1 {
			rs.surveyDepth = depth
		}
	}
	return rs
}

// overlapScans converts the retention-time continuity window into a
// scan count for a level acquiring count scans over duration.
func (r *Runner) overlapScans(duration float64, count int) int {
	window := r.cfg.RTWindow
	if window <= 0 {
		window = 10
		if w := 0.01 * duration; w > window {
			window = w
		}
	}
	depth := r.cfg.MinOverlapScans
	if count > 0 && duration > 0 {
		if n := int(0.5 + window*float64(count)/duration); n > depth {
			depth = n
		}
	}
	return depth
}

// process runs one spectrum through its engine: wait for the
// predecessor snapshot, select candidate bins, publish its own
// snapshot, then extract peak groups concurrently with successors.
func (r *Runner) process(ctx context.Context, rs *runState, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := rs.tasks[i]
	sp := t.spec
	eng := r.engine(t.level)
	tch := rs.chains[t.level]
	dch := rs.dchains[t.level]

	if err := tch.wait(ctx, t.seq); err != nil {
		return err
	}

	var prior deconv.Prior
	if t.level > 1 && t.pred >= 0 && sp.Precursor != nil {
		select {
		case <-rs.done[t.pred]:
		case <-ctx.Done():
			return ctx.Err()
		}
		if pre, ok := deconv.FindPrecursor(&rs.results[t.pred], *sp.Precursor); ok {
			prior.Precursor = pre
		}
	}
	prior.MassBins = tch.window(t.seq)

	cand, err := eng.SelectMassBins(sp, prior)
	if err != nil {
		tch.publish(t.seq, deconv.MassBinSet{})
		if dch != nil {
			if werr := dch.wait(ctx, t.seq); werr != nil {
				return werr
			}
			dch.publish(t.seq, deconv.MassBinSet{})
		}
		r.log.Warn("spectrum skipped",
			"scan", sp.ScanID, "msLevel", sp.MSLevel, "err", err)
		rs.results[i] = deconv.Result{ScanID: sp.ScanID, RT: sp.RT, MSLevel: sp.MSLevel}
		close(rs.done[i])
		return nil
	}
	tch.publish(t.seq, cand.MassBins())

	// The decoy pass publishes its snapshot before either extraction
	// so successors of both chains proceed.
	var dcand *deconv.Candidates
	if dch != nil {
		if err := dch.wait(ctx, t.seq); err != nil {
			return err
		}
		dprior := deconv.Prior{MassBins: dch.window(t.seq), Precursor: prior.Precursor}
		dc, derr := r.decoyEngine(t.level).SelectMassBins(sp, dprior)
		if derr != nil {
			dch.publish(t.seq, deconv.MassBinSet{})
		} else {
			dch.publish(t.seq, dc.MassBins())
			dcand = dc
		}
	}

	res := eng.ExtractPeakGroups(cand)
	if res.ClampedPeaks > 0 {
		r.log.Debug("clamped input peaks",
			"scan", sp.ScanID, "count", res.ClampedPeaks)
	}
	rs.results[i] = res
	close(rs.done[i])

	if dcand != nil {
		dres := r.decoyEngine(t.level).ExtractPeakGroups(dcand)
		tol := r.engine(t.level).Config().TolerancePPM * 1e-6
		dres.PeakGroups = removeSharedMasses(dres.PeakGroups, res.PeakGroups, tol)
		rs.decoyResults[i] = dres
	}
	return nil
}

// removeSharedMasses drops decoy groups lying within the relative
// tolerance of any target mass of the same spectrum; what survives is
// noise by construction. Both inputs are sorted by mass.
func removeSharedMasses(decoy, target []deconv.PeakGroup, tol float64) []deconv.PeakGroup {
	if len(decoy) == 0 || len(target) == 0 {
		return decoy
	}
	monos := make([]float64, len(target))
	for i := range target {
		monos[i] = target[i].MonoMass
	}

	kept := decoy[:0]
	for _, pg := range decoy {
		window := tol * pg.MonoMass
		i := sort.SearchFloat64s(monos, pg.MonoMass)
		shared := i < len(monos) && monos[i]-pg.MonoMass <= window
		if !shared && i > 0 {
			shared = pg.MonoMass-monos[i-1] <= window
		}
		if !shared {
			kept = append(kept, pg)
		}
	}
	return kept
}
