// Command isoinfo prints properties of averagine isotope envelopes.
//
// Usage:
//
//	isoinfo [flags] [mass ...]
//
// Masses are neutral monoisotopic masses in Da. Without arguments it
// prints info for a default mass sweep.
//
// Examples:
//
//	isoinfo 12000
//	isoinfo -charge 12 12000 18000
//	isoinfo -model rna -step 10 5000
//	isoinfo -envelope -charge 12 18000
//	isoinfo -list
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/isotope"
	"github.com/cwbudde/algo-msdeconv/ms"
)

type modelEntry struct {
	name    string
	model   averagine.Model
	compose func(float64) isotope.Composition
}

var registry = []modelEntry{
	{"peptide", averagine.Peptide, isotope.PeptideComposition},
	{"rna", averagine.RNA, isotope.RNAComposition},
}

var defaultMasses = []float64{500, 1000, 2000, 5000, 10000, 20000, 50000}

func main() {
	model := flag.String("model", "peptide", "composition model (use -list to see available)")
	charge := flag.Int("charge", 0, "charge state for m/z columns, 0 disables")
	step := flag.Float64("step", 20, "template grid spacing in Da")
	envelope := flag.Bool("envelope", false, "print per-isotopologue rows instead of the summary")
	list := flag.Bool("list", false, "list available composition models")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: isoinfo [flags] [mass ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints properties of averagine isotope envelopes.\n")
		fmt.Fprintf(os.Stderr, "Masses are neutral monoisotopic masses in Da.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints info for a default mass sweep.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  isoinfo 12000 18000\n")
		fmt.Fprintf(os.Stderr, "  isoinfo -charge 12 18000\n")
		fmt.Fprintf(os.Stderr, "  isoinfo -model rna 5000\n")
		fmt.Fprintf(os.Stderr, "  isoinfo -list\n")
	}
	flag.Parse()

	if *list {
		printList()
		return
	}

	entry, ok := resolveModel(*model)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown model %q (use -list to see available)\n", *model)
		os.Exit(1)
	}
	if *charge < 0 {
		fmt.Fprintf(os.Stderr, "error: charge must not be negative\n")
		os.Exit(1)
	}
	if *step <= 0 {
		fmt.Fprintf(os.Stderr, "error: step must be positive\n")
		os.Exit(1)
	}

	masses := resolveMasses(flag.Args())
	if len(masses) == 0 {
		fmt.Fprintf(os.Stderr, "error: no valid masses\n")
		os.Exit(1)
	}

	grid := newGrid(masses, *step, entry.model)
	table, err := averagine.Build(grid.cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *envelope {
		printEnvelopes(table, grid, entry, masses, *charge)
		return
	}
	printSummary(table, grid, entry, masses, *charge)
}

func printList() {
	for _, e := range registry {
		fmt.Println(e.name)
	}
}

func resolveModel(name string) (modelEntry, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range registry {
		if e.name == name {
			return e, true
		}
	}
	return modelEntry{}, false
}

func resolveMasses(args []string) []float64 {
	if len(args) == 0 {
		return defaultMasses
	}
	var masses []float64
	for _, arg := range args {
		m, err := strconv.ParseFloat(arg, 64)
		if err != nil || m <= 0 {
			fmt.Fprintf(os.Stderr, "warning: skipping invalid mass %q\n", arg)
			continue
		}
		masses = append(masses, m)
	}
	return masses
}

// grid mirrors the snapping the table applies so the printed grid mass
// matches the template actually returned for a request.
type grid struct {
	cfg   averagine.Config
	first float64
	last  float64
}

func newGrid(masses []float64, step float64, model averagine.Model) grid {
	minMass, maxMass := masses[0], masses[0]
	for _, m := range masses[1:] {
		minMass = math.Min(minMass, m)
		maxMass = math.Max(maxMass, m)
	}

	cfg := averagine.Config{
		MinMass:  minMass,
		MaxMass:  maxMass + step,
		MassStep: step,
		Model:    model,
	}
	first := math.Ceil(cfg.MinMass/step) * step
	last := math.Floor(cfg.MaxMass/step) * step
	return grid{cfg: cfg, first: first, last: last}
}

func (g grid) snap(mass float64) float64 {
	m := g.first + math.Round(math.Max(0, mass-g.first)/g.cfg.MassStep)*g.cfg.MassStep
	if m > g.last {
		m = g.last
	}
	return m
}

func printSummary(table *averagine.Table, g grid, entry modelEntry, masses []float64, charge int) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "Mass\tGrid\tComposition\tIsotopes\tApex\tAvg Delta [Da]\tAbund Delta [Da]"
	rule := "----\t----\t-----------\t--------\t----\t--------------\t----------------"
	if charge > 0 {
		header += "\tApex m/z"
		rule += "\t--------"
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintln(tw, rule); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, m := range masses {
		gm := g.snap(m)
		tpl := table.Get(m)

		row := fmt.Sprintf("%.1f\t%.0f\t%s\t%d\t%d\t%.4f\t%.4f",
			m,
			gm,
			formatComposition(entry.compose(gm)),
			retainedCount(tpl),
			tpl.ApexIndex,
			tpl.AverageMassDelta,
			tpl.MostAbundantMassDelta,
		)
		if charge > 0 {
			row += fmt.Sprintf("\t%.4f", mzAt(gm+tpl.MostAbundantMassDelta, charge))
		}
		if _, err := fmt.Fprintln(tw, row); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printEnvelopes(table *averagine.Table, g grid, entry modelEntry, masses []float64, charge int) {
	for i, m := range masses {
		gm := g.snap(m)
		tpl := table.Get(m)

		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%.1f Da (%s, grid %.0f, %s)\n",
			m, entry.name, gm, formatComposition(entry.compose(gm)))

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		header := "Iso\tMass [Da]\tIntensity\tPower [%]"
		rule := "---\t---------\t---------\t---------"
		if charge > 0 {
			header = "Iso\tMass [Da]\tm/z\tIntensity\tPower [%]"
			rule = "---\t---------\t---\t---------\t---------"
		}
		if _, err := fmt.Fprintln(tw, header); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
			return
		}
		if _, err := fmt.Fprintln(tw, rule); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
			return
		}

		for k, v := range tpl.Intensities {
			if v == 0 {
				continue
			}
			iso := gm + float64(k)*ms.IsotopeMassDiff
			var row string
			if charge > 0 {
				row = fmt.Sprintf("%d\t%.4f\t%.4f\t%.6f\t%.4f", k, iso, mzAt(iso, charge), v, 100*v*v)
			} else {
				row = fmt.Sprintf("%d\t%.4f\t%.6f\t%.4f", k, iso, v, 100*v*v)
			}
			if _, err := fmt.Fprintln(tw, row); err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
				return
			}
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
		}
	}
}

func mzAt(mass float64, charge int) float64 {
	z := float64(charge)
	return (mass + z*ms.ProtonMass) / z
}

// retainedCount is the number of isotopologues that survived template
// trimming.
func retainedCount(tpl averagine.Template) int {
	n := 0
	for _, v := range tpl.Intensities {
		if v != 0 {
			n++
		}
	}
	return n
}

// formatComposition renders a composition as a formula string, zero
// counts omitted.
func formatComposition(c isotope.Composition) string {
	parts := []struct {
		sym string
		n   int
	}{
		{"C", c.C}, {"H", c.H}, {"N", c.N}, {"O", c.O}, {"S", c.S}, {"P", c.P},
	}
	var b strings.Builder
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%d", p.sym, p.n)
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
