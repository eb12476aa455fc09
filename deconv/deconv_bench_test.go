package deconv

import (
	"testing"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/internal/testutil"
	"github.com/cwbudde/algo-msdeconv/ms"
)

func benchmarkSpectrum(b *testing.B, tab *averagine.Table) *ms.Spectrum {
	b.Helper()
	return testutil.Spectrum(tab,
		testutil.Species{MonoMass: 12000, MinCharge: 8, MaxCharge: 14, Scale: 100},
		testutil.Species{MonoMass: 8000, MinCharge: 6, MaxCharge: 11, Scale: 40},
		testutil.Species{MonoMass: 4500, MinCharge: 3, MaxCharge: 7, Scale: 25},
		testutil.Species{MonoMass: 1200, MinCharge: 1, MaxCharge: 3, Scale: 10},
	)
}

func BenchmarkDeconvolve(b *testing.B) {
	tab, err := averagine.Build(averagine.Config{MinMass: 50, MaxMass: 30000})
	if err != nil {
		b.Fatalf("building table: %v", err)
	}
	d, err := New(Config{MaxMass: 30000}, tab)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	spec := benchmarkSpectrum(b, tab)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Deconvolve(spec, Prior{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSelectMassBins(b *testing.B) {
	tab, err := averagine.Build(averagine.Config{MinMass: 50, MaxMass: 30000})
	if err != nil {
		b.Fatalf("building table: %v", err)
	}
	d, err := New(Config{MaxMass: 30000}, tab)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	spec := benchmarkSpectrum(b, tab)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.SelectMassBins(spec, Prior{}); err != nil {
			b.Fatal(err)
		}
	}
}
