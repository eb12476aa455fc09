package deconv_test

import (
	"fmt"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/deconv"
	"github.com/cwbudde/algo-msdeconv/internal/testutil"
)

func ExampleDeconvolver_Deconvolve() {
	tab, err := averagine.Build(averagine.Config{MaxMass: 20000})
	if err != nil {
		panic(err)
	}
	d, err := deconv.New(deconv.Config{MaxMass: 20000}, tab)
	if err != nil {
		panic(err)
	}

	// A 12 kDa species electrosprayed over charges 8..12.
	spec := testutil.Spectrum(tab, testutil.Species{
		MonoMass:  12000,
		MinCharge: 8,
		MaxCharge: 12,
	})

	res, err := d.Deconvolve(spec, deconv.Prior{})
	if err != nil {
		panic(err)
	}
	for _, pg := range res.PeakGroups {
		fmt.Printf("mono=%.2f Da charges=%d..%d cosine=%.2f\n",
			pg.MonoMass, pg.MinCharge, pg.MaxCharge, pg.IsotopeCosine)
	}

	// Output:
	// mono=12000.00 Da charges=8..12 cosine=1.00
}
