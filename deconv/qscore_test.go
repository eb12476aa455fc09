package deconv

import "testing"

func baselineGroup() PeakGroup {
	return PeakGroup{
		IsotopeCosine:   0.9,
		ChargeCosine:    0.8,
		SNR:             5,
		RepChargeCosine: 0.85,
		RepChargeSNR:    3,
		AvgPPMError:     2,
	}
}

func TestQScoreRange(t *testing.T) {
	pg := baselineGroup()
	q := qscore(&pg)
	if q <= 0 || q >= 1 {
		t.Fatalf("qscore out of (0, 1): %v", q)
	}

	var zero PeakGroup
	q = qscore(&zero)
	if q <= 0 || q >= 1 {
		t.Fatalf("qscore of zero group out of (0, 1): %v", q)
	}
}

func TestQScoreMonotonic(t *testing.T) {
	base := baselineGroup()
	ref := qscore(&base)

	better := base
	better.IsotopeCosine = 0.99
	if q := qscore(&better); q <= ref {
		t.Fatalf("higher isotope cosine must raise qscore: %v <= %v", q, ref)
	}

	better = base
	better.SNR = 50
	if q := qscore(&better); q <= ref {
		t.Fatalf("higher snr must raise qscore: %v <= %v", q, ref)
	}

	worse := base
	worse.AvgPPMError = 8
	if q := qscore(&worse); q >= ref {
		t.Fatalf("higher mass error must lower qscore: %v >= %v", q, ref)
	}

	worse = base
	worse.RepChargeCosine = 0.4
	if q := qscore(&worse); q >= ref {
		t.Fatalf("lower charge cosine must lower qscore: %v >= %v", q, ref)
	}
}
