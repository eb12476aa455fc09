package deconv

// qscoreWeights are logistic-regression coefficients trained on
// manually validated deconvolution output. Order: representative
// charge cosine, representative charge SNR, isotope cosine, overall
// SNR, charge-fit score, average ppm error, intercept.
var qscoreWeights = [...]float64{-1.4105, -1.514, -2.2335, -1.4643, 0.1329, 0.262, 4.3052}

// qscore maps a scored peak group onto (0, 1), higher meaning more
// likely a real species. The feature transform mirrors the training
// pipeline of the weights above, so the two must change together.
func qscore(pg *PeakGroup) float64 {
	fv := [...]float64{
		mathLog2(pg.RepChargeCosine + 1),
		mathLog2(1 + saturate(pg.RepChargeSNR)),
		mathLog2(pg.IsotopeCosine + 1),
		mathLog2(1 + saturate(pg.SNR)),
		mathLog2(pg.ChargeCosine + 1),
		pg.AvgPPMError,
	}

	score := qscoreWeights[len(qscoreWeights)-1]
	for i, v := range fv {
		score += v * qscoreWeights[i]
	}
	return 1 / (1 + mathExp(score))
}

// saturate compresses [0, inf) onto [0, 1).
func saturate(x float64) float64 {
	return x / (1 + x)
}
