package autoloc

import "math"

// scoreParams bundles the config knobs originScore needs so it does
// not depend on the whole Config struct.
type scoreParams struct {
	NetworkSizeKm float64
	MaxRMS        float64
}

// originScore computes each arrival's per-arrival score and returns
// the sum, scaled by depthFactor. Grounded on util.cpp's
// originScore(): per-arrival SNR is clamped to [3,100] (manual picks
// without SNR default to 10), amplitude defaults to 1 for manual
// picks, distance score favors near stations using the network-size
// derived radius, amplitude score saturates with a "+0.4" allowance
// past the third arrival, and time score uses the plateau bell curve
// over twice the configured max RMS.
func originScore(o *Origin, picks *PickPool, stations *Directory, p scoreParams) float64 {
	networkRadius := 0.0
	if p.NetworkSizeKm > 0 {
		networkRadius = 0.5 * p.NetworkSizeKm / 111.195
	}

	total := 0.0
	amplCount := 0
	for i := range o.Arrivals {
		arr := &o.Arrivals[i]
		if !arr.Defining() {
			continue
		}
		pick, ok := picks.Get(arr.PickID)
		if !ok {
			continue
		}

		snr := 3.0
		normamp := 1.0
		haveAmpl := pick.Amplitude != nil
		if haveAmpl {
			snr = pick.Amplitude.SNR
			if snr <= 0 {
				snr = 3
			}
			if snr < 3 {
				snr = 3
			}
			if snr > 100 {
				snr = 100
			}
			normamp = pick.Amplitude.Value
			if normamp <= 0 {
				normamp = 1
			}
		} else if pick.manual() {
			snr = 10
		}

		dmax := networkRadius
		if dmax <= 0 {
			if sta, ok := stations.Lookup(pick.Net, pick.Sta, pick.Loc); ok && sta.MaxNucDist > 0 {
				dmax = sta.MaxNucDist
			} else {
				dmax = 30
			}
		}

		snrScore := math.Log10(snr)
		distScore := 1.5 * math.Exp(-(arr.Distance*arr.Distance)/(dmax*dmax))

		amplScore := 1 + 0.8*(1+0.5*math.Log10(normamp))
		if amplScore < 1 {
			amplScore = 1
		}
		if amplCount > 2 {
			const ceiling = 1.4
			if amplScore > ceiling {
				amplScore = ceiling
			}
		}
		amplScore *= snrScore
		if haveAmpl {
			amplCount++
		}

		maxRMS := p.MaxRMS
		if maxRMS <= 0 {
			maxRMS = 3.5
		}
		timeScore := avgfn2(arr.Residual/(2*maxRMS), 0.2)

		phaseScore := 1.0
		if arr.Excluded&UnusedPhase != 0 && isPKP(arr.Phase) {
			phaseScore = 0.3
		}

		arr.Score = phaseScore * timeScore * distScore * amplScore
		total += arr.Score
	}
	return total * depthFactor(o.Depth)
}
