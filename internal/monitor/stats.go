package monitor

import "math"

// Summary holds descriptive statistics for a view of the log.
// StdDev is the sample standard deviation, since readings are a sample
// of an ongoing process. When HasData is false every numeric field is
// zero and must not be interpreted as a measurement.
type Summary struct {
	Count   int     `json:"count"`
	MeanC   float64 `json:"meanC"`
	MinC    float64 `json:"minC"`
	MaxC    float64 `json:"maxC"`
	StdDevC float64 `json:"stdDevC"`
	HasData bool    `json:"hasData"`
}

// Compute derives summary statistics over a filtered view. An empty
// view yields the no-data sentinel rather than an error.
func Compute(view []Reading) Summary {
	if len(view) == 0 {
		return Summary{}
	}

	sum := 0.0
	minC := view[0].TemperatureC
	maxC := view[0].TemperatureC
	for _, r := range view {
		sum += r.TemperatureC
		if r.TemperatureC < minC {
			minC = r.TemperatureC
		}
		if r.TemperatureC > maxC {
			maxC = r.TemperatureC
		}
	}
	mean := sum / float64(len(view))

	var stddev float64
	if len(view) > 1 {
		var ss float64
		for _, r := range view {
			d := r.TemperatureC - mean
			ss += d * d
		}
		stddev = math.Sqrt(ss / float64(len(view)-1))
	}

	return Summary{
		Count:   len(view),
		MeanC:   mean,
		MinC:    minC,
		MaxC:    maxC,
		StdDevC: stddev,
		HasData: true,
	}
}
