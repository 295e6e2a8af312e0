package raster

import "strings"

// Resampling is the pixel estimation algorithm used when reading through a
// warped view.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
	Cubic
	CubicSpline
	Lanczos
	Average
	Mode
	Max
	Min
	Med
	Q1
	Q3
	Sum
	RMS
)

var resamplingNames = []string{
	Nearest:     "nearest",
	Bilinear:    "bilinear",
	Cubic:       "cubic",
	CubicSpline: "cubic_spline",
	Lanczos:     "lanczos",
	Average:     "average",
	Mode:        "mode",
	Max:         "max",
	Min:         "min",
	Med:         "med",
	Q1:          "q1",
	Q3:          "q3",
	Sum:         "sum",
	RMS:         "rms",
}

func (r Resampling) String() string {
	if r < 0 || int(r) >= len(resamplingNames) {
		return "nearest"
	}
	return resamplingNames[r]
}

// Resamplings returns every supported algorithm in declaration order.
func Resamplings() []Resampling {
	out := make([]Resampling, len(resamplingNames))
	for i := range resamplingNames {
		out[i] = Resampling(i)
	}
	return out
}

// LookupResampling resolves a name, reporting whether it is known.
func LookupResampling(name string) (Resampling, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range resamplingNames {
		if n == name {
			return Resampling(i), true
		}
	}
	return Nearest, false
}

// ParseResampling resolves a name. Unknown names yield Nearest.
func ParseResampling(name string) Resampling {
	r, _ := LookupResampling(name)
	return r
}
