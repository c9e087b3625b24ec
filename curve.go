package bones

import (
	"errors"
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// ErrUnknownFadeCurve is returned by FadeCurve for names it does not know.
var ErrUnknownFadeCurve = errors.New("unknown fade curve")

var fadeCurves = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"outInQuad":  ease.OutInQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"inExpo":     ease.InExpo,
	"outExpo":    ease.OutExpo,
	"inOutExpo":  ease.InOutExpo,
}

// FadeCurve returns the easing function registered under name, e.g.
// "linear" or "inOutSine".
func FadeCurve(name string) (ease.TweenFunc, error) {
	if fn, ok := fadeCurves[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFadeCurve, name)
}

// shape evaluates a gween easing function on the unit interval.
func shape(fn ease.TweenFunc, t float64) float64 {
	return float64(fn(float32(t), 0, 1, 1))
}

// EaseValue maps linear progress in [0, 1] through the parametric easing
// used by TweenLine keyframes:
//
//	easing == 0          linear
//	easing in [-1, 0)    ease in, intensity -easing
//	easing in (0, 1]     ease out, intensity easing
//	easing in (1, 2]     ease in-out, intensity easing-1
//	easing in [-2, -1)   ease out-in, intensity -easing-1
//
// Intensity blends linearly between the straight line and the full shape.
func EaseValue(progress, easing float64) float64 {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return 1
	}
	if easing == 0 || math.IsNaN(easing) {
		return progress
	}
	var shaped, intensity float64
	switch {
	case easing > 1:
		shaped, intensity = shape(ease.InOutSine, progress), easing-1
	case easing > 0:
		shaped, intensity = shape(ease.OutQuad, progress), easing
	case easing >= -1:
		shaped, intensity = shape(ease.InQuad, progress), -easing
	default:
		shaped, intensity = shape(ease.OutInQuad, progress), -easing-1
	}
	if intensity > 1 {
		intensity = 1
	}
	return progress + (shaped-progress)*intensity
}

// SampleBezier samples curve at count evenly spaced x positions strictly
// inside (0, 1). The endpoints are implicit: 0 at x=0 and 1 at x=1.
func SampleBezier(curve Bezier, count int) []float64 {
	samples := make([]float64, count)
	for i := range samples {
		x := float64(i+1) / float64(count+1)
		samples[i] = bezierY(curve, x)
	}
	return samples
}

// CurveValue looks progress up in a table built by SampleBezier,
// interpolating linearly between adjacent samples.
func CurveValue(progress float64, samples []float64) float64 {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return 1
	}
	segments := float64(len(samples) + 1)
	pos := progress * segments
	i := int(pos)
	from := 0.0
	if i > 0 {
		from = samples[i-1]
	}
	to := 1.0
	if i < len(samples) {
		to = samples[i]
	}
	return from + (to-from)*(pos-float64(i))
}

// bezierY solves the curve for x and returns the matching y. Newton-Raphson
// converges for most curves; bisection covers the rest.
func bezierY(c Bezier, x float64) float64 {
	u := x
	for range 8 {
		dx := bezierAxis(c.X1, c.X2, u) - x
		if math.Abs(dx) < 1e-7 {
			return bezierAxis(c.Y1, c.Y2, u)
		}
		d := bezierSlope(c.X1, c.X2, u)
		if math.Abs(d) < 1e-7 {
			break
		}
		u -= dx / d
	}
	lo, hi := 0.0, 1.0
	u = clamp01(u)
	for range 20 {
		dx := bezierAxis(c.X1, c.X2, u) - x
		if math.Abs(dx) < 1e-7 {
			break
		}
		if dx > 0 {
			hi = u
		} else {
			lo = u
		}
		u = (lo + hi) * 0.5
	}
	return bezierAxis(c.Y1, c.Y2, u)
}

func bezierAxis(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func bezierSlope(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}
