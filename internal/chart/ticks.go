package chart

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

var yearSteps = []int{1, 2, 5, 10, 20, 50, 100}

// yearTicker labels whole years, choosing the smallest step that keeps the
// number of labels at or below max.
type yearTicker struct {
	max int
}

func (t yearTicker) Ticks(min, max float64) []plot.Tick {
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	if hi < lo {
		return nil
	}

	n := t.max
	if n < 2 {
		n = 2
	}
	span := hi - lo
	step := yearSteps[len(yearSteps)-1]
	for _, s := range yearSteps {
		if span/s+1 <= n {
			step = s
			break
		}
	}

	start := lo
	if r := start % step; r != 0 {
		start += step - r
	}

	var ticks []plot.Tick
	for y := start; y <= hi; y += step {
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return ticks
}
