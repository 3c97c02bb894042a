package chart

import "testing"

func TestYearTicker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		max      int
		min, top float64
		want     []float64
	}{
		{name: "every year", max: 8, min: 2001, top: 2005, want: []float64{2001, 2002, 2003, 2004, 2005}},
		{name: "every other year", max: 8, min: 2001, top: 2015, want: []float64{2002, 2004, 2006, 2008, 2010, 2012, 2014}},
		{name: "fractional bounds", max: 8, min: 2000.6, top: 2002.4, want: []float64{2001, 2002}},
		{name: "empty", max: 8, min: 2001.2, top: 2001.8, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks := yearTicker{max: tt.max}.Ticks(tt.min, tt.top)
			if len(ticks) != len(tt.want) {
				t.Fatalf("expected %d ticks, got %d (%v)", len(tt.want), len(ticks), ticks)
			}
			for i, tick := range ticks {
				if tick.Value != tt.want[i] {
					t.Fatalf("tick %d: expected %v, got %v", i, tt.want[i], tick.Value)
				}
				if tick.Label == "" {
					t.Fatalf("tick %d has no label", i)
				}
			}
		})
	}
}
