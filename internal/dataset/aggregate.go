package dataset

import "sort"

// YearTotal is one point of a yearly aggregate.
type YearTotal struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// SumByYear groups rows by year and sums their area. The result holds one
// entry per distinct year, in ascending year order.
func SumByYear(rows []Observation) []YearTotal {
	yearly := make(map[int]float64)
	for _, row := range rows {
		yearly[row.Year] += row.Area
	}
	return fromMap(yearly)
}

// MeanByYear averages an extra column per year. Years where no row carries
// the column are omitted.
func MeanByYear(rows []Observation, column string) []YearTotal {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, row := range rows {
		v, ok := row.Extra[column]
		if !ok {
			continue
		}
		sums[row.Year] += v
		counts[row.Year]++
	}
	for year, n := range counts {
		sums[year] /= float64(n)
	}
	return fromMap(sums)
}

// ToMap returns the aggregate keyed by year.
func ToMap(totals []YearTotal) map[int]float64 {
	m := make(map[int]float64, len(totals))
	for _, t := range totals {
		m[t.Year] = t.Value
	}
	return m
}

func fromMap(yearly map[int]float64) []YearTotal {
	years := getSortedYears(yearly)
	totals := make([]YearTotal, len(years))
	for i, year := range years {
		totals[i] = YearTotal{Year: year, Value: yearly[year]}
	}
	return totals
}

func getSortedYears(yearly map[int]float64) []int {
	years := make([]int, 0, len(yearly))
	for year := range yearly {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Summary condenses a yearly aggregate for reports.
type Summary struct {
	FirstYear  int
	LastYear   int
	Years      int
	Total      float64
	PeakYear   int
	PeakValue  float64
	MeanGrowth float64
}

// Summarize computes totals, the peak year and the mean year-on-year growth
// rate (percent) of an ascending aggregate.
func Summarize(totals []YearTotal) Summary {
	if len(totals) == 0 {
		return Summary{}
	}

	s := Summary{
		FirstYear: totals[0].Year,
		LastYear:  totals[len(totals)-1].Year,
		Years:     len(totals),
		PeakYear:  totals[0].Year,
		PeakValue: totals[0].Value,
	}
	for _, t := range totals {
		s.Total += t.Value
		if t.Value > s.PeakValue {
			s.PeakValue = t.Value
			s.PeakYear = t.Year
		}
	}

	growthRates := yearlyGrowthRates(totals)
	if len(growthRates) > 0 {
		for _, gr := range growthRates {
			s.MeanGrowth += gr
		}
		s.MeanGrowth /= float64(len(growthRates))
	}
	return s
}

func yearlyGrowthRates(totals []YearTotal) []float64 {
	var growthRates []float64
	for i := 1; i < len(totals); i++ {
		previous := totals[i-1].Value
		if previous > 0 {
			growthRates = append(growthRates, ((totals[i].Value-previous)/previous)*100)
		}
	}
	return growthRates
}
