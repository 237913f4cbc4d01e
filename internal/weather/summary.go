package weather

import "github.com/samber/lo"

// Summary condenses a batch of outcomes.
type Summary struct {
	Total           int     `json:"total"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	MeanTemperature float64 `json:"meanTemperatureC"`
	MaxWindSpeed    float64 `json:"maxWindSpeedKmh"`
}

// Summarize counts outcomes per variant. Temperature and wind figures
// only consider successful cities and stay zero when there are none.
func Summarize(outcomes []Outcome) Summary {
	ok := lo.Filter(outcomes, func(o Outcome, _ int) bool { return o.OK() })

	sum := Summary{
		Total:     len(outcomes),
		Succeeded: len(ok),
		Failed:    len(outcomes) - len(ok),
	}
	if len(ok) == 0 {
		return sum
	}

	sum.MeanTemperature = lo.SumBy(ok, func(o Outcome) float64 { return o.Temperature }) / float64(len(ok))
	sum.MaxWindSpeed = lo.MaxBy(ok, func(a, b Outcome) bool { return a.WindSpeed > b.WindSpeed }).WindSpeed
	return sum
}
