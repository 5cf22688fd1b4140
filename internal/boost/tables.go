package boost

import "time"

// luxStep maps an upper (exclusive) lux bound to a boost
type luxStep struct {
	below float64
	boost int
}

// luxTable is sorted by ascending bound; readings past the last bound score 0
var luxTable = []luxStep{
	{below: 10, boost: 15},
	{below: 25, boost: 10},
	{below: 50, boost: 7},
	{below: 100, boost: 5},
	{below: 200, boost: 3},
	{below: 400, boost: 1},
}

func luxComponent(lux float64) int {
	for _, step := range luxTable {
		if lux < step.below {
			return step.boost
		}
	}
	return 0
}

var seasonalTable = map[time.Month]int{
	time.December: 8,
	time.January:  8,
	time.February: 8,
	time.June:     -3,
	time.July:     -3,
	time.August:   -3,
}

func seasonalComponent(month time.Month) int {
	return seasonalTable[month]
}

// gateStep covers whole hours up to and including lastHour
type gateStep struct {
	lastHour   int
	multiplier float64
}

// timeGateTable is sorted by ascending hour and covers 0..23
var timeGateTable = []gateStep{
	{lastHour: 6, multiplier: 0.0},
	{lastHour: 8, multiplier: 0.7},
	{lastHour: 17, multiplier: 1.0},
	{lastHour: 21, multiplier: 0.7},
	{lastHour: 23, multiplier: 0.0},
}

func timeGateMultiplier(t time.Time) float64 {
	hour := t.Hour()
	for _, step := range timeGateTable {
		if hour <= step.lastHour {
			return step.multiplier
		}
	}
	return 0
}
