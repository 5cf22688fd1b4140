package boost

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// weatherWeights is keyed by normalized condition
var weatherWeights = map[string]int{
	"fog":            10,
	"pouring":        10,
	"lightningrainy": 10,
	"exceptional":    10,
	"lightning":      8,
	"hail":           8,
	"rainy":          7,
	"snowyrainy":     7,
	"snowy":          6,
	"cloudy":         5,
	"windyvariant":   3,
	"partlycloudy":   2,
	"sunny":          0,
	"clearnight":     0,
	"windy":          0,
}

// weatherAliases maps provider vocabularies onto weatherWeights keys
var weatherAliases = map[string]string{
	"overcast":        "cloudy",
	"mostlycloudy":    "cloudy",
	"brouillard":      "fog",
	"mist":            "fog",
	"haze":            "fog",
	"foggy":           "fog",
	"partiallycloudy": "partlycloudy",
	"fewclouds":       "partlycloudy",
	"scatteredclouds": "partlycloudy",
	"brokenclouds":    "cloudy",
	"rain":            "rainy",
	"drizzle":         "rainy",
	"showers":         "rainy",
	"lightrain":       "rainy",
	"heavyrain":       "pouring",
	"thunderstorm":    "lightningrainy",
	"thunder":         "lightning",
	"snow":            "snowy",
	"sleet":           "snowyrainy",
	"clear":           "sunny",
	"clearday":        "sunny",
	"nuageux":         "cloudy",
	"pluie":           "rainy",
	"neige":           "snowy",
	"ensoleille":      "sunny",
	"couvert":         "cloudy",
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeCondition folds case, diacritics and separators out of a weather condition
func NormalizeCondition(condition string) string {
	folded, _, err := transform.String(diacriticFolder, condition)
	if err != nil {
		folded = condition
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// weatherComponent returns the weight for a condition and whether it was recognised
func weatherComponent(condition string) (int, bool) {
	key := NormalizeCondition(condition)
	if alias, ok := weatherAliases[key]; ok {
		key = alias
	}
	weight, ok := weatherWeights[key]
	return weight, ok
}

// cloudCoverageComponent is used only when no condition is available
func cloudCoverageComponent(coverage float64) int {
	switch {
	case coverage >= 80:
		return weatherWeights["cloudy"]
	case coverage >= 50:
		return weatherWeights["partlycloudy"]
	default:
		return 0
	}
}
