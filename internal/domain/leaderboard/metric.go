package leaderboard

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MetricValue is a score as the platform reported it. An empty value means the metric is missing.
type MetricValue string

var numericPrefixRegex = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// Float reads the longest numeric prefix, so "85.3%" is 85.3 and "n/a" is not a number.
func (v MetricValue) Float() (float64, bool) {
	text := strings.TrimSpace(string(v))
	if text == "" {
		return math.NaN(), false
	}
	switch strings.TrimLeft(text, "+-") {
	case "Infinity":
		if strings.HasPrefix(text, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	prefix := numericPrefixRegex.FindString(text)
	if prefix == "" {
		return math.NaN(), false
	}
	out, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(out) {
		return math.NaN(), false
	}
	return out, true
}

func metricAt(values []MetricValue, index int) (float64, bool) {
	if index < 0 || index >= len(values) {
		return math.NaN(), false
	}
	return values[index].Float()
}
