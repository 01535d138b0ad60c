package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseManualDelta reads a signed percentage delta such as "-5%", "+2.5"
// or "3 %". Trailing text after the number is ignored. It reports false
// when s does not start with a number.
func ParseManualDelta(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Replace(s, "%", "", 1))
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeManualGrade renders numeric input as "<n>%" and leaves anything
// else trimmed but otherwise untouched.
func NormalizeManualGrade(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if v, ok := ParseManualDelta(s); ok {
		return formatNumber(v) + "%"
	}
	return s
}

// TotalGrade adds the manual delta to the automatic grade and clamps the
// result to [0,100]. A non-numeric manual grade adds nothing.
func TotalGrade(automatic int, manual string) int {
	delta, _ := ParseManualDelta(manual)
	return roundHalfUp(clamp(float64(automatic)+delta, 0, 100))
}
