package model

import "strings"

// Period is the look-back window of a history request.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// DefaultPeriod is used when a request does not name one.
const DefaultPeriod = Period1Year

// Periods lists the selectable periods in display order.
var Periods = []Period{
	Period1Month, Period3Months, Period6Months,
	Period1Year, Period2Years, Period5Years,
}

var periodLabels = map[Period]string{
	Period1Month:  "1 Month",
	Period3Months: "3 Months",
	Period6Months: "6 Months",
	Period1Year:   "1 Year",
	Period2Years:  "2 Years",
	Period5Years:  "5 Years",
}

// Label returns the human-readable name of the period.
func (p Period) Label() string {
	return periodLabels[p]
}

// ParsePeriod validates s against the fixed set. An empty string yields
// DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if _, ok := periodLabels[p]; !ok {
		return "", &ValidationError{Reason: "unknown period " + s}
	}
	return p, nil
}

// NormalizeSymbol trims and upper-cases a ticker entered by a user.
func NormalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", &ValidationError{Reason: "symbol is required"}
	}
	return s, nil
}
