// # internal/impact/risk.go
package impact

import "fmt"

// Risk orders LOW < MEDIUM < HIGH so escalation is plain arithmetic.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (r Risk) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", r.String())), nil
}

func ParseRisk(s string) (Risk, bool) {
	switch s {
	case "LOW":
		return RiskLow, true
	case "MEDIUM":
		return RiskMedium, true
	case "HIGH":
		return RiskHigh, true
	}
	return RiskLow, false
}

// structuralRisk maps dependency distance to a baseline label and escalates
// one level when more than one changed module reaches the same dependent.
func structuralRisk(depth, seeds int) Risk {
	var r Risk
	switch {
	case depth <= 1:
		r = RiskHigh
	case depth == 2:
		r = RiskMedium
	default:
		r = RiskLow
	}
	if seeds >= 2 && r < RiskHigh {
		r++
	}
	return r
}
