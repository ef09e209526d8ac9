package branch

import "math"

// MostFractional is the built-in default rule: branch on the candidate
// whose value is closest to X.5, breaking ties by the earliest index
// (spec §4.8's required fallback when no other rule has an opinion).
var MostFractional = &Rule{
	Name:        "mostfractional",
	Description: "branch on the variable closest to a half-integral value",
	Priority:    0,
	Select: func(candidates []Candidate) (*Decision, error) {
		if len(candidates) == 0 {
			return nil, nil
		}
		best := candidates[0]
		bestFrac := Fractionality(best.Value)
		for _, c := range candidates[1:] {
			f := Fractionality(c.Value)
			if f > bestFrac {
				best, bestFrac = c, f
			}
		}
		return &Decision{
			Var:       best.Var,
			DownUpper: math.Floor(best.Value),
			UpLower:   math.Ceil(best.Value),
		}, nil
	},
}
