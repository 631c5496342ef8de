package hydro

import "fmt"

// RouteChannel computes the channel flow for period as the coefficient-weighted
// average of the antecedent soil and channel storages and the observed
// discharge. It fails when Kc+Kw+C is zero.
func RouteChannel(prevChannel, prevSoil, observed float64, p Parameters, period int) (float64, error) {
	den := p.Kc + p.Kw + p.C
	if den == 0 {
		return 0, divisionByZero(OpRoute, period, fmt.Sprintf("kc+kw+c = %g", den))
	}
	return (p.Kc*prevSoil + p.Kw*prevChannel + p.C*observed) / den, nil
}
