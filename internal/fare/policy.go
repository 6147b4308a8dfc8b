package fare

import "math"

// Policy maps accumulated trip distance to a fare. It is pure and
// deterministic: the fare is always recomputed from the current total
// distance, never accumulated incrementally, so repeated recomputation
// from the same distance yields the same result.
type Policy struct {
	MinimumFare int64 // fare floor, charged even for zero distance
	PerKmRate   int64 // currency units per kilometer
}

// DefaultPolicy returns the standard transit fare policy:
// max(5, ceil(distanceKm * 2)).
func DefaultPolicy() Policy {
	return Policy{
		MinimumFare: 5,
		PerKmRate:   2,
	}
}

// Fare returns the fare for the given distance in kilometers.
// The minimum-fare floor applies regardless of how the distance was produced.
func (p Policy) Fare(distanceKm float64) int64 {
	fare := int64(math.Ceil(distanceKm * float64(p.PerKmRate)))
	if fare < p.MinimumFare {
		return p.MinimumFare
	}
	return fare
}
