package pricing

import "math"

// Tier is a loyalty segment. Threshold is cumulative spend in major units.
type Tier struct {
	Name           string  `json:"name" yaml:"name"`
	Threshold      int64   `json:"threshold" yaml:"threshold"`
	PointsPerRupee float64 `json:"points_per_rupee" yaml:"points_per_rupee"`
}

// DefaultTiers are ordered by ascending threshold.
var DefaultTiers = []Tier{
	{Name: "bronze", Threshold: 0, PointsPerRupee: 1},
	{Name: "silver", Threshold: 10000, PointsPerRupee: 1.5},
	{Name: "gold", Threshold: 25000, PointsPerRupee: 2},
	{Name: "elite", Threshold: 50000, PointsPerRupee: 3},
}

// TierFor returns the highest tier whose threshold spendMinor reaches.
// tiers must be sorted ascending; the first tier is the floor.
func TierFor(spendMinor int64, tiers []Tier) Tier {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	current := tiers[0]
	for _, t := range tiers {
		if spendMinor >= t.Threshold*100 {
			current = t
		}
	}
	return current
}

// PointsEarned returns floor(total in major units × tier rate).
func PointsEarned(totalMinor int64, tier Tier) int64 {
	if totalMinor <= 0 {
		return 0
	}
	return int64(math.Floor(float64(totalMinor) / 100 * tier.PointsPerRupee))
}
