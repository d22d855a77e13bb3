package rank

import "github.com/guffzilla/wartest-sub004/internal/models"

// table is the static ladder tier table, ordered by strictly ascending
// rating threshold. Lookup returns the highest tier whose threshold is at or
// below the rating.
var table = []models.Tier{
	{Name: "Peon", Index: 0, Threshold: 0, Icon: "/assets/ranks/peon.png"},
	{Name: "Grunt", Index: 1, Threshold: 1100, Icon: "/assets/ranks/grunt.png"},
	{Name: "Footman", Index: 2, Threshold: 1250, Icon: "/assets/ranks/footman.png"},
	{Name: "Raider", Index: 3, Threshold: 1400, Icon: "/assets/ranks/raider.png"},
	{Name: "Knight", Index: 4, Threshold: 1550, Icon: "/assets/ranks/knight.png"},
	{Name: "Champion", Index: 5, Threshold: 1700, Icon: "/assets/ranks/champion.png"},
	{Name: "Warlord", Index: 6, Threshold: 1850, Icon: "/assets/ranks/warlord.png"},
	{Name: "Highlord", Index: 7, Threshold: 2000, Icon: "/assets/ranks/highlord.png"},
	{Name: "Grandmaster", Index: 8, Threshold: 2200, Icon: "/assets/ranks/grandmaster.png"},
}

// TierFor returns the tier for a rating. Malformed input (a negative rating)
// clamps to the lowest tier instead of erroring.
func TierFor(rating int) models.Tier {
	tier := table[0]
	for i := len(table) - 1; i >= 0; i-- {
		if rating >= table[i].Threshold {
			tier = table[i]
			break
		}
	}
	return tier
}

// Tiers returns a copy of the full tier table, lowest first.
func Tiers() []models.Tier {
	out := make([]models.Tier, len(table))
	copy(out, table)
	return out
}
