package models

// Power-up names are a fixed set; the remote record and the local slice never
// carry keys outside of it.
const (
	PowerUpExtraTime    = "Extra Time"
	PowerUpSkipQuestion = "Skip Question"
	PowerUpSecondChance = "Second Chance"
)

// PowerUpNames lists the fixed set in display order.
var PowerUpNames = []string{PowerUpExtraTime, PowerUpSkipQuestion, PowerUpSecondChance}

// PowerUpInfo describes a purchasable power-up.
type PowerUpInfo struct {
	Name        string
	Label       string
	Description string
	Price       float64 // in Pi
	Limit       int     // max uses per question
}

// PowerUpCatalog is the store inventory. Price enforcement happens in the
// purchase flow, not in the owned-counts slice.
var PowerUpCatalog = []PowerUpInfo{
	{
		Name:        PowerUpExtraTime,
		Label:       "+10s",
		Description: "Add 10 extra seconds to the current question timer.",
		Price:       1,
		Limit:       2,
	},
	{
		Name:        PowerUpSkipQuestion,
		Label:       "Skip",
		Description: "Skip this question and gain a point instantly.",
		Price:       3,
		Limit:       1,
	},
	{
		Name:        PowerUpSecondChance,
		Label:       "Retry",
		Description: "Get another try if you answer wrong.",
		Price:       2,
		Limit:       1,
	},
}

// FindPowerUp looks up a catalog entry by name.
func FindPowerUp(name string) (PowerUpInfo, bool) {
	for _, p := range PowerUpCatalog {
		if p.Name == name {
			return p, true
		}
	}
	return PowerUpInfo{}, false
}

// IsPowerUpName reports whether name belongs to the fixed set.
func IsPowerUpName(name string) bool {
	_, ok := FindPowerUp(name)
	return ok
}

// DefaultPowerUps returns the zeroed owned-counts map.
func DefaultPowerUps() map[string]int {
	counts := make(map[string]int, len(PowerUpNames))
	for _, name := range PowerUpNames {
		counts[name] = 0
	}
	return counts
}

// MergePowerUpDefaults fills any name missing from a remote value with zero
// and drops unknown or negative counts, so a partial remote map never shrinks
// the local one below the fixed shape.
func MergePowerUpDefaults(remote map[string]int) map[string]int {
	merged := DefaultPowerUps()
	for _, name := range PowerUpNames {
		if count, ok := remote[name]; ok && count > 0 {
			merged[name] = count
		}
	}
	return merged
}
