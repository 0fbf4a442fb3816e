package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultRank is assigned to every newly created profile.
const DefaultRank = "Rookie"

// UserRecord is the single per-user document replicated to the remote store.
// Section pointers are nil when the stored document lacks that section, which
// is what the backfill patch and the mirror's absence checks key off. No
// omitempty: a freshly created record must store every field, empty lists
// included, so nothing is left for a later backfill to find missing.
type UserRecord struct {
	Identity     *Identity      `json:"identity"`
	Profile      *Profile       `json:"profile"`
	GameStats    *GameStats     `json:"gameStats"`
	PowerUps     map[string]int `json:"powerUps"`
	Wallet       *Wallet        `json:"wallet"`
	Transactions []Transaction  `json:"transactions"`
	Achievements []string       `json:"achievements"`
	Settings     map[string]any `json:"settings"`
}

type Identity struct {
	Username  string `json:"username" validate:"required"`
	CreatedAt string `json:"createdAt"`
}

type Profile struct {
	AvatarURL string `json:"avatarUrl"`
	Rank      string `json:"rank"`
}

type GameStats struct {
	Score            int `json:"score" validate:"gte=0"`
	Streak           int `json:"streak" validate:"gte=0"`
	MaxStreak        int `json:"maxStreak" validate:"gte=0"`
	CompletedQuizzes int `json:"completedQuizzes" validate:"gte=0"`
}

// Clamp restores the maxStreak >= streak invariant after a reconciliation.
func (g *GameStats) Clamp() {
	if g.MaxStreak < g.Streak {
		g.MaxStreak = g.Streak
	}
}

type Wallet struct {
	PiBalance     float64 `json:"piBalance" validate:"gte=0"`
	TestnetLinked bool    `json:"testnetLinked"`
}

// UnmarshalJSON fills testnetLinked with its default when the stored wallet
// predates the field. A missing bool would otherwise decode as false.
func (w *Wallet) UnmarshalJSON(data []byte) error {
	type alias Wallet
	a := alias{TestnetLinked: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*w = Wallet(a)
	return nil
}

// AvatarURL returns the default identicon for a username.
func AvatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/identicon/svg?seed=%s", username)
}

func DefaultProfile(username string) *Profile {
	return &Profile{
		AvatarURL: AvatarURL(username),
		Rank:      DefaultRank,
	}
}

func DefaultGameStats() *GameStats {
	return &GameStats{}
}

func DefaultWallet() *Wallet {
	return &Wallet{
		PiBalance:     0,
		TestnetLinked: true,
	}
}

func DefaultSettings() map[string]any {
	return map[string]any{
		"sound":         true,
		"notifications": true,
		"theme":         "dark",
	}
}

// DefaultRecord builds the full payload written for a first-time user.
func DefaultRecord(username string) *UserRecord {
	return &UserRecord{
		Identity: &Identity{
			Username:  username,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		Profile:      DefaultProfile(username),
		GameStats:    DefaultGameStats(),
		PowerUps:     DefaultPowerUps(),
		Wallet:       DefaultWallet(),
		Transactions: []Transaction{},
		Achievements: []string{},
		Settings:     DefaultSettings(),
	}
}
