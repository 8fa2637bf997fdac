package models

// Status is the state a user assigns to a game on their profile.
type Status string

const (
	StatusOwned       Status = "Owned"
	StatusWishlisted  Status = "Wishlisted"
	StatusUnowned     Status = "Unowned"
	StatusBlacklisted Status = "Blacklisted"
)

// Statuses lists every valid Status.
var Statuses = []Status{StatusOwned, StatusWishlisted, StatusUnowned, StatusBlacklisted}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// TrackedGame is a user's status entry for a single game.
// The (UserID, GameID) pair is unique.
type TrackedGame struct {
	Base
	UserID string `gorm:"size:24;not null;uniqueIndex:idx_tracked_games_user_game"`
	GameID string `gorm:"size:24;not null;uniqueIndex:idx_tracked_games_user_game;index"`
	Status Status `gorm:"type:varchar(20);not null;default:'Unowned';index"`
	Notes  string `gorm:"size:400;not null;default:''"`

	User *User `gorm:"foreignKey:UserID"`
	Game *Game `gorm:"foreignKey:GameID"`
}
