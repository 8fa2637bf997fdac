package models

// Review is a user's rating and write-up of a game.
// The (UserID, GameID) pair is unique.
type Review struct {
	Base
	UserID string `gorm:"size:24;not null;uniqueIndex:idx_reviews_user_game"`
	GameID string `gorm:"size:24;not null;uniqueIndex:idx_reviews_user_game;index"`
	Rating int    `gorm:"not null"`
	Title  string `gorm:"size:40;not null"`
	Body   string `gorm:"size:400;not null"`

	User *User `gorm:"foreignKey:UserID"`
	Game *Game `gorm:"foreignKey:GameID"`
}
