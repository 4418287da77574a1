// Package entity defines the domain models for the watchlist feature.
package entity

import "time"

// Symbol is one tracked ticker. WeekendVenue marks tickers that also trade
// on the weekend venue; only those are ingested during weekend sessions.
type Symbol struct {
	ID           uint      `gorm:"primaryKey"`
	Ticker       string    `gorm:"size:20;not null;uniqueIndex"`
	Name         string    `gorm:"size:255"`
	WeekendVenue bool      `gorm:"not null;default:false"`
	IsActive     bool      `gorm:"not null;default:true"`
	SortKey      int       `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName routes the model to the watch_symbols table.
func (Symbol) TableName() string {
	return "watch_symbols"
}
