package models

import "time"

// Follow records that UserID subscribes to recipes authored by FollowingID.
type Follow struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	CreatedAt   time.Time
}
