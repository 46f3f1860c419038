package models

import "time"

// JobLease guards a named background job against concurrent runs across processes.
type JobLease struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	Owner     string    `gorm:"type:varchar(64);not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
