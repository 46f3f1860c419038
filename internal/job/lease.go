package job

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"foodgram/models"
)

// acquireLease claims the named lease for owner until now+ttl. It succeeds
// when the lease is free, expired or already held by owner.
func acquireLease(ctx context.Context, db *gorm.DB, name, owner string, ttl time.Duration, now time.Time) (bool, error) {
	now = now.UTC()
	expires := now.Add(ttl)

	result := db.WithContext(ctx).
		Model(&models.JobLease{}).
		Where("name = ? AND (expires_at < ? OR owner = ?)", name, now, owner).
		Updates(map[string]any{"owner": owner, "expires_at": expires})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	err := db.WithContext(ctx).Create(&models.JobLease{Name: name, Owner: owner, ExpiresAt: expires}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func releaseLease(ctx context.Context, db *gorm.DB, name, owner string) error {
	return db.WithContext(ctx).Where("name = ? AND owner = ?", name, owner).Delete(&models.JobLease{}).Error
}
