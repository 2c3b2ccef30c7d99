// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

// UsersStats returns the number of active users and the greatest UpdatedAt
// among them. When there are no active users maxUpdatedAt is nil.
func UsersStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	active := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.User{}).Where("is_active = ?", true)
	}

	if err = active().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// MAX(updated_at) comes back as TEXT from SQLite; order and pluck instead.
	var latest []time.Time
	if err = active().Order("updated_at DESC").Limit(1).Pluck("updated_at", &latest).Error; err != nil {
		return 0, nil, err
	}
	if len(latest) == 0 {
		return count, nil, nil
	}
	ts := latest[0].UTC()
	return count, &ts, nil
}
