package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScraperCache rows are only removed by an explicit cleanup of expired entries.
type ScraperCache struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InputHash    string         `gorm:"column:input_hash;type:text;not null;uniqueIndex:ux_scraper_cache_hash" json:"inputHash"`
	InputPreview string         `gorm:"column:input_preview;type:text" json:"inputPreview,omitempty"`
	Result       datatypes.JSON `gorm:"column:result;type:jsonb;not null" json:"result"`
	ExpiresAt    time.Time      `gorm:"column:expires_at;type:timestamptz;not null;index" json:"expiresAt"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (ScraperCache) TableName() string { return "scraper_cache" }

func (c *ScraperCache) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
