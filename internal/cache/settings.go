// Package cache caches per-gateway merchant settings in Redis so every
// callback does not hit the database for credentials.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"uzpay-service/internal/models"
)

const settingsTTL = time.Hour

type SettingsCache struct {
	DB    *gorm.DB
	Redis redis.UniversalClient // nil disables caching, reads fall through to the DB
}

func NewSettingsCache(db *gorm.DB, rdb redis.UniversalClient) *SettingsCache {
	return &SettingsCache{DB: db, Redis: rdb}
}

func settingsKey(gateway string) string {
	return "payment_gateway_settings_" + gateway
}

// Get returns the active settings row for gateway, from Redis when cached.
func (c *SettingsCache) Get(ctx context.Context, gateway string) (*models.GatewaySettings, error) {
	if c.Redis != nil {
		raw, err := c.Redis.Get(ctx, settingsKey(gateway)).Result()
		if err == nil {
			var s models.GatewaySettings
			if err := json.Unmarshal([]byte(raw), &s); err == nil {
				return &s, nil
			}
		}
	}

	var s models.GatewaySettings
	if err := c.DB.Where("gateway = ? AND active = ?", gateway, true).First(&s).Error; err != nil {
		return nil, err
	}

	if c.Redis != nil {
		if raw, err := json.Marshal(&s); err == nil {
			if err := c.Redis.Set(ctx, settingsKey(gateway), raw, settingsTTL).Err(); err != nil {
				log.Printf("Failed to cache %s settings: %v", gateway, err)
			}
		}
	}

	return &s, nil
}

// Invalidate drops the cached settings, called after a settings update.
func (c *SettingsCache) Invalidate(ctx context.Context, gateway string) {
	if c.Redis == nil {
		return
	}
	if err := c.Redis.Del(ctx, settingsKey(gateway)).Err(); err != nil {
		log.Printf("Failed to invalidate %s settings cache: %v", gateway, err)
	}
}
