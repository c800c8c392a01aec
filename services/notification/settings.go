package notification

import (
	"context"
	"sync"
	"time"

	"clinq/models"
)

// settingsTTL is how long a clinic's per-kind enablement map is cached.
const settingsTTL = 5 * time.Minute

// settingsCache is process-local by design: entry replacement is
// last-writer-wins and slightly stale reads are acceptable.
type settingsCache struct {
	mu      sync.Mutex
	entries map[string]settingsEntry
}

type settingsEntry struct {
	settings  map[string]models.ChannelSetting
	fetchedAt time.Time
}

// kindSetting resolves the clinic's toggle for one notification kind. A kind
// with no stored row defaults to fully enabled.
func (d *DefaultDispatcher) kindSetting(ctx context.Context, clinicID, kind string) models.ChannelSetting {
	d.settings.mu.Lock()
	entry, ok := d.settings.entries[clinicID]
	d.settings.mu.Unlock()

	now := d.Clock.Now()
	if !ok || now.Sub(entry.fetchedAt) > settingsTTL {
		fresh := map[string]models.ChannelSetting{}
		if clinic, err := d.ClinicRepo.GetByID(ctx, clinicID); err == nil && clinic.NotificationSettings != nil {
			fresh = clinic.NotificationSettings
		}
		entry = settingsEntry{settings: fresh, fetchedAt: now}
		d.settings.mu.Lock()
		if d.settings.entries == nil {
			d.settings.entries = map[string]settingsEntry{}
		}
		d.settings.entries[clinicID] = entry
		d.settings.mu.Unlock()
	}

	if s, ok := entry.settings[kind]; ok {
		return s
	}
	return models.ChannelSetting{WhatsAppEnabled: true, PWAEnabled: true}
}

// ResetSettingsCache drops every cached entry; tests use it between cases.
func (d *DefaultDispatcher) ResetSettingsCache() {
	d.settings.mu.Lock()
	d.settings.entries = nil
	d.settings.mu.Unlock()
}
