package models

// TokenMode selects how tokens are issued and how the live queue is ordered.
type TokenMode string

const (
	TokenModeAdvanced TokenMode = "advanced" // slot-positional tokens (A1-004), queue ordered by slot
	TokenModeClassic  TokenMode = "classic"  // per-session running numbers (007), instant confirmation
)

// Less is the queue comparator for this mode. Advanced clinics order by
// (sessionIndex, slotIndex); classic clinics by the per-session running
// number. Ties fall back to numericToken, then id, so the order is total.
func (m TokenMode) Less(a, b *Appointment) bool {
	switch m {
	case TokenModeClassic:
		an, bn := a.ClassicOrdinal(), b.ClassicOrdinal()
		if an != bn {
			return an < bn
		}
	default:
		if a.SessionIndex != b.SessionIndex {
			return a.SessionIndex < b.SessionIndex
		}
		if a.SlotIndex != b.SlotIndex {
			return a.SlotIndex < b.SlotIndex
		}
	}
	if a.NumericToken != b.NumericToken {
		return a.NumericToken < b.NumericToken
	}
	return a.ID < b.ID
}

type Clinic struct {
	ID                   string                    `bson:"_id" json:"id"`
	Name                 string                    `bson:"name" json:"name"`
	ShortCode            string                    `bson:"shortCode" json:"shortCode"` // e.g., "KQ-4821"; used in booking links
	Timezone             string                    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	TokenDistribution    TokenMode                 `bson:"tokenDistribution" json:"tokenDistribution"`
	WalkInTokenAllotment int                       `bson:"walkInTokenAllotment" json:"walkInTokenAllotment"` // advance tokens between consecutive walk-ins (S)
	NotificationSettings map[string]ChannelSetting `bson:"notificationSettings,omitempty" json:"notificationSettings,omitempty"`
}

// Spacing returns the walk-in allotment, falling back to the default when unset.
func (c *Clinic) Spacing() int {
	if c.WalkInTokenAllotment <= 0 {
		return DefaultWalkInSpacing
	}
	return c.WalkInTokenAllotment
}

// Mode returns the token distribution, defaulting to advanced.
func (c *Clinic) Mode() TokenMode {
	if c.TokenDistribution == TokenModeClassic {
		return TokenModeClassic
	}
	return TokenModeAdvanced
}

const DefaultWalkInSpacing = 5
