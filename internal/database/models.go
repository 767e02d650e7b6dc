package database

import (
	"database/sql"
	"time"
)

// Mode is a response persona applied to AI prompt construction.
type Mode string

// The closed set of response modes.
const (
	ModeBrutal        Mode = "brutal"
	ModePhilosophical Mode = "philosophical"
	ModeSarcastic     Mode = "sarcastic"
)

// Valid reports whether m is one of the known response modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeBrutal, ModePhilosophical, ModeSarcastic:
		return true
	}
	return false
}

// Modes lists all selectable response modes in display order.
func Modes() []Mode {
	return []Mode{ModeBrutal, ModePhilosophical, ModeSarcastic}
}

// Plan is a subscription tier.
type Plan string

// Subscription tiers and their daily message limits.
const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"

	FreeDailyLimit    = 10
	PremiumDailyLimit = 100
)

// Valid reports whether p is a known subscription plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// DailyLimit returns the daily message cap for the plan.
func (p Plan) DailyLimit() int {
	if p == PlanPremium {
		return PremiumDailyLimit
	}
	return FreeDailyLimit
}

// UserAccount represents a registered Telegram user with preferences,
// subscription state, and usage counters. One row exists per user_id;
// rows are created once on registration and never deleted.
type UserAccount struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID   int64     `db:"user_id"`
	Username string    `db:"username"`
	JoinedAt time.Time `db:"joined_at"`

	DefaultMode  Mode `db:"default_mode"`
	ShareAsImage bool `db:"share_as_image"`

	Plan      Plan         `db:"plan"`
	ExpiresAt sql.NullTime `db:"expires_at"`

	MessagesSent int       `db:"messages_sent"`
	DailyLimit   int       `db:"daily_limit"`
	LastReset    time.Time `db:"last_reset"`

	LastMessageTime sql.NullTime `db:"last_message_time"`
	IsAdmin         bool         `db:"is_admin"`
}

// QuotaExceeded reports whether the account has used up its daily limit.
func (u *UserAccount) QuotaExceeded() bool {
	return u.MessagesSent >= u.DailyLimit
}

// UsageStats summarizes a user's quota consumption.
type UsageStats struct {
	MessagesSent int  `db:"messages_sent"`
	DailyLimit   int  `db:"daily_limit"`
	Remaining    int  `db:"-"`
	Plan         Plan `db:"plan"`
}
