package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// QuotaWindow is the period after which the daily message counter lazily
// resets. The reset happens on the next RecordMessage call, not on a timer.
const QuotaWindow = 24 * time.Hour

// Store defines the account store operations. All operations are keyed by
// the Telegram user ID. Operations that target a missing user return a
// boolean false (or a nil result) rather than an error.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RegisterUser creates an account for userID if none exists and reports
	// whether a new record was created.
	RegisterUser(ctx context.Context, userID int64, username string, mode Mode) (bool, error)

	// GetUser retrieves an account by user ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*UserAccount, error)

	// PromoteToAdmin grants admin rights. Idempotent; false if no such user.
	PromoteToAdmin(ctx context.Context, userID int64) (bool, error)

	// IsAdmin reports whether the user exists and has admin rights.
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// SetMode updates the user's default response mode. False if no such user.
	SetMode(ctx context.Context, userID int64, mode Mode) (bool, error)

	// RecordMessage counts one sent message against the user's daily quota,
	// resetting the counting window first when it has lapsed. False if no
	// such user.
	RecordMessage(ctx context.Context, userID int64, now time.Time) (bool, error)

	// GetStats returns the user's quota consumption. Returns nil, nil if not found.
	GetStats(ctx context.Context, userID int64) (*UsageStats, error)

	// SetPlan switches the user's subscription plan, recomputing the daily
	// limit and the expiry timestamp. False if no such user.
	SetPlan(ctx context.Context, userID int64, plan Plan, now time.Time) (bool, error)

	// ExpireLapsedSubscriptions reverts premium accounts whose expiry has
	// passed back to the free plan. Returns the number of accounts reverted.
	ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RegisterUser inserts a new account row unless one already exists for the
// user ID. The insert is a single conditional statement, so concurrent
// registration attempts for the same user cannot create duplicates.
func (s *sqlxStore) RegisterUser(ctx context.Context, userID int64, username string, mode Mode) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}
	if !mode.Valid() {
		return false, fmt.Errorf("invalid mode %q", mode)
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO users (
            created_at, updated_at, user_id, username, joined_at,
            default_mode, share_as_image, plan, expires_at,
            messages_sent, daily_limit, last_reset, last_message_time, is_admin
        ) VALUES (?, ?, ?, ?, ?, ?, 1, ?, NULL, 0, ?, ?, NULL, 0)
        ON CONFLICT (user_id) DO NOTHING;
    `

	result, err := s.db.ExecContext(ctx, query,
		now, now, userID, username, now, mode, PlanFree, FreeDailyLimit, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error registering user", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to register user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count after registration", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to determine registration outcome for user %d: %w", userID, err)
	}

	created := affected == 1
	if created {
		s.logger.InfoContext(ctx, "User registered", "user_id", userID, "mode", mode)
	} else {
		s.logger.DebugContext(ctx, "User already registered", "user_id", userID)
	}
	return created, nil
}

// GetUser retrieves an account by user ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*UserAccount, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var account UserAccount
	query := `SELECT id, created_at, updated_at, user_id, username, joined_at,
	                 default_mode, share_as_image, plan, expires_at,
	                 messages_sent, daily_limit, last_reset, last_message_time, is_admin
	          FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &account, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No account found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching account",
			"user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting account by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get account for user ID %d: %w", userID, err)
	}

	return &account, nil
}

// PromoteToAdmin grants admin rights to the user. The update matches the row
// whether or not is_admin is already set, so repeated promotions report true.
func (s *sqlxStore) PromoteToAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	query := `UPDATE users SET is_admin = 1, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error promoting user to admin", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to promote user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to determine promotion outcome for user %d: %w", userID, err)
	}
	if affected == 0 {
		s.logger.DebugContext(ctx, "Cannot promote unknown user", "user_id", userID)
		return false, nil
	}

	s.logger.InfoContext(ctx, "User promoted to admin", "user_id", userID)
	return true, nil
}

// IsAdmin reports whether the user exists and has admin rights.
func (s *sqlxStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	var isAdmin bool
	query := `SELECT is_admin FROM users WHERE user_id = ?`
	err := s.db.GetContext(ctx, &isAdmin, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking admin status", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check admin status for user %d: %w", userID, err)
	}

	return isAdmin, nil
}

// SetMode updates the user's default response mode. The mode is validated at
// the store boundary; unknown modes are rejected before touching the database.
func (s *sqlxStore) SetMode(ctx context.Context, userID int64, mode Mode) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}
	if !mode.Valid() {
		return false, fmt.Errorf("invalid mode %q", mode)
	}

	query := `UPDATE users SET default_mode = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, mode, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating mode", "user_id", userID, "mode", mode, "error", err)
		return false, fmt.Errorf("failed to update mode for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to determine mode update outcome for user %d: %w", userID, err)
	}
	if affected == 0 {
		s.logger.DebugContext(ctx, "Cannot set mode for unknown user", "user_id", userID)
		return false, nil
	}

	s.logger.InfoContext(ctx, "User mode updated", "user_id", userID, "mode", mode)
	return true, nil
}

// RecordMessage counts one sent message against the user's daily quota.
// The reset-or-increment decision is expressed in a single conditional
// UPDATE guarded by the stored last_reset value, so two concurrent calls
// for the same user cannot undercount or double-reset.
func (s *sqlxStore) RecordMessage(ctx context.Context, userID int64, now time.Time) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	now = now.UTC()
	cutoff := now.Add(-QuotaWindow)

	query := `
        UPDATE users SET
            messages_sent     = CASE WHEN last_reset < :cutoff THEN 1 ELSE messages_sent + 1 END,
            last_reset        = CASE WHEN last_reset < :cutoff THEN :now ELSE last_reset END,
            last_message_time = :now,
            updated_at        = :now
        WHERE user_id = :user_id;
    `

	result, err := s.db.NamedExecContext(ctx, query, map[string]any{
		"cutoff":  cutoff,
		"now":     now,
		"user_id": userID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording message", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to record message for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to determine record outcome for user %d: %w", userID, err)
	}
	if affected == 0 {
		s.logger.WarnContext(ctx, "Cannot record message for unknown user", "user_id", userID)
		return false, nil
	}

	s.logger.DebugContext(ctx, "Message recorded", "user_id", userID)
	return true, nil
}

// GetStats returns the user's quota consumption. Returns nil, nil if not found.
func (s *sqlxStore) GetStats(ctx context.Context, userID int64) (*UsageStats, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var stats UsageStats
	query := `SELECT messages_sent, daily_limit, plan FROM users WHERE user_id = ?`
	err := s.db.GetContext(ctx, &stats, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No stats for unknown user", "user_id", userID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user stats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}

	stats.Remaining = stats.DailyLimit - stats.MessagesSent
	return &stats, nil
}

// SetPlan switches the user's subscription plan. The daily limit always
// follows the plan's configured value, and the expiry timestamp is set to
// now plus the premium duration on upgrade and cleared on downgrade.
func (s *sqlxStore) SetPlan(ctx context.Context, userID int64, plan Plan, now time.Time) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}
	if !plan.Valid() {
		return false, fmt.Errorf("invalid plan %q", plan)
	}

	now = now.UTC()
	var expiresAt sql.NullTime
	if plan == PlanPremium {
		expiresAt = sql.NullTime{Time: now.Add(premiumDuration), Valid: true}
	}

	query := `UPDATE users SET plan = ?, daily_limit = ?, expires_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, plan, plan.DailyLimit(), expiresAt, now, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating plan", "user_id", userID, "plan", plan, "error", err)
		return false, fmt.Errorf("failed to update plan for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to determine plan update outcome for user %d: %w", userID, err)
	}
	if affected == 0 {
		s.logger.WarnContext(ctx, "Cannot set plan for unknown user", "user_id", userID)
		return false, nil
	}

	s.logger.InfoContext(ctx, "User plan updated", "user_id", userID, "plan", plan, "daily_limit", plan.DailyLimit())
	return true, nil
}

// premiumDuration is how long a premium subscription lasts after purchase.
const premiumDuration = 30 * 24 * time.Hour

// ExpireLapsedSubscriptions reverts premium accounts whose expiry timestamp
// has passed back to the free plan and limit, clearing the expiry. It is run
// periodically by the scheduler rather than checked on every read.
func (s *sqlxStore) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()

	query := `
        UPDATE users SET
            plan        = ?,
            daily_limit = ?,
            expires_at  = NULL,
            updated_at  = ?
        WHERE plan = ? AND expires_at IS NOT NULL AND expires_at < ?;
    `

	result, err := s.db.ExecContext(ctx, query, PlanFree, FreeDailyLimit, now, PlanPremium, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error expiring lapsed subscriptions", "error", err)
		return 0, fmt.Errorf("failed to expire lapsed subscriptions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired subscriptions: %w", err)
	}

	if affected > 0 {
		s.logger.InfoContext(ctx, "Reverted lapsed premium subscriptions", "count", affected)
	}
	return affected, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
