// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// GetProfile assembles a user profile from the users row and the user's
// card holdings. A user that never saved a profile but holds cards still
// gets a profile; only a fully unknown user is ErrNotFound.
func (r *SQLRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `
		SELECT user_id, credit_score, monthly_income, avg_transaction_amount,
		       total_transactions, spending_preferences, time_patterns,
		       seasonal_patterns, updated_at
		FROM users
		WHERE user_id = ?
	`

	var profile domain.UserProfile
	var creditScore int
	var prefs, timePatterns, seasonalPatterns string

	err := r.db.QueryRowContext(ctx, r.rebind(query), userID).Scan(
		&profile.UserID, &creditScore, &profile.MonthlyIncome,
		&profile.AverageTransactionAmount, &profile.TotalTransactions,
		&prefs, &timePatterns, &seasonalPatterns, &profile.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.CreditScore = domain.CreditTier(creditScore)
	if err := json.Unmarshal([]byte(prefs), &profile.SpendingPreferences); err != nil {
		return nil, fmt.Errorf("failed to decode spending preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(timePatterns), &profile.TimePatterns); err != nil {
		return nil, fmt.Errorf("failed to decode time patterns: %w", err)
	}
	if err := json.Unmarshal([]byte(seasonalPatterns), &profile.SeasonalPatterns); err != nil {
		return nil, fmt.Errorf("failed to decode seasonal patterns: %w", err)
	}

	holdings, err := r.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.CreditCards = holdings

	return &profile, nil
}

// SaveProfile upserts the users row. Holdings are managed separately
// through AddHolding and RemoveHolding; CreditCards on the profile is
// ignored here.
func (r *SQLRepository) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	prefs, _ := json.Marshal(profile.SpendingPreferences)
	timePatterns, _ := json.Marshal(profile.TimePatterns)
	seasonalPatterns, _ := json.Marshal(profile.SeasonalPatterns)

	query := `
		INSERT INTO users (
			user_id, credit_score, monthly_income, avg_transaction_amount,
			total_transactions, spending_preferences, time_patterns,
			seasonal_patterns, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			credit_score = excluded.credit_score,
			monthly_income = excluded.monthly_income,
			avg_transaction_amount = excluded.avg_transaction_amount,
			total_transactions = excluded.total_transactions,
			spending_preferences = excluded.spending_preferences,
			time_patterns = excluded.time_patterns,
			seasonal_patterns = excluded.seasonal_patterns,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		profile.UserID, int(profile.CreditScore), profile.MonthlyIncome,
		profile.AverageTransactionAmount, profile.TotalTransactions,
		string(prefs), string(timePatterns), string(seasonalPatterns),
		time.Now().UTC(),
	)
	return err
}

// AddHolding records a card the user added, re-activating a previously
// removed holding of the same card.
func (r *SQLRepository) AddHolding(ctx context.Context, userID string, holding domain.CardHolding) error {
	if userID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	if holding.CardID == "" {
		return fmt.Errorf("%w: cardID is required", ErrInvalidInput)
	}

	// Make sure the users row exists so GetProfile works for users whose
	// first write is a holding.
	ensure := `INSERT INTO users (user_id, updated_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, r.rebind(ensure), userID, time.Now().UTC()); err != nil {
		return err
	}

	active := 0
	if holding.IsActive {
		active = 1
	}

	addedAt := holding.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO card_holdings (
			user_id, card_id, card_name, bank, last_four, is_active, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, card_id) DO UPDATE SET
			card_name = excluded.card_name,
			bank = excluded.bank,
			last_four = excluded.last_four,
			is_active = excluded.is_active
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		userID, holding.CardID, holding.CardName, holding.Bank,
		holding.LastFourDigits, active, addedAt,
	)
	return err
}

// RemoveHolding deactivates a holding. The row survives so signup bonus
// eligibility still sees the card as previously held.
func (r *SQLRepository) RemoveHolding(ctx context.Context, userID string, cardID string) error {
	if userID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `UPDATE card_holdings SET is_active = 0 WHERE user_id = ? AND card_id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), userID, cardID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListHoldings returns every holding for the user, active or not, oldest
// first.
func (r *SQLRepository) ListHoldings(ctx context.Context, userID string) ([]domain.CardHolding, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `
		SELECT card_id, card_name, bank, last_four, is_active, added_at
		FROM card_holdings
		WHERE user_id = ?
		ORDER BY added_at
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []domain.CardHolding
	for rows.Next() {
		var h domain.CardHolding
		var active int

		if err := rows.Scan(
			&h.CardID, &h.CardName, &h.Bank, &h.LastFourDigits,
			&active, &h.AddedAt,
		); err != nil {
			return nil, err
		}

		h.IsActive = active == 1
		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// SaveTransaction stores a recorded transaction.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	timestamp := tx.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (
			id, user_id, amount, merchant, category, description, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tx.UserID, tx.Amount, tx.Merchant,
		tx.Category, tx.Description, timestamp,
	)
	return err
}

// GetTransactionsByUser retrieves a user's transactions since the given
// time, newest first.
func (r *SQLRepository) GetTransactionsByUser(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, amount, merchant, category, description, timestamp
		FROM transactions
		WHERE user_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction

		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Amount, &tx.Merchant,
			&tx.Category, &tx.Description, &tx.Timestamp,
		); err != nil {
			return nil, err
		}

		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

// SaveRecommendation stores a served recommendation as its JSON document.
func (r *SQLRepository) SaveRecommendation(ctx context.Context, rec *domain.RecommendationResult) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: recommendation ID is required", ErrInvalidInput)
	}
	if rec.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	result, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	query := `
		INSERT INTO recommendations (id, user_id, result, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		rec.ID, rec.UserID, string(result), rec.CreatedAt,
	)
	return err
}

// GetRecommendation retrieves a recommendation by ID with user isolation.
func (r *SQLRepository) GetRecommendation(ctx context.Context, userID string, recID string) (*domain.RecommendationResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `SELECT result FROM recommendations WHERE user_id = ? AND id = ?`

	var result string
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID, recID).Scan(&result)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec domain.RecommendationResult
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse stored recommendation: %w", err)
	}

	return &rec, nil
}

// SaveEligibilityRule upserts a rule definition.
func (r *SQLRepository) SaveEligibilityRule(ctx context.Context, rule *domain.EligibilityRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule ID is required", ErrInvalidInput)
	}
	if rule.Expression == "" {
		return fmt.Errorf("%w: rule expression is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO eligibility_rules (
			id, card_id, name, description, expression, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			card_id = excluded.card_id,
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.CardID, rule.Name, rule.Description,
		rule.Expression, enabled, now, now,
	)
	return err
}

// ListEligibilityRules retrieves all enabled rules, ordered by name.
func (r *SQLRepository) ListEligibilityRules(ctx context.Context) ([]*domain.EligibilityRule, error) {
	query := `
		SELECT id, card_id, name, description, expression, enabled
		FROM eligibility_rules
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.EligibilityRule
	for rows.Next() {
		var rule domain.EligibilityRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.CardID, &rule.Name, &rule.Description,
			&rule.Expression, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
