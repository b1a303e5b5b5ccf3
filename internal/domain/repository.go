package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence. All user-scoped
// methods take the userID explicitly so implementations can enforce strict
// per-user isolation.
type Repository interface {
	// Profile operations
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	SaveProfile(ctx context.Context, profile *UserProfile) error

	// Held-card operations
	AddHolding(ctx context.Context, userID string, holding CardHolding) error
	RemoveHolding(ctx context.Context, userID string, cardID string) error
	ListHoldings(ctx context.Context, userID string) ([]CardHolding, error)

	// Transaction log (feeds the profile aggregator)
	SaveTransaction(ctx context.Context, tx *Transaction) error
	GetTransactionsByUser(ctx context.Context, userID string, since time.Time) ([]*Transaction, error)

	// Recommendation history
	SaveRecommendation(ctx context.Context, rec *RecommendationResult) error
	GetRecommendation(ctx context.Context, userID string, recID string) (*RecommendationResult, error)

	// Eligibility rule configuration
	SaveEligibilityRule(ctx context.Context, rule *EligibilityRule) error
	ListEligibilityRules(ctx context.Context) ([]*EligibilityRule, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
