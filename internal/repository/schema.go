package repository

// Schema definitions for the Cardwise database.
// Compatible with both SQLite and PostgreSQL.

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    credit_score INTEGER NOT NULL DEFAULT 0,
    monthly_income REAL NOT NULL DEFAULT 0,
    avg_transaction_amount REAL NOT NULL DEFAULT 0,
    total_transactions INTEGER NOT NULL DEFAULT 0,
    spending_preferences TEXT NOT NULL DEFAULT '[]',
    time_patterns TEXT NOT NULL DEFAULT '{}',
    seasonal_patterns TEXT NOT NULL DEFAULT '{}',
    updated_at TIMESTAMP NOT NULL
);
`

const schemaCardHoldings = `
CREATE TABLE IF NOT EXISTS card_holdings (
    user_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    card_name TEXT NOT NULL,
    bank TEXT,
    last_four TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    added_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, card_id)
);

CREATE INDEX IF NOT EXISTS idx_holdings_user ON card_holdings(user_id);
CREATE INDEX IF NOT EXISTS idx_holdings_active ON card_holdings(user_id, is_active);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    amount REAL NOT NULL,
    merchant TEXT,
    category TEXT,
    description TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(user_id, timestamp);
`

const schemaRecommendations = `
CREATE TABLE IF NOT EXISTS recommendations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations(user_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(user_id, created_at);
`

const schemaEligibilityRules = `
CREATE TABLE IF NOT EXISTS eligibility_rules (
    id TEXT PRIMARY KEY,
    card_id TEXT,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rules_enabled ON eligibility_rules(enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaUsers,
		schemaCardHoldings,
		schemaTransactions,
		schemaRecommendations,
		schemaEligibilityRules,
	}
}
