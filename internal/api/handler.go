package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/VihaanShah2004/cardwise/internal/category"
	"github.com/VihaanShah2004/cardwise/internal/catalog"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/insights"
	"github.com/VihaanShah2004/cardwise/internal/metrics"
	"github.com/VihaanShah2004/cardwise/internal/ranker"
	"github.com/VihaanShah2004/cardwise/internal/repository"
	"github.com/VihaanShah2004/cardwise/internal/rules"
	"github.com/VihaanShah2004/cardwise/internal/worker"
)

// profileCacheKey mirrors the key the cache uses for profile snapshots.
const profileCacheKey = "profile"

// profileCacheTTL bounds how stale a served profile snapshot can be.
const profileCacheTTL = 5 * time.Minute

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	catalog  *catalog.Catalog
	ranker   *ranker.Ranker
	rules    *rules.Engine
	insights *insights.Service
	validate *validator.Validate
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, cat *catalog.Catalog, rk *ranker.Ranker, rulesEngine *rules.Engine, ins *insights.Service, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		catalog:  cat,
		ranker:   rk,
		rules:    rulesEngine,
		insights: ins,
		validate: validator.New(),
		version:  version,
	}
}

// RecommendationServedEvent is published after a recommendation is returned.
type RecommendationServedEvent struct {
	RecommendationID string  `json:"recommendationId"`
	UserID           string  `json:"userId"`
	CardID           string  `json:"cardId,omitempty"`
	Score            float64 `json:"score"`
	Confidence       float64 `json:"confidence"`
	Category         string  `json:"category,omitempty"`
}

// Recommend handles POST /recommend requests. The default mode ranks the
// user's active holdings; ?mode=catalog ranks the whole catalog after the
// eligibility rules filter it.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	userID := GetUserID(ctx)
	traceID := GetTraceID(ctx)

	var req domain.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "held"
	}
	if mode != "held" && mode != "catalog" {
		writeError(w, http.StatusBadRequest, "mode must be held or catalog")
		return
	}

	profile := h.loadProfile(ctx, userID)

	tx := req.ToTransaction(userID)
	tx.ID = uuid.New().String()
	tx.Category = string(category.Normalize(req.Category, req.Merchant))

	var cards []*domain.Card
	emptyReason := ranker.ReasonNoHeldCards
	if mode == "catalog" {
		emptyReason = ranker.ReasonEmptyCatalog
		all := h.catalog.List()
		cards = h.rules.Filter(all, tx, profile)
		metrics.RulesFiltered.Add(float64(len(all) - len(cards)))
	} else {
		cards = h.heldCards(profile)
	}

	result := h.ranker.Rank(cards, tx, profile, emptyReason)
	result.Metadata.TraceID = traceID

	if h.repo != nil {
		if err := h.repo.SaveTransaction(ctx, tx); err != nil {
			slog.Error("failed to save transaction", "tx_id", tx.ID, "error", err)
		}
		if err := h.repo.SaveRecommendation(ctx, result); err != nil {
			slog.Error("failed to save recommendation", "id", result.ID, "error", err)
		}
	}

	h.publishRecommendEvents(ctx, tx, result, traceID)

	result.Metadata.TotalMs = time.Since(start).Milliseconds()

	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	metrics.RecommendTotal.WithLabelValues(tx.Category).Inc()
	metrics.CardsScored.Observe(float64(result.Metadata.CardsScored))

	writeJSON(w, http.StatusOK, result)
}

// publishRecommendEvents emits the recorded-transaction and served events.
// Both are best effort; a bus failure never fails the request.
func (h *Handler) publishRecommendEvents(ctx context.Context, tx *domain.Transaction, result *domain.RecommendationResult, traceID string) {
	if h.bus == nil {
		return
	}

	txEvent := worker.TransactionEvent{
		TxID:        tx.ID,
		UserID:      tx.UserID,
		TraceID:     traceID,
		Amount:      tx.Amount,
		Merchant:    tx.Merchant,
		Category:    tx.Category,
		Description: tx.Description,
		Timestamp:   tx.Timestamp.UnixNano(),
	}
	if payload, err := json.Marshal(txEvent); err == nil {
		if err := h.bus.Publish(ctx, domain.TopicTransactionRecorded, payload); err != nil {
			slog.Warn("failed to publish transaction event", "tx_id", tx.ID, "error", err)
		}
	}

	served := RecommendationServedEvent{
		RecommendationID: result.ID,
		UserID:           tx.UserID,
		Score:            result.Score,
		Confidence:       result.Confidence,
		Category:         tx.Category,
	}
	if result.RecommendedCard != nil {
		served.CardID = result.RecommendedCard.ID
	}
	if payload, err := json.Marshal(served); err == nil {
		if err := h.bus.Publish(ctx, domain.TopicRecommendationServed, payload); err != nil {
			slog.Warn("failed to publish served event", "id", result.ID, "error", err)
		}
	}
}

// Score handles POST /score requests: one catalog card scored in isolation.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	var req domain.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.catalog.ByID(req.CardID)
	if err != nil {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	profile := h.loadProfile(ctx, userID)

	tx := req.Transaction.ToTransaction(userID)
	tx.Category = string(category.Normalize(req.Transaction.Category, req.Transaction.Merchant))

	score := h.ranker.ScoreOne(card, tx, profile)
	metrics.ScoreTotal.Inc()

	writeJSON(w, http.StatusOK, score)
}

// ListCards returns the full card catalog.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards := h.catalog.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": cards,
		"count": len(cards),
	})
}

// GetCard returns one catalog card by ID.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")

	card, err := h.catalog.ByID(cardID)
	if err != nil {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// ListHoldings returns the user's card holdings, active and inactive.
func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	holdings, err := h.repo.ListHoldings(ctx, userID)
	if err != nil {
		slog.Error("failed to list holdings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list cards")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": holdings,
		"count": len(holdings),
	})
}

// AddHoldingRequest is the request body for POST /users/cards.
type AddHoldingRequest struct {
	CardID         string `json:"cardId" validate:"required"`
	LastFourDigits string `json:"lastFourDigits,omitempty" validate:"omitempty,len=4,numeric"`
}

// AddHolding adds a catalog card to the user's profile.
func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	var req AddHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.catalog.ByID(req.CardID)
	if err != nil {
		writeError(w, http.StatusNotFound, "card not found in catalog")
		return
	}

	holding := domain.CardHolding{
		CardID:         card.ID,
		CardName:       card.Name,
		Bank:           card.Bank,
		LastFourDigits: req.LastFourDigits,
		IsActive:       true,
		AddedAt:        time.Now().UTC(),
	}

	if err := h.repo.AddHolding(ctx, userID, holding); err != nil {
		slog.Error("failed to add holding", "user_id", userID, "card_id", card.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add card")
		return
	}

	h.invalidateProfile(ctx, userID)

	slog.Info("card added to profile", "user_id", userID, "card_id", card.ID)
	writeJSON(w, http.StatusCreated, holding)
}

// RemoveHolding deactivates a card on the user's profile. The holding row
// stays so signup bonus history is preserved.
func (h *Handler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	cardID := chi.URLParam(r, "cardId")

	if err := h.repo.RemoveHolding(ctx, userID, cardID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "card not found on profile")
			return
		}
		slog.Error("failed to remove holding", "user_id", userID, "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove card")
		return
	}

	h.invalidateProfile(ctx, userID)

	slog.Info("card removed from profile", "user_id", userID, "card_id", cardID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "card removed",
	})
}

// PreferencesRequest is the request body for POST /users/preferences.
type PreferencesRequest struct {
	Preferences []domain.SpendingPreference `json:"preferences" validate:"required,dive"`
}

// SetPreferences replaces the user's declared spending preferences.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	for i := range req.Preferences {
		pref := &req.Preferences[i]
		normalized := string(category.Normalize(pref.Category, ""))
		if !domain.ValidCategory(normalized) {
			writeError(w, http.StatusBadRequest, "unknown category: "+pref.Category)
			return
		}
		pref.Category = normalized
		if pref.MonthlySpending < 0 {
			writeError(w, http.StatusBadRequest, "monthlySpending must be non-negative")
			return
		}
		if pref.Priority < 1 || pref.Priority > 5 {
			writeError(w, http.StatusBadRequest, "priority must be between 1 and 5")
			return
		}
	}

	profile := h.profileForUpdate(ctx, userID)
	profile.SpendingPreferences = req.Preferences
	profile.UpdatedAt = time.Now().UTC()

	if err := h.repo.SaveProfile(ctx, profile); err != nil {
		slog.Error("failed to save preferences", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	h.invalidateProfile(ctx, userID)

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest is the request body for PUT /users/profile.
type UpdateProfileRequest struct {
	CreditScore   string  `json:"creditScore,omitempty"`
	MonthlyIncome float64 `json:"monthlyIncome,omitempty" validate:"gte=0"`
}

// UpdateProfile sets the user's declared credit tier and income.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := h.profileForUpdate(ctx, userID)

	if req.CreditScore != "" {
		tier, err := domain.ParseCreditTier(req.CreditScore)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown credit tier: "+req.CreditScore)
			return
		}
		profile.CreditScore = tier
	}
	if req.MonthlyIncome > 0 {
		profile.MonthlyIncome = req.MonthlyIncome
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := h.repo.SaveProfile(ctx, profile); err != nil {
		slog.Error("failed to save profile", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	h.invalidateProfile(ctx, userID)

	writeJSON(w, http.StatusOK, profile)
}

// GetAnalysis returns the user's spending analysis with card suggestions.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	profile := h.loadProfile(ctx, userID)
	analysis := h.insights.Analyze(profile)

	writeJSON(w, http.StatusOK, analysis)
}

// GetRecommendation retrieves a stored recommendation by ID.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	recID := chi.URLParam(r, "id")

	rec, err := h.repo.GetRecommendation(ctx, userID, recID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		slog.Error("failed to get recommendation", "id", recID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get recommendation")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListRules returns all eligibility rules loaded in the engine.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.rules.LoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": loaded,
		"count": len(loaded),
	})
}

// CreateRuleRequest is the request body for creating an eligibility rule.
type CreateRuleRequest struct {
	ID          string `json:"id" validate:"required"`
	CardID      string `json:"cardId,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Expression  string `json:"expression" validate:"required"`
	Enabled     bool   `json:"enabled"`
}

// CreateRule persists a new eligibility rule and loads it into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := &domain.EligibilityRule{
		ID:          req.ID,
		CardID:      req.CardID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Enabled:     req.Enabled,
	}

	// Reject rules that do not compile to a bool before persisting
	if err := h.rules.ValidateRule(rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveEligibilityRule(ctx, rule); err != nil {
			slog.Error("failed to save rule", "id", rule.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save rule")
			return
		}
	}

	if rule.Enabled {
		if err := h.rules.LoadRule(rule); err != nil {
			slog.Error("failed to load rule into engine", "id", rule.ID, "error", err)
		}
	}

	slog.Info("eligibility rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, rule)
}

// ReloadRules replaces the engine's rule set from the database.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	dbRules, err := h.repo.ListEligibilityRules(ctx)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load rules from database")
		return
	}

	if err := h.rules.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload rules: "+err.Error())
		return
	}

	slog.Info("eligibility rules reloaded", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// loadProfile returns the freshest profile snapshot available. A user with
// no stored profile gets an empty one; recommendations degrade to neutral
// factors rather than failing.
func (h *Handler) loadProfile(ctx context.Context, userID string) *domain.UserProfile {
	if h.cache != nil {
		if p, err := h.cache.GetProfile(ctx, userID); err == nil && p != nil {
			return p
		}
	}

	if h.repo != nil {
		p, err := h.repo.GetProfile(ctx, userID)
		if err == nil {
			if h.cache != nil {
				if cerr := h.cache.SetProfile(ctx, userID, p, profileCacheTTL); cerr != nil {
					slog.Warn("failed to cache profile", "user_id", userID, "error", cerr)
				}
			}
			return p
		}
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to load profile", "user_id", userID, "error", err)
		}
	}

	return &domain.UserProfile{UserID: userID}
}

// profileForUpdate loads the stored profile for mutation, bypassing the
// cache so updates never write a stale snapshot back.
func (h *Handler) profileForUpdate(ctx context.Context, userID string) *domain.UserProfile {
	if h.repo != nil {
		if p, err := h.repo.GetProfile(ctx, userID); err == nil {
			return p
		}
	}
	return &domain.UserProfile{UserID: userID}
}

func (h *Handler) invalidateProfile(ctx context.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, userID, profileCacheKey); err != nil {
		slog.Warn("failed to invalidate cached profile", "user_id", userID, "error", err)
	}
}

// heldCards resolves the user's active holdings against the catalog.
// Holdings that no longer exist in the catalog are skipped.
func (h *Handler) heldCards(profile *domain.UserProfile) []*domain.Card {
	active := profile.ActiveHoldings()
	cards := make([]*domain.Card, 0, len(active))
	for _, holding := range active {
		card, err := h.catalog.ByID(holding.CardID)
		if err != nil {
			slog.Warn("held card missing from catalog", "card_id", holding.CardID)
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
