package cache

import (
	"context"
	"testing"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	ctx := context.Background()
	userID := "user-001"

	t.Run("SetAndGet", func(t *testing.T) {
		err := cache.Set(ctx, userID, "key1", []byte("value1"), time.Minute)
		if err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, userID, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		val, err := cache.Get(ctx, userID, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for cache miss, got: %v", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, userID, "key2", []byte("value2"), time.Minute)

		err := cache.Delete(ctx, userID, "key2")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := cache.Get(ctx, userID, "key2")
		if val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		_ = cache.Set(ctx, userID, "expiring", []byte("temp"), 10*time.Millisecond)

		// Should be available immediately
		val, _ := cache.Get(ctx, userID, "expiring")
		if val == nil {
			t.Error("expected value before expiration")
		}

		// Wait for expiration
		time.Sleep(20 * time.Millisecond)

		val, _ = cache.Get(ctx, userID, "expiring")
		if val != nil {
			t.Error("expected nil after expiration")
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		smallCache := NewLRUCache(3)

		_ = smallCache.Set(ctx, userID, "a", []byte("1"), time.Minute)
		_ = smallCache.Set(ctx, userID, "b", []byte("2"), time.Minute)
		_ = smallCache.Set(ctx, userID, "c", []byte("3"), time.Minute)

		// Access 'a' to make it recently used
		_, _ = smallCache.Get(ctx, userID, "a")

		// Add 'd' - should evict 'b' (oldest accessed)
		_ = smallCache.Set(ctx, userID, "d", []byte("4"), time.Minute)

		// 'b' should be evicted
		val, _ := smallCache.Get(ctx, userID, "b")
		if val != nil {
			t.Error("expected 'b' to be evicted")
		}

		// 'a' should still be there
		val, _ = smallCache.Get(ctx, userID, "a")
		if val == nil {
			t.Error("expected 'a' to still exist")
		}
	})

	t.Run("UserIsolation", func(t *testing.T) {
		user1 := "user-001"
		user2 := "user-002"

		_ = cache.Set(ctx, user1, "shared-key", []byte("user1-value"), time.Minute)
		_ = cache.Set(ctx, user2, "shared-key", []byte("user2-value"), time.Minute)

		val1, _ := cache.Get(ctx, user1, "shared-key")
		val2, _ := cache.Get(ctx, user2, "shared-key")

		if string(val1) != "user1-value" {
			t.Errorf("expected 'user1-value', got '%s'", string(val1))
		}
		if string(val2) != "user2-value" {
			t.Errorf("expected 'user2-value', got '%s'", string(val2))
		}
	})

	t.Run("RequiresUserID", func(t *testing.T) {
		err := cache.Set(ctx, "", "key", []byte("value"), time.Minute)
		if err == nil {
			t.Error("expected error for empty userID")
		}

		_, err = cache.Get(ctx, "", "key")
		if err == nil {
			t.Error("expected error for empty userID")
		}
	})

	t.Run("ProfileCache", func(t *testing.T) {
		profile := &domain.UserProfile{
			UserID:        userID,
			CreditScore:   domain.TierVeryGood,
			MonthlyIncome: 5500,
			SpendingPreferences: []domain.SpendingPreference{
				{Category: "dining", MonthlySpending: 400, Priority: 4},
			},
			CreditCards: []domain.CardHolding{
				{CardID: "chase-freedom-unlimited", CardName: "Chase Freedom Unlimited", IsActive: true},
			},
		}

		err := cache.SetProfile(ctx, userID, profile, time.Minute)
		if err != nil {
			t.Fatalf("SetProfile failed: %v", err)
		}

		retrieved, err := cache.GetProfile(ctx, userID)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}

		if retrieved.CreditScore != domain.TierVeryGood {
			t.Errorf("expected credit score %v, got %v", domain.TierVeryGood, retrieved.CreditScore)
		}
		if len(retrieved.CreditCards) != 1 || retrieved.CreditCards[0].CardID != "chase-freedom-unlimited" {
			t.Errorf("expected holding round-trip, got %+v", retrieved.CreditCards)
		}
	})

	t.Run("ProfileCacheMiss", func(t *testing.T) {
		profile, err := cache.GetProfile(ctx, "user-without-profile")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if profile != nil {
			t.Errorf("expected nil on miss, got %+v", profile)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		statsCache := NewLRUCache(50)
		_ = statsCache.Set(ctx, userID, "k1", []byte("v1"), time.Minute)
		_ = statsCache.Set(ctx, userID, "k2", []byte("v2"), time.Minute)

		size, capacity := statsCache.Stats()
		if size != 2 {
			t.Errorf("expected size 2, got %d", size)
		}
		if capacity != 50 {
			t.Errorf("expected capacity 50, got %d", capacity)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := cache.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		testCache := NewLRUCache(10)
		_ = testCache.Set(ctx, userID, "k", []byte("v"), time.Minute)

		err := testCache.Close()
		if err != nil {
			t.Errorf("Close failed: %v", err)
		}

		// Cache should be empty after close
		val, _ := testCache.Get(ctx, userID, "k")
		if val != nil {
			t.Error("expected cache to be cleared after close")
		}
	})
}

func TestNewCache(t *testing.T) {
	t.Run("MemoryType", func(t *testing.T) {
		cfg := domain.CacheConfig{
			Type:         "memory",
			LocalMaxSize: 100,
		}

		cache, err := New(cfg)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer cache.Close()

		_, ok := cache.(*LRUCache)
		if !ok {
			t.Error("expected LRUCache for memory type")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		cfg := domain.CacheConfig{
			Type: "memcached",
		}

		_, err := New(cfg)
		if err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}
