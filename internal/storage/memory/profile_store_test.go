package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

func TestProfileCache_PutAndGet(t *testing.T) {
	cache := NewProfileCache()
	ctx := context.Background()

	if _, err := cache.Get(ctx, "w1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &domain.WalletProfile{
		Wallet:       "w1",
		CachedAt:     100,
		TxTypeCounts: map[string]int{"SWAP": 1},
	}
	if err := cache.Put(ctx, p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the caller's copy must not affect the cache.
	p.TxTypeCounts["SWAP"] = 99

	got, err := cache.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TxTypeCounts["SWAP"] != 1 {
		t.Errorf("TxTypeCounts[SWAP] = %d, want 1", got.TxTypeCounts["SWAP"])
	}
	if got.CachedAt != 100 {
		t.Errorf("CachedAt = %v, want 100", got.CachedAt)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestProfileCache_InvalidInput(t *testing.T) {
	cache := NewProfileCache()
	ctx := context.Background()

	if err := cache.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Put(nil): expected ErrInvalidInput, got %v", err)
	}
	if err := cache.Put(ctx, &domain.WalletProfile{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Put(empty wallet): expected ErrInvalidInput, got %v", err)
	}
}

func TestProfileCache_Concurrent(t *testing.T) {
	cache := NewProfileCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Put(ctx, &domain.WalletProfile{Wallet: "w"})
			_, _ = cache.Get(ctx, "w")
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestManifestStore_SaveLoad(t *testing.T) {
	store := NewManifestStore()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	m := domain.NewManifest(time.Unix(10, 0))
	m.ProcessedWallets["w1"] = 5
	if err := store.Save(ctx, m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	m.ProcessedWallets["w2"] = 6

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.ProcessedWallets) != 1 {
		t.Errorf("ProcessedWallets len = %d, want 1", len(got.ProcessedWallets))
	}
	if store.Saves() != 1 {
		t.Errorf("Saves = %d, want 1", store.Saves())
	}
}

func TestProfileLog_AppendOrder(t *testing.T) {
	log := NewProfileLog()
	ctx := context.Background()

	for _, w := range []string{"a", "b", "c"} {
		if err := log.Append(ctx, &domain.WalletProfile{Wallet: w}); err != nil {
			t.Fatalf("Append(%s) failed: %v", w, err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := log.Append(ctx, &domain.WalletProfile{Wallet: "d"}); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	got := log.Wallets()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Wallets len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Wallets[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
