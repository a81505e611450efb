package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-testutil"
)

func writeLedgerFile(t *testing.T, dir string, asset Asset[*LedgerState]) {
	t.Helper()

	data, err := json.Marshal(asset)
	if err != nil {
		t.Fatalf("failed to marshal test asset: %v", err)
	}
	err = os.WriteFile(filepath.Join(dir, ledgerFileName), data, 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "path", store.path, filepath.Join(tmpDir, ledgerFileName))
	testutil.AssertEqual(t, "records length", len(store.state.kitties), 0)
}

func TestNewFileStore_NonExistentDirectory(t *testing.T) {
	_, err := NewFileStore("/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestNewFileStore_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := NewFileStore(file)
	testutil.AssertErrorContains(t, err, "is not a directory")
}

func TestNewFileStore_WithExistingLedger(t *testing.T) {
	tmpDir := t.TempDir()
	writeLedgerFile(t, tmpDir, Asset[*LedgerState]{
		Version:    1,
		Identifier: "ledger",
		Spec:       validLedger(),
	})

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	count, _, _ := store.KittiesCount(ctx)
	testutil.AssertEqual(t, "count", count, kitties.KittyIndex(2))
	k, _, _ := store.Kitty(ctx, 2)
	testutil.AssertEqual(t, "dna", k.DNA, kitties.DNA{0x02})
	owner, _, _ := store.Owner(ctx, 1)
	testutil.AssertEqual(t, "owner", owner, kitties.AccountID("alice"))
}

func TestNewFileStore_Rejects(t *testing.T) {
	tests := map[string]struct {
		content string
		expErr  string
	}{
		"invalid json": {
			content: `{invalid json`,
			expErr:  "unmarshalling asset",
		},
		"version missing": {
			content: `{"id":"ledger","spec":{}}`,
			expErr:  "version must be set",
		},
		"wrong id": {
			content: `{"version":1,"id":"other","spec":{}}`,
			expErr:  `unexpected id "other"`,
		},
		"kitty without owner": {
			content: `{"version":1,"id":"ledger","spec":{"count":1,"kitties":{"1":"00000000000000000000000000000000"}}}`,
			expErr:  "kitty 1 has no owner",
		},
		"bad dna": {
			content: `{"version":1,"id":"ledger","spec":{"count":1,"kitties":{"1":"beef"}}}`,
			expErr:  "must be 16 bytes",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			err := os.WriteFile(filepath.Join(tmpDir, ledgerFileName), []byte(tt.content), 0644)
			if err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			_, err = NewFileStore(tmpDir)
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestFileStore_AtomicPersists(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = store.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
		_ = st.PutKitty(ctx, 1, kitties.Kitty{DNA: kitties.DNA{0xcc}})
		_ = st.PutOwner(ctx, 1, "alice")
		return st.SetKittiesCount(ctx, 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// no temp file left behind
	_, err = os.Stat(filepath.Join(tmpDir, ledgerFileName+".tmp"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected temp file to be gone, got %v", err)
	}

	reopened, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	k, ok, _ := reopened.Kitty(ctx, 1)
	testutil.AssertEqual(t, "kitty found", ok, true)
	testutil.AssertEqual(t, "dna", k.DNA, kitties.DNA{0xcc})
	owner, _, _ := reopened.Owner(ctx, 1)
	testutil.AssertEqual(t, "owner", owner, kitties.AccountID("alice"))
	count, _, _ := reopened.KittiesCount(ctx)
	testutil.AssertEqual(t, "count", count, kitties.KittyIndex(1))
}

func TestFileStore_FailedAtomicWritesNothing(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = store.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
		_ = st.SetKittiesCount(ctx, 1)
		return kitties.ErrNotOwner
	})
	if !errors.Is(err, kitties.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	_, err = os.Stat(filepath.Join(tmpDir, ledgerFileName))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no ledger file, got %v", err)
	}
	_, ok, _ := store.KittiesCount(ctx)
	testutil.AssertEqual(t, "count set", ok, false)
}

func TestFileStore_SaveFailureKeepsMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.path = filepath.Join(tmpDir, "missing-dir", ledgerFileName)

	err = store.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
		return st.SetKittiesCount(ctx, 1)
	})
	testutil.AssertErrorContains(t, err, "writing temp file")

	_, ok, _ := store.KittiesCount(ctx)
	testutil.AssertEqual(t, "count set", ok, false)
}
