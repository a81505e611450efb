package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pixil98/go-kitties/internal/kitties"
)

const (
	ledgerAssetId   = Identifier("ledger")
	ledgerVersion   = 1
	ledgerFileName  = "ledger.json"
	ledgerFilePerms = 0644
)

// FileStore is a MemStore whose state is written to a json file in dir after
// every successful Atomic call. Direct Put calls only reach the file with the
// next Atomic commit.
type FileStore struct {
	*MemStore

	path string
}

func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening ledger directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ledger path %q is not a directory", dir)
	}

	s := &FileStore{
		MemStore: NewMemStore(),
		path:     filepath.Join(dir, ledgerFileName),
	}

	err = s.load()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.loadAsset()
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no ledger file found, starting empty", "path", s.path)
		s.state = newMemState()
		return nil
	}
	if err != nil {
		return err
	}

	err = asset.Validate()
	if err != nil {
		return fmt.Errorf("validating %s: %w", filepath.Base(s.path), err)
	}
	if asset.Id() != ledgerAssetId {
		return fmt.Errorf("validating %s: unexpected id %q", filepath.Base(s.path), asset.Id())
	}

	s.state = stateFromSnapshot(asset.Spec)
	return nil
}

func (s *FileStore) loadAsset() (*Asset[*LedgerState], error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}

	// Ignoring close error - file is read-only, error is not actionable
	defer func() { _ = file.Close() }()

	jsonData, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	asset := &Asset[*LedgerState]{
		Spec: &LedgerState{},
	}
	err = json.Unmarshal(jsonData, asset)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling asset: %w", err)
	}

	return asset, nil
}

// Atomic behaves like MemStore.Atomic, and the new state is on disk before
// any reader can see it.
func (s *FileStore) Atomic(ctx context.Context, fn func(context.Context, kitties.Store) error) error {
	return s.atomic(ctx, fn, s.save)
}

func (s *FileStore) save(l *LedgerState) error {
	asset := &Asset[*LedgerState]{
		Version:    ledgerVersion,
		Identifier: ledgerAssetId,
		Spec:       l,
	}

	jsonData, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	return atomicWrite(s.path, jsonData, ledgerFilePerms)
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
