package persistence

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	blob := []byte(`{"epsilon":0.1}`)
	s.Save("medium", blob)

	// Close drains the async writer.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.Load("medium")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("saved model not found after reopen")
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Load = %q, want %q", got, blob)
	}
}

func TestStoreLoadMissingTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Load("nonexistent")
	if err != nil {
		t.Fatalf("missing tier should not error: %v", err)
	}
	if ok {
		t.Error("missing tier reported as found")
	}
}

func TestStoreUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	s.Save("hard", []byte("v1"))
	s.Save("hard", []byte("v2"))
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, _ := s2.Load("hard")
	if !ok || !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Load = %q ok=%v, want latest save v2", got, ok)
	}

	tiers, err := s2.Tiers()
	if err != nil {
		t.Fatalf("Tiers: %v", err)
	}
	if len(tiers) != 1 || tiers[0].Tier != "hard" {
		t.Errorf("tiers = %v, want single hard row", tiers)
	}
}

func TestStoreSaveAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	// Must not panic or block.
	s.Save("medium", []byte("late"))

	var nilStore *Store
	nilStore.Save("medium", []byte("x"))
	if _, ok, _ := nilStore.Load("medium"); ok {
		t.Error("nil store reported a model")
	}
	if err := nilStore.Close(); err != nil {
		t.Errorf("nil store Close: %v", err)
	}
}

func TestStoreCallerMayReuseBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	blob := []byte("original")
	s.Save("easy", blob)
	copy(blob, "clobber!") // caller reuses the slice immediately
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, _ := s2.Load("easy")
	if !ok || !bytes.Equal(got, []byte("original")) {
		t.Errorf("Load = %q, want the value at save time", got)
	}
}
