package store

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSnapshotRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	snap := &Snapshot{
		ID:          "0b7c1f2e",
		Path:        "/tmp/snapshot_20240101T120000Z_0b7c1f2e.jpg",
		Trigger:     "Right/Palm",
		GestureText: "Right (Palm): OK",
		Expression:  "Smile",
	}
	if err := repo.Create(snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := repo.GetByID(snap.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Path != snap.Path || got.Trigger != snap.Trigger || got.GestureText != snap.GestureText || got.Expression != snap.Expression {
		t.Errorf("GetByID() = %+v, want %+v", got, snap)
	}
}

func TestSnapshotRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Snapshots().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRepository_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	if err := repo.Create(&Snapshot{ID: "dup", Path: "a.jpg", Trigger: "Right/Palm"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(&Snapshot{ID: "dup", Path: "b.jpg", Trigger: "Right/Palm"}); err == nil {
		t.Error("Create() with duplicate ID should fail")
	}
}

func TestSnapshotRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := &Snapshot{
			ID:        fmt.Sprintf("snap-%d", i),
			Path:      fmt.Sprintf("%d.jpg", i),
			Trigger:   "Right/Palm",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(snap); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("List(0) returned %d, want 5", len(all))
	}
	if all[0].ID != "snap-4" || all[4].ID != "snap-0" {
		t.Errorf("List() order = %s..%s, want snap-4..snap-0", all[0].ID, all[4].ID)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "snap-4" {
		t.Errorf("List(2) = %d items starting %v", len(limited), limited)
	}

	if n, err := repo.Count(); err != nil || n != 5 {
		t.Errorf("Count() = %d, %v; want 5, nil", n, err)
	}
}

func TestSnapshotRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	repo.Create(&Snapshot{ID: "gone", Path: "gone.jpg", Trigger: "Right/Palm"})

	if err := repo.Delete("gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get(SettingActionsEnabled); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing key = %v, want ErrNotFound", err)
	}
	if !settings.Bool(SettingActionsEnabled, true) {
		t.Error("Bool() should return the default for a missing key")
	}

	if err := settings.SetBool(SettingActionsEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if settings.Bool(SettingActionsEnabled, true) {
		t.Error("Bool() = true after SetBool(false)")
	}

	if err := settings.Set(SettingActionsEnabled, "not-a-bool"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !settings.Bool(SettingActionsEnabled, true) {
		t.Error("Bool() should fall back to the default for junk values")
	}
}
