package database

import "testing"

func TestMarkWeekSynced(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)

	synced, err := db.IsWeekSynced(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if synced {
		t.Error("Expected week to start unsynced")
	}

	if err := db.MarkWeekSynced(user.ID, "2025-12-01"); err != nil {
		t.Fatalf("Failed to mark week synced: %v", err)
	}

	synced, err = db.IsWeekSynced(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !synced {
		t.Error("Expected week to be synced")
	}

	// Re-marking must not error; it just refreshes the timestamp
	if err := db.MarkWeekSynced(user.ID, "2025-12-01"); err != nil {
		t.Fatalf("Failed to re-mark week synced: %v", err)
	}

	w, err := db.GetSyncedWeek(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed to get synced week: %v", err)
	}
	if w == nil || w.SyncedAt == 0 {
		t.Errorf("Expected marker with timestamp, got %+v", w)
	}
}

func TestDeleteSyncedWeeksByUser(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)

	if err := db.MarkWeekSynced(user.ID, "2025-12-01"); err != nil {
		t.Fatalf("Failed to mark week synced: %v", err)
	}
	if err := db.DeleteSyncedWeeksByUser(user.ID); err != nil {
		t.Fatalf("Failed to delete synced weeks: %v", err)
	}

	synced, err := db.IsWeekSynced(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if synced {
		t.Error("Expected markers removed after delete")
	}
}
