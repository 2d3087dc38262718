package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"postura/internal/domain/check"
	"postura/internal/infrastructure/persistence/sqlite/model"
	"postura/internal/ports"
)

func setupCheckRepository(t *testing.T) *CheckRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Check{},
		&model.CheckControlLink{},
		&model.CheckVersion{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return NewCheckRepository(db)
}

func createCheck(t *testing.T, repo *CheckRepository, name string) ports.Check {
	t.Helper()

	now := time.Now().UTC()
	created, err := repo.CreateCheck(context.Background(), ports.Check{
		ID:              uuid.NewString(),
		Name:            name,
		Type:            check.TypeAutomated,
		Status:          check.StatusDraft,
		SeverityDefault: check.SeverityMedium,
		Frequency:       "PT1H",
		Version:         1,
		Tags:            []string{"baseline"},
		Metadata:        map[string]any{"source": "test"},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}
	return created
}

func TestCheckRoundTripPreservesTagsAndMetadata(t *testing.T) {
	repo := setupCheckRepository(t)
	ctx := context.Background()

	created := createCheck(t, repo, "round trip")
	loaded, err := repo.GetCheck(ctx, created.ID)
	if err != nil {
		t.Fatalf("get check: %v", err)
	}

	if len(loaded.Tags) != 1 || loaded.Tags[0] != "baseline" {
		t.Fatalf("tags = %v", loaded.Tags)
	}
	if loaded.Metadata["source"] != "test" {
		t.Fatalf("metadata = %v", loaded.Metadata)
	}

	if _, err := repo.GetCheck(ctx, "missing"); !errors.Is(err, ports.ErrCheckNotFound) {
		t.Fatalf("missing check: err = %v, want ErrCheckNotFound", err)
	}
}

func TestReplaceControlLinksKeepsInsertionOrder(t *testing.T) {
	repo := setupCheckRepository(t)
	ctx := context.Background()

	created := createCheck(t, repo, "ordered links")

	first := []ports.CheckControlLink{
		{ControlID: "ctrl-b", Weight: 1, EnforcementLevel: check.EnforcementOptional},
		{ControlID: "ctrl-a", Weight: 2, EnforcementLevel: check.EnforcementMandatory},
	}
	if err := repo.ReplaceControlLinks(ctx, created.ID, first); err != nil {
		t.Fatalf("replace links: %v", err)
	}

	links, err := repo.ListControlLinks(ctx, created.ID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	// Insertion order, not lexical order.
	if links[0].ControlID != "ctrl-b" || links[1].ControlID != "ctrl-a" {
		t.Fatalf("link order = %s,%s", links[0].ControlID, links[1].ControlID)
	}

	// Full replacement, not merge.
	if err := repo.ReplaceControlLinks(ctx, created.ID, []ports.CheckControlLink{
		{ControlID: "ctrl-c", Weight: 3, EnforcementLevel: check.EnforcementRecommended},
	}); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	links, err = repo.ListControlLinks(ctx, created.ID)
	if err != nil {
		t.Fatalf("relist links: %v", err)
	}
	if len(links) != 1 || links[0].ControlID != "ctrl-c" {
		t.Fatalf("links after replace = %+v", links)
	}

	byControl, err := repo.ListLinksForControl(ctx, "ctrl-c")
	if err != nil {
		t.Fatalf("list by control: %v", err)
	}
	if len(byControl) != 1 || byControl[0].CheckID != created.ID {
		t.Fatalf("links by control = %+v", byControl)
	}
}

func TestVersionSnapshotsOrderedByVersion(t *testing.T) {
	repo := setupCheckRepository(t)
	ctx := context.Background()

	created := createCheck(t, repo, "versioned")
	for version := 1; version <= 3; version++ {
		if err := repo.CreateVersionSnapshot(ctx, ports.CheckVersion{
			ID:        uuid.NewString(),
			CheckID:   created.ID,
			Version:   version,
			Status:    check.StatusDraft,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("snapshot v%d: %v", version, err)
		}
	}

	snapshots, err := repo.ListVersionSnapshots(ctx, created.ID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(snapshots))
	}
	for i, snapshot := range snapshots {
		if snapshot.Version != i+1 {
			t.Fatalf("snapshot %d has version %d", i, snapshot.Version)
		}
	}
}

func TestListDueChecksFiltersStatusAndSchedule(t *testing.T) {
	repo := setupCheckRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-5 * time.Minute)
	due := createCheck(t, repo, "due")
	due.Status = check.StatusActive
	due.NextRunAt = &past
	if err := repo.UpdateCheck(ctx, due); err != nil {
		t.Fatalf("update due: %v", err)
	}

	idle := createCheck(t, repo, "idle draft")
	idle.NextRunAt = &past
	if err := repo.UpdateCheck(ctx, idle); err != nil {
		t.Fatalf("update idle: %v", err)
	}

	rows, err := repo.ListDueChecks(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != due.ID {
		t.Fatalf("due rows = %+v", rows)
	}
}
