package review

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
	"postura/internal/infrastructure/messaging"
	"postura/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "postura/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "postura/internal/infrastructure/persistence/sqlite/uow"
	"postura/internal/ports"
)

type fixture struct {
	svc     *Service
	checks  ports.CheckRepository
	results ports.ResultRepository
	reviews ports.ReviewRepository
	events  *messaging.MemoryPublisher
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Check{},
		&model.Result{},
		&model.ReviewQueueItem{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	checks := sqliterepo.NewCheckRepository(db)
	results := sqliterepo.NewResultRepository(db)
	reviews := sqliterepo.NewReviewRepository(db)
	uow := sqliteuow.NewUnitOfWork(db)
	events := messaging.NewMemoryPublisher()

	return &fixture{
		svc:     NewService(checks, results, reviews, uow, events),
		checks:  checks,
		results: results,
		reviews: reviews,
		events:  events,
	}
}

func (f *fixture) seedResult(t *testing.T, withQueueItem bool) (ports.Result, ports.ReviewQueueItem) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	chk, err := f.checks.CreateCheck(ctx, ports.Check{
		ID:              uuid.NewString(),
		Name:            "seeded check",
		Type:            check.TypeManual,
		Status:          check.StatusActive,
		SeverityDefault: check.SeverityMedium,
		Frequency:       "PT1H",
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("seed check: %v", err)
	}

	result, err := f.results.CreateResult(ctx, ports.Result{
		ID:               uuid.NewString(),
		CheckID:          chk.ID,
		Status:           check.ResultPendingReview,
		Severity:         check.SeverityMedium,
		PublicationState: check.PublicationPending,
		ExecutedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}

	var item ports.ReviewQueueItem
	if withQueueItem {
		item, err = f.reviews.CreateItem(ctx, ports.ReviewQueueItem{
			ID:        uuid.NewString(),
			CheckID:   chk.ID,
			ResultID:  result.ID,
			State:     check.ReviewOpen,
			Priority:  check.PriorityMedium,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("seed queue item: %v", err)
		}
	}
	return result, item
}

func TestPublishResultFinalizes(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	result, item := f.seedResult(t, true)

	published, err := f.svc.PublishResult(ctx, result.ID, PublishResultInput{
		Severity: "HIGH",
		Notes:    "verified by hand",
		Actor:    "dana",
	})
	if err != nil {
		t.Fatalf("publish result: %v", err)
	}

	if published.PublicationState != string(check.PublicationPublished) {
		t.Fatalf("publication = %s, want PUBLISHED", published.PublicationState)
	}
	if published.PublishedAt == nil || published.ValidatedAt == nil {
		t.Fatal("publish must stamp publishedAt and validatedAt")
	}
	if published.Severity != "HIGH" || published.Notes != "verified by hand" {
		t.Fatalf("overrides not applied: %+v", published)
	}

	// The attached queue item completes in the same transaction.
	stored, err := f.reviews.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if stored.State != check.ReviewCompleted {
		t.Fatalf("item state = %s, want COMPLETED", stored.State)
	}
	if stored.CompletedAt == nil {
		t.Fatal("completedAt not stamped")
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].Topic != ports.TopicCheckPublished {
		t.Fatalf("events = %+v, want one %s", events, ports.TopicCheckPublished)
	}

	// Publication is one-way.
	if _, err := f.svc.PublishResult(ctx, result.ID, PublishResultInput{}); !errors.Is(err, check.ErrInvalidState) {
		t.Fatalf("double publish: err = %v, want ErrInvalidState", err)
	}
}

func TestPublishResultWithoutQueueItem(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	result, _ := f.seedResult(t, false)
	published, err := f.svc.PublishResult(ctx, result.ID, PublishResultInput{})
	if err != nil {
		t.Fatalf("publish without queue item: %v", err)
	}
	if published.PublicationState != string(check.PublicationPublished) {
		t.Fatalf("publication = %s, want PUBLISHED", published.PublicationState)
	}
}

func TestCompleteReviewValidates(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, item := f.seedResult(t, true)

	out, err := f.svc.CompleteReviewTask(ctx, item.ID, ReviewDecisionInput{
		Status:   "PASS",
		Notes:    "evidence checks out",
		Reviewer: "erin",
	})
	if err != nil {
		t.Fatalf("complete review: %v", err)
	}

	if out.Item.State != string(check.ReviewCompleted) {
		t.Fatalf("item state = %s, want COMPLETED", out.Item.State)
	}
	if out.Result.Status != string(check.ResultPass) {
		t.Fatalf("result status = %s, want PASS", out.Result.Status)
	}
	if out.Result.PublicationState != string(check.PublicationValidated) {
		t.Fatalf("publication = %s, want VALIDATED without publish flag", out.Result.PublicationState)
	}
	if out.Result.ValidatedAt == nil {
		t.Fatal("validatedAt not stamped")
	}
	if out.Result.PublishedAt != nil {
		t.Fatalf("publishedAt = %v, want nil", out.Result.PublishedAt)
	}
	if out.Item.Metadata["reviewer"] != "erin" {
		t.Fatalf("metadata = %+v, want reviewer recorded", out.Item.Metadata)
	}

	if events := f.events.Events(); len(events) != 0 {
		t.Fatalf("events = %+v, want none without publish", events)
	}

	// Completing twice is rejected.
	if _, err := f.svc.CompleteReviewTask(ctx, item.ID, ReviewDecisionInput{Reviewer: "erin"}); !errors.Is(err, check.ErrInvalidState) {
		t.Fatalf("double complete: err = %v, want ErrInvalidState", err)
	}
}

func TestCompleteReviewPublishes(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, item := f.seedResult(t, true)

	out, err := f.svc.CompleteReviewTask(ctx, item.ID, ReviewDecisionInput{
		Status:   "FAIL",
		Severity: "CRITICAL",
		Reviewer: "frank",
		Publish:  true,
	})
	if err != nil {
		t.Fatalf("complete with publish: %v", err)
	}

	if out.Result.PublicationState != string(check.PublicationPublished) {
		t.Fatalf("publication = %s, want PUBLISHED", out.Result.PublicationState)
	}
	if out.Result.PublishedAt == nil {
		t.Fatal("publishedAt not stamped")
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].Topic != ports.TopicCheckPublished {
		t.Fatalf("events = %+v, want one %s", events, ports.TopicCheckPublished)
	}
	payload, ok := events[0].Payload.(ports.CheckPublishedEvent)
	if !ok {
		t.Fatalf("payload type %T", events[0].Payload)
	}
	if payload.ResultID != out.Result.ID || payload.Severity != "CRITICAL" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestClaimReviewTask(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, item := f.seedResult(t, true)

	claimed, err := f.svc.ClaimReviewTask(ctx, item.ID, "gus")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.State != string(check.ReviewInProgress) {
		t.Fatalf("state = %s, want IN_PROGRESS", claimed.State)
	}
	if claimed.AssignedTo == nil || *claimed.AssignedTo != "gus" {
		t.Fatalf("assignee = %v, want gus", claimed.AssignedTo)
	}

	// Reclaiming an in-progress task reassigns it.
	reclaimed, err := f.svc.ClaimReviewTask(ctx, item.ID, "hana")
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed.AssignedTo == nil || *reclaimed.AssignedTo != "hana" {
		t.Fatalf("assignee = %v, want hana", reclaimed.AssignedTo)
	}

	if _, err := f.svc.ClaimReviewTask(ctx, item.ID, "  "); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("blank assignee: err = %v, want ErrValidation", err)
	}

	if _, err := f.svc.CompleteReviewTask(ctx, item.ID, ReviewDecisionInput{Status: "PASS", Reviewer: "hana"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.ClaimReviewTask(ctx, item.ID, "ivan"); !errors.Is(err, check.ErrInvalidState) {
		t.Fatalf("claim completed: err = %v, want ErrInvalidState", err)
	}
}

func TestListReviewQueueFilters(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, first := f.seedResult(t, true)
	_, second := f.seedResult(t, true)

	if _, err := f.svc.ClaimReviewTask(ctx, first.ID, "gus"); err != nil {
		t.Fatalf("claim first: %v", err)
	}

	open, err := f.svc.ListReviewQueue(ctx, ListQueueInput{State: "OPEN"})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if open.Total != 1 || open.Items[0].ID != second.ID {
		t.Fatalf("open filter returned %+v", open.Items)
	}

	mine, err := f.svc.ListReviewQueue(ctx, ListQueueInput{AssignedTo: "gus"})
	if err != nil {
		t.Fatalf("list by assignee: %v", err)
	}
	if mine.Total != 1 || mine.Items[0].ID != first.ID {
		t.Fatalf("assignee filter returned %+v", mine.Items)
	}
}
