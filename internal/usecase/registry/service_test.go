package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"postura/internal/domain/check"
	"postura/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "postura/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "postura/internal/infrastructure/persistence/sqlite/uow"
)

func setupService(t *testing.T) *Service {
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
		&model.Control{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	checks := sqliterepo.NewCheckRepository(db)
	controls := sqliterepo.NewControlRepository(db)
	uow := sqliteuow.NewUnitOfWork(db)
	return NewService(checks, controls, uow)
}

func mustCreateControl(t *testing.T, svc *Service, name string, tier string) ControlView {
	t.Helper()

	control, err := svc.CreateControl(context.Background(), CreateControlInput{
		Name:     name,
		RiskTier: tier,
	})
	if err != nil {
		t.Fatalf("create control %s: %v", name, err)
	}
	return control
}

func TestCreateCheckDefaultsAndSnapshot(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	control := mustCreateControl(t, svc, "encryption at rest", "")

	detail, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:      "kms key rotation",
		Frequency: "PT6H",
		Links: []ControlLinkInput{
			{ControlID: control.ID},
		},
		Actor: "alice",
	})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}

	if detail.Status != string(check.StatusDraft) {
		t.Fatalf("status = %s, want DRAFT", detail.Status)
	}
	if detail.Type != string(check.TypeAutomated) {
		t.Fatalf("type = %s, want AUTOMATED", detail.Type)
	}
	if detail.SeverityDefault != string(check.SeverityMedium) {
		t.Fatalf("severity = %s, want MEDIUM", detail.SeverityDefault)
	}
	if detail.Version != 1 {
		t.Fatalf("version = %d, want 1", detail.Version)
	}

	if len(detail.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(detail.Links))
	}
	if detail.Links[0].Weight != 1 {
		t.Fatalf("link weight = %v, want default 1", detail.Links[0].Weight)
	}
	if detail.Links[0].EnforcementLevel != string(check.EnforcementRecommended) {
		t.Fatalf("link level = %s, want RECOMMENDED", detail.Links[0].EnforcementLevel)
	}

	if len(detail.Versions) != 1 {
		t.Fatalf("version snapshots = %d, want 1", len(detail.Versions))
	}
	if detail.Versions[0].Actor != "alice" {
		t.Fatalf("snapshot actor = %s, want alice", detail.Versions[0].Actor)
	}
}

func TestCreateCheckValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.CreateCheck(ctx, CreateCheckInput{Name: "ab"}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("short name: err = %v, want ErrValidation", err)
	}

	if _, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:  "orphan link check",
		Links: []ControlLinkInput{{ControlID: "missing-control"}},
	}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("unknown control: err = %v, want ErrValidation", err)
	}

	control := mustCreateControl(t, svc, "access reviews", "")
	if _, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:  "bad weight check",
		Links: []ControlLinkInput{{ControlID: control.ID, Weight: -2}},
	}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("negative weight: err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:  "heavy weight check",
		Links: []ControlLinkInput{{ControlID: control.ID, Weight: 101}},
	}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("oversized weight: err = %v, want ErrValidation", err)
	}
}

func TestUpdateCheckLifecycle(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateCheck(ctx, CreateCheckInput{Name: "mfa enforced", Actor: "alice"})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}

	ready := string(check.StatusReadyForValidation)
	detail, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &ready, Actor: "bob"})
	if err != nil {
		t.Fatalf("move to ready: %v", err)
	}
	if detail.Status != ready {
		t.Fatalf("status = %s, want %s", detail.Status, ready)
	}
	if detail.Version != 2 {
		t.Fatalf("version = %d, want 2 after status change", detail.Version)
	}
	if len(detail.Versions) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(detail.Versions))
	}
	if detail.ReadyAt == nil {
		t.Fatal("readyAt not stamped on transition")
	}

	// Same-status patch is a no-op and does not bump the version.
	detail, err = svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &ready})
	if err != nil {
		t.Fatalf("same-status patch: %v", err)
	}
	if detail.Version != 2 {
		t.Fatalf("version = %d after same-status patch, want 2", detail.Version)
	}

	// DRAFT cannot jump straight to ACTIVE.
	second, err := svc.CreateCheck(ctx, CreateCheckInput{Name: "patch cadence"})
	if err != nil {
		t.Fatalf("create second check: %v", err)
	}
	active := string(check.StatusActive)
	if _, err := svc.UpdateCheck(ctx, second.ID, UpdateCheckInput{Status: &active}); !errors.Is(err, check.ErrInvalidTransition) {
		t.Fatalf("draft to active: err = %v, want ErrInvalidTransition", err)
	}

	var transition *check.InvalidTransitionError
	err = func() error {
		_, err := svc.UpdateCheck(ctx, second.ID, UpdateCheckInput{Status: &active})
		return err
	}()
	if !errors.As(err, &transition) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if transition.From != check.StatusDraft || transition.To != check.StatusActive {
		t.Fatalf("transition = %s -> %s, want DRAFT -> ACTIVE", transition.From, transition.To)
	}
}

func TestRetiredCheckIsTerminal(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateCheck(ctx, CreateCheckInput{Name: "legacy scanner"})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}

	ready := string(check.StatusReadyForValidation)
	if _, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &ready}); err != nil {
		t.Fatalf("move to ready: %v", err)
	}
	active := string(check.StatusActive)
	if _, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &active}); err != nil {
		t.Fatalf("move to active: %v", err)
	}

	retired := string(check.StatusRetired)
	if _, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &retired}); err != nil {
		t.Fatalf("retire: %v", err)
	}

	draft := string(check.StatusDraft)
	if _, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &draft}); !errors.Is(err, check.ErrInvalidTransition) {
		t.Fatalf("revive retired: err = %v, want ErrInvalidTransition", err)
	}

	// A same-status RETIRED patch stays a no-op.
	detail, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &retired})
	if err != nil {
		t.Fatalf("retired same-status patch: %v", err)
	}
	if detail.RetiredAt == nil {
		t.Fatal("retiredAt not stamped")
	}
}

func TestUpdateCheckReplacesLinksAndBumpFlag(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first := mustCreateControl(t, svc, "network segmentation", "")
	second := mustCreateControl(t, svc, "logging coverage", "")

	created, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:  "firewall baseline",
		Links: []ControlLinkInput{{ControlID: first.ID, Weight: 2}},
	})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}

	links := []ControlLinkInput{{ControlID: second.ID, Weight: 5, EnforcementLevel: "MANDATORY"}}
	detail, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Links: &links})
	if err != nil {
		t.Fatalf("replace links: %v", err)
	}
	if len(detail.Links) != 1 || detail.Links[0].ControlID != second.ID {
		t.Fatalf("links = %+v, want single link to %s", detail.Links, second.ID)
	}
	if detail.Version != 1 {
		t.Fatalf("version = %d, structural change must not bump", detail.Version)
	}

	detail, err = svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{BumpVersion: true, Actor: "alice"})
	if err != nil {
		t.Fatalf("forced bump: %v", err)
	}
	if detail.Version != 2 {
		t.Fatalf("version = %d after forced bump, want 2", detail.Version)
	}
}

func TestActivateCheck(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateCheck(ctx, CreateCheckInput{Name: "backup restore drill", Frequency: "PT1H"})
	if err != nil {
		t.Fatalf("create check: %v", err)
	}

	if _, err := svc.ActivateCheck(ctx, created.ID, "ops"); !errors.Is(err, check.ErrInvalidState) {
		t.Fatalf("activate from DRAFT: err = %v, want ErrInvalidState", err)
	}

	ready := string(check.StatusReadyForValidation)
	if _, err := svc.UpdateCheck(ctx, created.ID, UpdateCheckInput{Status: &ready}); err != nil {
		t.Fatalf("move to ready: %v", err)
	}

	detail, err := svc.ActivateCheck(ctx, created.ID, "ops")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if detail.Status != string(check.StatusActive) {
		t.Fatalf("status = %s, want ACTIVE", detail.Status)
	}
	if detail.ActivatedAt == nil || detail.ReadyAt == nil {
		t.Fatal("activation timestamps not stamped")
	}
	if detail.NextRunAt == nil {
		t.Fatal("activation must seed nextRunAt")
	}
	if detail.Version != 3 {
		t.Fatalf("version = %d, want 3 after two transitions", detail.Version)
	}
}

func TestListChecksFiltersAndCoverage(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	strong := mustCreateControl(t, svc, "data retention", "")
	weak := mustCreateControl(t, svc, "asset inventory", "")

	if _, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name:     "retention sweep",
		Severity: "HIGH",
		Links: []ControlLinkInput{
			{ControlID: strong.ID, EnforcementLevel: "MANDATORY"},
		},
	}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.CreateCheck(ctx, CreateCheckInput{
		Name: "inventory scan",
		Type: "MANUAL",
		Links: []ControlLinkInput{
			{ControlID: strong.ID, EnforcementLevel: "RECOMMENDED"},
			{ControlID: weak.ID, EnforcementLevel: "OPTIONAL"},
		},
	}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	listing, err := svc.ListChecks(ctx, ListChecksInput{})
	if err != nil {
		t.Fatalf("list checks: %v", err)
	}
	if listing.Total != 2 {
		t.Fatalf("total = %d, want 2", listing.Total)
	}
	if listing.Limit != 25 {
		t.Fatalf("limit = %d, want default 25", listing.Limit)
	}
	if listing.CountsByType["MANUAL"] != 1 || listing.CountsByType["AUTOMATED"] != 1 {
		t.Fatalf("counts by type = %v", listing.CountsByType)
	}

	// Coverage counts each control once, at its strongest link.
	if listing.ControlCoverage.Mandatory != 1 {
		t.Fatalf("mandatory coverage = %d, want 1", listing.ControlCoverage.Mandatory)
	}
	if listing.ControlCoverage.Recommended != 0 {
		t.Fatalf("recommended coverage = %d, want 0", listing.ControlCoverage.Recommended)
	}
	if listing.ControlCoverage.Optional != 1 {
		t.Fatalf("optional coverage = %d, want 1", listing.ControlCoverage.Optional)
	}

	filtered, err := svc.ListChecks(ctx, ListChecksInput{ControlID: weak.ID})
	if err != nil {
		t.Fatalf("filter by control: %v", err)
	}
	if filtered.Total != 1 || filtered.Items[0].Name != "inventory scan" {
		t.Fatalf("control filter returned %+v", filtered.Items)
	}

	searched, err := svc.ListChecks(ctx, ListChecksInput{Search: "retention"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if searched.Total != 1 || searched.Items[0].Name != "retention sweep" {
		t.Fatalf("search returned %+v", searched.Items)
	}
}

func TestCreateControlDefaultsRiskTier(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	control := mustCreateControl(t, svc, "vendor management", "")
	if control.RiskTier != string(check.RiskMedium) {
		t.Fatalf("risk tier = %s, want MEDIUM default", control.RiskTier)
	}

	if _, err := svc.CreateControl(ctx, CreateControlInput{Name: "  "}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("blank name: err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateControl(ctx, CreateControlInput{Name: "x tier", RiskTier: "EXTREME"}); !errors.Is(err, check.ErrValidation) {
		t.Fatalf("bad tier: err = %v, want ErrValidation", err)
	}
}
