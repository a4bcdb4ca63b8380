package repository

import (
	"testing"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/testutil"
)

func TestRepository_ProjectStats(t *testing.T) {
	ctx, repo := newMigratedRepository(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("projects"))
	other := testutil.NewTestUser(t, testutil.UniqueEmail("other"))
	for _, u := range []*model.User{user, other} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	base := time.Now().UTC().Add(-time.Hour)
	statuses := []model.ProcessingStatus{
		model.StatusCompleted,
		model.StatusPending,
		model.StatusCompleted,
		model.StatusFailed,
		model.StatusProcessing,
		model.StatusCompleted,
		model.StatusCompleted,
	}
	var newest *model.Project
	for i, status := range statuses {
		p := testutil.NewTestProject(t, user.ID, status, base.Add(time.Duration(i)*time.Minute))
		if err := testutil.InsertProject(ctx, repo.Pool(), p); err != nil {
			t.Fatalf("insert project: %v", err)
		}
		newest = p
	}
	if err := testutil.InsertProject(ctx, repo.Pool(), testutil.NewTestProject(t, other.ID, model.StatusCompleted, base)); err != nil {
		t.Fatalf("insert other project: %v", err)
	}

	total, completed, err := repo.CountProjects(ctx, user.ID)
	if err != nil {
		t.Fatalf("count projects: %v", err)
	}
	if total != 7 || completed != 4 {
		t.Errorf("expected 7/4, got %d/%d", total, completed)
	}

	recent, err := repo.ListRecentProjects(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent projects, got %d", len(recent))
	}
	if recent[0].ID != newest.ID {
		t.Errorf("expected newest project first, got %s", recent[0].ID)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Errorf("recent projects not ordered newest first at %d", i)
		}
	}
}
