package services

import (
	"testing"
	"time"

	"github.com/taskhive/backend/internal/models"
)

func TestDashboardStats_PartitionsAssignedTasks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	project := env.project(t, alice, "Core")
	env.addMember(t, project, alice, bob)

	first := env.task(t, project, alice, "one")
	second := env.task(t, project, alice, "two")
	third := env.task(t, project, alice, "three")
	for _, task := range []*models.Task{first, second, third} {
		if _, err := env.tasks.Assign(task.ID, bob.ID, actorOf(alice)); err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
	}
	if _, err := env.tasks.UpdateStatus(first.ID, models.TaskStatusDone, actorOf(bob)); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	stats, err := env.dashboard.Stats(bob.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.AssignedTasks != 3 {
		t.Errorf("AssignedTasks = %d, expected 3", stats.AssignedTasks)
	}
	if stats.CompletedTasks != 1 {
		t.Errorf("CompletedTasks = %d, expected 1", stats.CompletedTasks)
	}
	if stats.PendingTasks != 2 {
		t.Errorf("PendingTasks = %d, expected 2", stats.PendingTasks)
	}
	if stats.CompletedTasks+stats.PendingTasks != stats.AssignedTasks {
		t.Error("completed + pending must equal assigned")
	}
}

func TestDashboardStats_CountsProjectsAndCreations(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	env.project(t, alice, "Owned")
	joined := env.project(t, bob, "Joined")
	env.addMember(t, joined, bob, alice)
	env.task(t, joined, alice, "fresh")

	stats, err := env.dashboard.Stats(alice.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalProjects != 2 {
		t.Errorf("TotalProjects = %d, expected 2", stats.TotalProjects)
	}
	if stats.CreatedTasks != 1 {
		t.Errorf("CreatedTasks = %d, expected 1", stats.CreatedTasks)
	}
	if stats.TasksToday != 1 {
		t.Errorf("TasksToday = %d, expected 1", stats.TasksToday)
	}
	if stats.TasksThisWeek != 1 {
		t.Errorf("TasksThisWeek = %d, expected 1", stats.TasksThisWeek)
	}
	if stats.RecentActivity == 0 {
		t.Error("RecentActivity should count the caller's recent actions")
	}
}

func TestDashboardWindow(t *testing.T) {
	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	today, weekAgo := dashboardWindow(now)

	if !today.Equal(time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today = %v, expected UTC midnight", today)
	}
	if !weekAgo.Equal(now.Add(-168 * time.Hour)) {
		t.Errorf("weekAgo = %v, expected 168h before now", weekAgo)
	}
}
