package services

import (
	"net/http"
	"testing"

	"github.com/taskhive/backend/internal/models"
)

func TestProjectCreate_OwnerBecomesMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")

	project := env.project(t, owner, "Website Redesign")

	if project.OwnerID != owner.ID {
		t.Errorf("OwnerID = %d, expected %d", project.OwnerID, owner.ID)
	}

	member, err := env.authz.IsMember(project.ID, owner.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !member {
		t.Error("owner should be a member immediately after creation")
	}
}

func TestProjectGetByID_NonMemberForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	stranger := env.user(t, "bob")
	project := env.project(t, owner, "Internal Tools")

	if _, err := env.projects.GetByID(project.ID, actorOf(owner)); err != nil {
		t.Errorf("owner GetByID() error = %v", err)
	}

	_, err := env.projects.GetByID(project.ID, actorOf(stranger))
	wantAppError(t, err, http.StatusForbidden)
}

func TestProjectGetByID_AdminNotExempt(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	admin := env.admin(t, "root")
	project := env.project(t, owner, "Secret Roadmap")

	_, err := env.projects.GetByID(project.ID, actorOf(admin))
	wantAppError(t, err, http.StatusForbidden)
}

func TestProjectUpdate_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	member := env.user(t, "bob")
	project := env.project(t, owner, "Old Name")
	env.addMember(t, project, owner, member)

	newName := "New Name"
	_, err := env.projects.Update(project.ID, &UpdateProjectRequest{Name: newName}, actorOf(member))
	wantAppError(t, err, http.StatusForbidden)

	updated, err := env.projects.Update(project.ID, &UpdateProjectRequest{Name: newName}, actorOf(owner))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != newName {
		t.Errorf("Name = %q, expected %q", updated.Name, newName)
	}
}

func TestProjectDelete_NonCascading(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	project := env.project(t, owner, "Doomed")
	task := env.task(t, project, owner, "orphan-to-be")

	if err := env.projects.Delete(project.ID, actorOf(owner)); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := env.projects.GetByID(project.ID, actorOf(owner))
	wantAppError(t, err, http.StatusNotFound)

	var count int64
	if err := env.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if count != 1 {
		t.Errorf("task count = %d, expected 1 (delete must not cascade)", count)
	}
}

func TestProjectListMine_IncludesMemberships(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	owned := env.project(t, alice, "Owned By Alice")
	joined := env.project(t, bob, "Owned By Bob")
	env.addMember(t, joined, bob, alice)
	env.project(t, bob, "Not Alice's Business")

	resp, err := env.projects.ListMine(&ProjectListRequest{}, actorOf(alice))
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}

	if resp.Total != 2 {
		t.Fatalf("Total = %d, expected 2", resp.Total)
	}
	ids := map[uint]bool{}
	for _, p := range resp.Items {
		ids[p.ID] = true
	}
	if !ids[owned.ID] || !ids[joined.ID] {
		t.Errorf("expected projects %d and %d, got %v", owned.ID, joined.ID, ids)
	}
}

func TestProjectListMine_SearchIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	env.project(t, alice, "Backend Rewrite")
	env.project(t, alice, "Design System")

	resp, err := env.projects.ListMine(&ProjectListRequest{Search: "backEND"}, actorOf(alice))
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, expected 1", resp.Total)
	}
	if resp.Items[0].Name != "Backend Rewrite" {
		t.Errorf("Name = %q, expected %q", resp.Items[0].Name, "Backend Rewrite")
	}
}

func TestProjectListPublic_CountsMembers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	project := env.project(t, alice, "Open Source Push")
	env.addMember(t, project, alice, bob)

	resp, err := env.projects.ListPublic(&ProjectListRequest{})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, expected 1", resp.Total)
	}
	if resp.Items[0].MembersCount != 2 {
		t.Errorf("MembersCount = %d, expected 2", resp.Items[0].MembersCount)
	}
}

func TestProjectPagination_Defaults(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	for i := 0; i < 12; i++ {
		env.project(t, alice, "Project")
	}

	resp, err := env.projects.ListMine(&ProjectListRequest{}, actorOf(alice))
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if resp.Page != 1 || resp.Limit != 10 {
		t.Errorf("Page/Limit = %d/%d, expected 1/10", resp.Page, resp.Limit)
	}
	if len(resp.Items) != 10 {
		t.Errorf("len(Items) = %d, expected 10", len(resp.Items))
	}
	if resp.TotalPage != 2 {
		t.Errorf("TotalPage = %d, expected 2", resp.TotalPage)
	}
}
