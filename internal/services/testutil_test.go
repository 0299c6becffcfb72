package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// inlineQueue persists entries on the caller's goroutine so tests can
// assert on activity rows without waiting.
type inlineQueue struct {
	processor func(context.Context, *ActivityEntry) error
}

func (q *inlineQueue) Enqueue(entry *ActivityEntry) error {
	if q.processor == nil {
		return nil
	}
	return q.processor(context.Background(), entry)
}

func (q *inlineQueue) IsAsync() bool { return false }
func (q *inlineQueue) Close() error  { return nil }

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.SetupJoinTable(&models.Project{}, "Members", &models.ProjectMember{}); err != nil {
		t.Fatalf("setup project join table: %v", err)
	}
	if err := db.SetupJoinTable(&models.Task{}, "Assignees", &models.TaskAssignee{}); err != nil {
		t.Fatalf("setup task join table: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.JoinRequest{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.Comment{},
		&models.Attachment{},
		&models.Activity{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// testEnv wires the service graph against an in-memory database.
type testEnv struct {
	db         *gorm.DB
	authz      *AuthzService
	activity   *ActivityService
	projects   *ProjectService
	membership *MembershipService
	tasks      *TaskService
	dashboard  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	queue := &inlineQueue{}
	activity := NewActivityService(db, queue)
	queue.processor = activity.Persist
	authz := NewAuthzService(db)

	return &testEnv{
		db:         db,
		authz:      authz,
		activity:   activity,
		projects:   NewProjectService(db, authz, activity),
		membership: NewMembershipService(db, authz, activity),
		tasks:      NewTaskService(db, authz, activity),
		dashboard:  NewDashboardService(db, activity),
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()

	user := models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hashed",
		Role:     models.RoleUser,
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &user
}

func (e *testEnv) admin(t *testing.T, name string) *models.User {
	t.Helper()

	user := e.user(t, name)
	if err := e.db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote %s: %v", name, err)
	}
	user.Role = models.RoleAdmin
	return user
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) project(t *testing.T, owner *models.User, name string) *models.Project {
	t.Helper()

	project, err := e.projects.Create(&CreateProjectRequest{Name: name}, actorOf(owner))
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return project
}

func (e *testEnv) addMember(t *testing.T, project *models.Project, owner, target *models.User) {
	t.Helper()

	if _, err := e.membership.AddMember(project.ID, target.ID, actorOf(owner)); err != nil {
		t.Fatalf("add member %s: %v", target.Username, err)
	}
}

func (e *testEnv) task(t *testing.T, project *models.Project, creator *models.User, title string) *models.Task {
	t.Helper()

	task, err := e.tasks.Create(&CreateTaskRequest{Title: title, ProjectID: project.ID}, actorOf(creator))
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

func wantAppError(t *testing.T, err error, status int) {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	if appErr.HTTPStatus != status {
		t.Errorf("HTTPStatus = %d, expected %d (%s)", appErr.HTTPStatus, status, appErr.Message)
	}
}
