package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// ValidTaskStatus reports whether s is one of the three task states.
func ValidTaskStatus(s string) bool {
	return s == TaskStatusTodo || s == TaskStatusInProgress || s == TaskStatusDone
}

// ValidTaskPriority reports whether p is a known priority.
func ValidTaskPriority(p string) bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

// Task belongs to a project; assignees are drawn from the project's
// members at assignment time and are not re-validated afterwards.
type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	Description string         `gorm:"size:5000" json:"description"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Project     *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatorID   uint           `gorm:"index;not null" json:"creator_id"`
	Creator     *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignees   []User         `gorm:"many2many:task_assignees" json:"assignees,omitempty"`
	Status      string         `gorm:"size:20;default:todo;index" json:"status"`      // todo, in-progress, done
	Priority    string         `gorm:"size:20;default:medium;index" json:"priority"`  // low, medium, high
	Tags        []string       `gorm:"serializer:json" json:"tags,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Comments    []Comment      `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []Attachment   `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// TaskAssignee is the join row backing Task.Assignees. The composite
// unique index makes duplicate assignment a constraint violation instead
// of a read-then-write race.
type TaskAssignee struct {
	TaskID    uint      `gorm:"uniqueIndex:idx_task_user;not null" json:"task_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_task_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

// Comment is an ordered task annotation; deletion removes the row, there
// is no tombstone.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text      string    `gorm:"size:5000;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// Attachment records a blob already persisted by the storage collaborator;
// the task row is only touched after the upload produced a stable URL.
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     uint      `gorm:"index;not null" json:"task_id"`
	URL        string    `gorm:"size:1000;not null" json:"url"`
	Name       string    `gorm:"size:500" json:"name"`
	UploadedBy uint      `gorm:"not null" json:"uploaded_by"`
	Uploader   *User     `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (Attachment) TableName() string { return "attachments" }
