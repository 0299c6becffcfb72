package models

import "time"

// Activity is an append-only audit record of a mutating action against a
// project or task. Rows are never updated; the only deletion path is the
// optional retention sweep.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	TaskID    *uint     `json:"task_id,omitempty"`
	Task      *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string    `gorm:"size:500;not null" json:"action"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }
