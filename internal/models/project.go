package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is the unit of collaboration. The owner is fixed at creation and
// is always present in the members set; membership rows live in
// project_members (see ProjectMember).
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"size:2000" json:"description"`
	OwnerID     uint           `gorm:"index;not null" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members     []User         `gorm:"many2many:project_members" json:"members,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// ProjectMember is the join row backing Project.Members. The composite
// unique index makes "add member if absent" a single conditional insert.
type ProjectMember struct {
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }

// PublicProject is the reduced projection served on the public listing:
// member identities are collapsed to a count.
type PublicProject struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Owner        *UserSummary `json:"owner,omitempty"`
	MembersCount int          `json:"members_count"`
	CreatedAt    time.Time    `json:"created_at"`
}
