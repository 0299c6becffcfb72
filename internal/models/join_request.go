package models

import "time"

const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// JoinRequest is a proposal by a non-member to join a project. It moves
// from pending to approved or rejected and never reopens. At most one
// pending request exists per (project, user) pair; terminal requests do
// not block a new one.
type JoinRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index:idx_jr_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"index:idx_jr_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string    `gorm:"size:20;default:pending;index" json:"status"` // pending, approved, rejected
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (JoinRequest) TableName() string { return "join_requests" }

// Terminal reports whether the request reached a final state.
func (r *JoinRequest) Terminal() bool {
	return r.Status != JoinRequestPending
}
