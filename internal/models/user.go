package models

import "time"

// User はアカウント情報（一般ユーザー・エージェント・管理者）
type User struct {
	ID        string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// UserRole はユーザーの役割
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

func (User) TableName() string {
	return "users"
}

// IsAgent reports whether the user can be assigned to property tours.
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent
}

// IsAdmin reports whether the user has administrative rights.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
