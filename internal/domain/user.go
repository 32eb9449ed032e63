package domain

import (
	"time"
)

type Role string

const (
	RoleStaff   Role = "店员"
	RoleManager Role = "店长"
	RoleAdmin   Role = "总部管理员"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PositionID   *int64    `json:"positionID"` // 员工的主岗位，排班人数统计只按这个岗位计算；总部管理员没有岗位
	BranchID     *int64    `json:"branchID"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
