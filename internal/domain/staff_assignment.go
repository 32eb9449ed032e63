package domain

import (
	"slices"
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusDraft         AssignmentStatus = "DRAFT"
	AssignmentStatusPending       AssignmentStatus = "PENDING"
	AssignmentStatusPublished     AssignmentStatus = "PUBLISHED"
	AssignmentStatusConflicted    AssignmentStatus = "CONFLICTED"
	AssignmentStatusRequestChange AssignmentStatus = "REQUEST_CHANGE"
	AssignmentStatusLeaveValid    AssignmentStatus = "APPROVED_LEAVE_VALID"
	AssignmentStatusLeaveExceeded AssignmentStatus = "APPROVED_LEAVE_EXCEEDED"
)

// countableStatuses 中的状态才会被计入岗位人数统计和冲突检测。
// REQUEST_CHANGE 只是员工发起的调班请求，不影响统计；CONFLICTED 和
// APPROVED_LEAVE_EXCEEDED 不计入人数，但同一员工的 CONFLICTED 记录
// 在检测新的冲突时仍然参与比较，保证重复的重叠安排都能被标记出来。
var countableStatuses = []AssignmentStatus{
	AssignmentStatusDraft,
	AssignmentStatusPending,
	AssignmentStatusPublished,
	AssignmentStatusLeaveValid,
}

func (s AssignmentStatus) Countable() bool {
	return slices.Contains(countableStatuses, s)
}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusDraft, AssignmentStatusPending, AssignmentStatusPublished,
		AssignmentStatusConflicted, AssignmentStatusRequestChange,
		AssignmentStatusLeaveValid, AssignmentStatusLeaveExceeded:
		return true
	}
	return false
}

type StaffAssignment struct {
	ID           int64            `json:"id"`
	OccurrenceID int64            `json:"occurrenceID"`
	UserID       int64            `json:"userID"`
	Note         string           `json:"note"`
	Status       AssignmentStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	Version      int32            `json:"-"`
}

// AssignmentView 是排班记录连同其班次信息的只读视图，
// 冲突检测、人数统计和分组展示都在这个视图上进行。
type AssignmentView struct {
	StaffAssignment
	BranchID   int64  `json:"branchID"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	PositionID int64  `json:"positionID"` // 员工的主岗位
}
