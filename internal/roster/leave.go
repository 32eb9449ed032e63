package roster

import (
	"github.com/juhe-dining/roster/backend/internal/domain"
)

// ApplyLeaveApproved 处理请假审批通过事件：
// 请假区间内该员工所有可计数状态的排班，按余额是否足够转成
// APPROVED_LEAVE_VALID 或 APPROVED_LEAVE_EXCEEDED。
// 余额判断完全信任请假子系统给出的 BalanceSufficient，返回受影响的排班数。
func (s *Service) ApplyLeaveApproved(evt *domain.LeaveApprovedEvent) (int, error) {
	views, err := s.store.ListAssignmentsForUserInRange(evt.UserID, evt.StartDate, evt.EndDate)
	if err != nil {
		return 0, err
	}

	next := domain.AssignmentStatusLeaveValid
	if !evt.BalanceSufficient {
		next = domain.AssignmentStatusLeaveExceeded
	}

	affected := 0
	for _, view := range views {
		if !view.Status.Countable() {
			continue
		}
		view.Status = next
		if err := s.store.UpdateAssignmentStatus(&view.StaffAssignment); err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

// ApplyLeaveCancelled 处理请假取消事件：
// 区间内因请假被标记的排班改回 DRAFT，需要店长重新发布。
func (s *Service) ApplyLeaveCancelled(evt *domain.LeaveCancelledEvent) (int, error) {
	views, err := s.store.ListAssignmentsForUserInRange(evt.UserID, evt.StartDate, evt.EndDate)
	if err != nil {
		return 0, err
	}

	affected := 0
	for _, view := range views {
		if view.Status != domain.AssignmentStatusLeaveValid && view.Status != domain.AssignmentStatusLeaveExceeded {
			continue
		}
		view.Status = domain.AssignmentStatusDraft
		if err := s.store.UpdateAssignmentStatus(&view.StaffAssignment); err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}
