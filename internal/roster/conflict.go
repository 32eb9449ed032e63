package roster

import (
	"github.com/juhe-dining/roster/backend/internal/domain"
)

// conflictRelevant 判断一条已有排班在冲突检测中是否需要参与比较。
// 可计数状态的排班自然要参与；CONFLICTED 的排班也要参与，
// 这样同一个员工反复被安排到重叠时段时，每一条都会被标记出来。
func conflictRelevant(status domain.AssignmentStatus) bool {
	return status.Countable() || status == domain.AssignmentStatusConflicted
}

// HasConflict 判断候选时间段是否和 existing 中同一员工同一天的排班重叠。
// existing 应当是该员工当天的全部排班视图；excludeID 用于把某条排班
// 和它的同伴重新比较时排除自身，传 0 表示不排除。
// 函数没有副作用，可以在真正写入之前用来做预检。
func HasConflict(candStart, candEnd string, existing []*domain.AssignmentView, excludeID int64) (bool, error) {
	for _, view := range existing {
		if view.ID == excludeID {
			continue
		}
		if !conflictRelevant(view.Status) {
			continue
		}

		overlap, err := Overlaps(candStart, candEnd, view.StartTime, view.EndTime)
		if err != nil {
			return false, err
		}
		if overlap {
			return true, nil
		}
	}
	return false, nil
}
