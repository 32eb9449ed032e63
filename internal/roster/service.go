package roster

import (
	"database/sql"
	"errors"
	"slices"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

// Store 是排班核心对存储层的依赖。*repository.Repository 实现了这个接口；
// 唯一性约束（模板+门店+日期、班次+员工）由存储层在插入时原子保证，
// 违反时返回 domain 中对应的哨兵错误，找不到记录时返回 sql.ErrNoRows。
type Store interface {
	BranchExists(id int64) (bool, error)

	GetShiftTemplate(id int64) (*domain.ShiftTemplate, error)
	ListActiveShiftTemplates(branchID int64, weekday int32) ([]*domain.ShiftTemplate, error)

	CreateShiftOccurrence(occ *domain.ShiftOccurrence) error
	GetShiftOccurrence(id int64) (*domain.ShiftOccurrence, error)
	GetShiftOccurrenceByKey(templateID int64, branchID int64, date string) (*domain.ShiftOccurrence, error)
	ListShiftOccurrences(branchID int64, startDate, endDate string) ([]*domain.ShiftOccurrence, error)
	DeleteShiftOccurrence(id int64) (int, error)

	CreateAssignment(a *domain.StaffAssignment) error
	GetAssignment(id int64) (*domain.StaffAssignment, error)
	DeleteAssignment(id int64) error
	UpdateAssignmentStatus(a *domain.StaffAssignment) error
	ListAssignmentsByOccurrence(occurrenceID int64) ([]*domain.AssignmentView, error)
	ListAssignmentsForUserOnDate(userID int64, date string) ([]*domain.AssignmentView, error)
	ListAssignmentViews(branchID int64, startDate, endDate string) ([]*domain.AssignmentView, error)
	ListAssignmentsForUserInRange(userID int64, startDate, endDate string) ([]*domain.AssignmentView, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateOccurrenceInput struct {
	TemplateID   *int64
	BranchID     int64
	Date         string
	StartTime    string
	EndTime      string
	Requirements []domain.PositionRequirement
}

// CreateOccurrence 把模板实例化成某一天的具体班次。
// 从模板创建时要求模板启用且当天适用；TemplateID 为 nil 时是临时加开的班次，
// 跳过模板检查，直接使用传入的时间段和岗位要求。
// 同一 (模板, 门店, 日期) 重复创建会返回 domain.ErrDuplicateOccurrence，
// 靠存储层的唯一约束兜底，并发创建也不会出现两条记录。
func (s *Service) CreateOccurrence(input *CreateOccurrenceInput) (*domain.ShiftOccurrence, error) {
	occ := &domain.ShiftOccurrence{
		TemplateID: input.TemplateID,
		BranchID:   input.BranchID,
		Date:       input.Date,
	}

	if input.TemplateID != nil {
		template, err := s.store.GetShiftTemplate(*input.TemplateID)
		if err != nil {
			return nil, err
		}
		if template.BranchID != input.BranchID {
			return nil, domain.ErrTemplateWrongBranch
		}
		if template.Status != domain.TemplateStatusActive {
			return nil, domain.ErrTemplateInactive
		}

		weekday, err := Weekday(input.Date)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(template.ApplicableDays, weekday) {
			return nil, domain.ErrDayNotApplicable
		}

		occ.StartTime = template.StartTime
		occ.EndTime = template.EndTime
		// 按值快照模板的岗位要求，之后修改模板不影响已排好的班次
		occ.Requirements = slices.Clone(template.Requirements)
	} else {
		if _, err := ParseClock(input.StartTime); err != nil {
			return nil, err
		}
		if _, err := ParseClock(input.EndTime); err != nil {
			return nil, err
		}
		occ.StartTime = input.StartTime
		occ.EndTime = input.EndTime
		occ.Requirements = slices.Clone(input.Requirements)
	}

	if err := s.store.CreateShiftOccurrence(occ); err != nil {
		return nil, err
	}
	return occ, nil
}

// DeleteOccurrence 删除班次并级联删除它的所有排班记录，返回删除的排班数量。
func (s *Service) DeleteOccurrence(id int64) (int, error) {
	return s.store.DeleteShiftOccurrence(id)
}

// Assign 把员工安排到某个班次，初始状态为 DRAFT。
// strict 为 true 时，如果会产生时间冲突则直接拒绝；默认路径容忍冲突，
// 插入之后重新评估该员工当天的排班，把冲突的记录标记为 CONFLICTED。
func (s *Service) Assign(occurrenceID, userID int64, note string, strict bool) (*domain.StaffAssignment, error) {
	occ, err := s.store.GetShiftOccurrence(occurrenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOccurrenceNotFound
		}
		return nil, err
	}

	if strict {
		peers, err := s.store.ListAssignmentsForUserOnDate(userID, occ.Date)
		if err != nil {
			return nil, err
		}
		conflict, err := HasConflict(occ.StartTime, occ.EndTime, peers, 0)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrConflictDetected
		}
	}

	assignment := &domain.StaffAssignment{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		Note:         note,
		Status:       domain.AssignmentStatusDraft,
	}
	if err := s.store.CreateAssignment(assignment); err != nil {
		return nil, err
	}

	if err := s.refreshConflicts(userID, occ.Date); err != nil {
		return nil, err
	}

	// 重新评估之后新插入的记录可能已经变成 CONFLICTED，返回最新状态
	return s.store.GetAssignment(assignment.ID)
}

// refreshConflicts 重新评估某个员工某一天的排班，
// 把和其他参与比较的排班重叠的 DRAFT/PENDING/PUBLISHED 记录标记为 CONFLICTED。
// CONFLICTED 不会在这里自动恢复，恢复只能由店长显式改回 DRAFT。
func (s *Service) refreshConflicts(userID int64, date string) error {
	views, err := s.store.ListAssignmentsForUserOnDate(userID, date)
	if err != nil {
		return err
	}

	for _, view := range views {
		switch view.Status {
		case domain.AssignmentStatusDraft, domain.AssignmentStatusPending, domain.AssignmentStatusPublished:
		default:
			continue
		}

		conflict, err := HasConflict(view.StartTime, view.EndTime, views, view.ID)
		if err != nil {
			return err
		}
		if !conflict {
			continue
		}

		view.Status = domain.AssignmentStatusConflicted
		if err := s.store.UpdateAssignmentStatus(&view.StaffAssignment); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAssignment 删除一条排班记录。
// DRAFT 和 PENDING 可以直接删除；REQUEST_CHANGE、CONFLICTED 以及请假相关
// 状态需要店长确认（managerOverride）；PUBLISHED 的排班员工已经能看到，
// 必须先改回 DRAFT（撤回发布）才能删除，不允许悄悄消失。
func (s *Service) DeleteAssignment(id int64, managerOverride bool) error {
	assignment, err := s.store.GetAssignment(id)
	if err != nil {
		return err
	}

	switch assignment.Status {
	case domain.AssignmentStatusDraft, domain.AssignmentStatusPending:
	case domain.AssignmentStatusPublished:
		return domain.ErrInvalidTransition
	default:
		if !managerOverride {
			return domain.ErrInvalidTransition
		}
	}

	return s.store.DeleteAssignment(id)
}

// UpdateAssignmentStatus 处理显式的状态变更：
//   - 任何状态都可以由店长改回 DRAFT（包括撤回发布）；
//   - 任何状态都可以由员工发起 REQUEST_CHANGE；
//   - DRAFT 可以改成 PENDING；
//   - DRAFT/PENDING 可以单条直接发布成 PUBLISHED，但要求当时没有冲突；
//   - CONFLICTED 和请假相关状态只能由系统流转，不允许手动设置。
func (s *Service) UpdateAssignmentStatus(id int64, next domain.AssignmentStatus) (*domain.StaffAssignment, error) {
	if !next.Valid() {
		return nil, domain.ErrInvalidTransition
	}

	assignment, err := s.store.GetAssignment(id)
	if err != nil {
		return nil, err
	}

	switch next {
	case domain.AssignmentStatusDraft, domain.AssignmentStatusRequestChange:
	case domain.AssignmentStatusPending:
		if assignment.Status != domain.AssignmentStatusDraft {
			return nil, domain.ErrInvalidTransition
		}
	case domain.AssignmentStatusPublished:
		if assignment.Status != domain.AssignmentStatusDraft && assignment.Status != domain.AssignmentStatusPending {
			return nil, domain.ErrInvalidTransition
		}

		occ, err := s.store.GetShiftOccurrence(assignment.OccurrenceID)
		if err != nil {
			return nil, err
		}
		peers, err := s.store.ListAssignmentsForUserOnDate(assignment.UserID, occ.Date)
		if err != nil {
			return nil, err
		}
		conflict, err := HasConflict(occ.StartTime, occ.EndTime, peers, assignment.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrConflictDetected
		}
	default:
		return nil, domain.ErrInvalidTransition
	}

	assignment.Status = next
	if err := s.store.UpdateAssignmentStatus(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *Service) GetAssignment(id int64) (*domain.StaffAssignment, error) {
	return s.store.GetAssignment(id)
}

// EvaluateOccurrence 统计某个班次的岗位人数满足情况。
// 纯读操作，幂等，可以任意频率调用（用于实时缺口展示）。
func (s *Service) EvaluateOccurrence(occurrenceID int64) (*Fulfillment, error) {
	occ, err := s.store.GetShiftOccurrence(occurrenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOccurrenceNotFound
		}
		return nil, err
	}

	views, err := s.store.ListAssignmentsByOccurrence(occurrenceID)
	if err != nil {
		return nil, err
	}

	return EvaluateFulfillment(occ, views), nil
}

// ConflictPreview 在不写入任何数据的情况下预检一个候选时间段是否会冲突。
func (s *Service) ConflictPreview(userID int64, date, startTime, endTime string, excludeAssignmentID int64) (bool, error) {
	views, err := s.store.ListAssignmentsForUserOnDate(userID, date)
	if err != nil {
		return false, err
	}
	return HasConflict(startTime, endTime, views, excludeAssignmentID)
}

// ListGroupedAssignments 返回 岗位 -> 员工 -> 日期 的展示用分组投影。
func (s *Service) ListGroupedAssignments(branchID int64, startDate, endDate string) (GroupedAssignments, error) {
	if err := s.requireBranch(branchID); err != nil {
		return nil, err
	}
	views, err := s.store.ListAssignmentViews(branchID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return GroupAssignments(views), nil
}

// ListOccurrences 列出门店在一个日期区间内的所有班次。
func (s *Service) ListOccurrences(branchID int64, startDate, endDate string) ([]*domain.ShiftOccurrence, error) {
	if err := s.requireBranch(branchID); err != nil {
		return nil, err
	}
	return s.store.ListShiftOccurrences(branchID, startDate, endDate)
}

// requireBranch 确保门店存在。传错门店 ID 应该得到明确的错误，
// 而不是一个看起来正常的空列表。
func (s *Service) requireBranch(branchID int64) error {
	exists, err := s.store.BranchExists(branchID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrBranchNotFound
	}
	return nil
}
