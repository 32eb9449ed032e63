package roster

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

type BulkAssignInput struct {
	BranchID     int64
	UserIDs      []int64
	StartDate    string
	EndDate      string
	TemplateID   *int64
	OccurrenceID *int64
	Note         string
}

// BulkAssignUnit 记录批量操作中单个 (员工, 日期) 的结果，
// 带上足够的上下文让调用方能给出精确的提示，而不是笼统的"操作失败"。
type BulkAssignUnit struct {
	UserID       int64  `json:"userID"`
	Date         string `json:"date"`
	OccurrenceID int64  `json:"occurrenceID,omitempty"`
	AssignmentID int64  `json:"assignmentID,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type BulkAssignReport struct {
	Created          []BulkAssignUnit `json:"created"`
	SkippedDuplicate []BulkAssignUnit `json:"skippedDuplicate"`
	Failed           []BulkAssignUnit `json:"failed"`
}

// BulkAssign 把一批员工批量安排到日期区间内的班次上。
// 每个 (员工, 日期) 单元独立提交，整个批次不是一个事务：
// 某一个单元撞上已有的重复排班，不应该影响批次里其他单元的成功。
// 目标班次不存在时会先从模板实例化；ctx 取消后，已提交的单元保持有效，
// 剩下的单元只是不再尝试。
func (s *Service) BulkAssign(ctx context.Context, input *BulkAssignInput) (*BulkAssignReport, error) {
	if err := s.requireBranch(input.BranchID); err != nil {
		return nil, err
	}

	report := &BulkAssignReport{
		Created:          make([]BulkAssignUnit, 0),
		SkippedDuplicate: make([]BulkAssignUnit, 0),
		Failed:           make([]BulkAssignUnit, 0),
	}

	// 指定了具体班次时直接往这个班次上排人，忽略日期区间
	if input.OccurrenceID != nil {
		occ, err := s.store.GetShiftOccurrence(*input.OccurrenceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrOccurrenceNotFound
			}
			return nil, err
		}

		for _, userID := range input.UserIDs {
			if ctx.Err() != nil {
				return report, nil
			}
			s.bulkAssignOne(report, occ, userID, input.Note)
		}
		return report, nil
	}

	if input.TemplateID == nil {
		return nil, errors.New("必须指定模板或者具体班次")
	}

	// 模板停用或者不属于这家门店，属于整个批次无法开始的错误，直接返回
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

	dates, err := DatesBetween(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	for _, date := range dates {
		if ctx.Err() != nil {
			return report, nil
		}

		weekday, err := Weekday(date)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(template.ApplicableDays, weekday) {
			for _, userID := range input.UserIDs {
				report.Failed = append(report.Failed, BulkAssignUnit{
					UserID: userID,
					Date:   date,
					Reason: domain.ErrDayNotApplicable.Error(),
				})
			}
			continue
		}

		occ, err := s.resolveOccurrence(*input.TemplateID, input.BranchID, date)
		if err != nil {
			for _, userID := range input.UserIDs {
				report.Failed = append(report.Failed, BulkAssignUnit{
					UserID: userID,
					Date:   date,
					Reason: err.Error(),
				})
			}
			continue
		}

		for _, userID := range input.UserIDs {
			if ctx.Err() != nil {
				return report, nil
			}
			s.bulkAssignOne(report, occ, userID, input.Note)
		}
	}

	return report, nil
}

func (s *Service) bulkAssignOne(report *BulkAssignReport, occ *domain.ShiftOccurrence, userID int64, note string) {
	unit := BulkAssignUnit{
		UserID:       userID,
		Date:         occ.Date,
		OccurrenceID: occ.ID,
	}

	assignment, err := s.Assign(occ.ID, userID, note, false)
	switch {
	case err == nil:
		unit.AssignmentID = assignment.ID
		report.Created = append(report.Created, unit)
	case errors.Is(err, domain.ErrDuplicateAssignment):
		report.SkippedDuplicate = append(report.SkippedDuplicate, unit)
	default:
		unit.Reason = err.Error()
		report.Failed = append(report.Failed, unit)
	}
}

// resolveOccurrence 查找 (模板, 门店, 日期) 对应的班次，不存在就实例化一个。
// 两个并发批次同时发现班次不存在时，唯一约束会让其中一个创建失败，
// 失败方重新查一次即可。
func (s *Service) resolveOccurrence(templateID, branchID int64, date string) (*domain.ShiftOccurrence, error) {
	occ, err := s.store.GetShiftOccurrenceByKey(templateID, branchID, date)
	if err == nil {
		return occ, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	occ, err = s.CreateOccurrence(&CreateOccurrenceInput{
		TemplateID: &templateID,
		BranchID:   branchID,
		Date:       date,
	})
	if err == nil {
		return occ, nil
	}
	if errors.Is(err, domain.ErrDuplicateOccurrence) {
		return s.store.GetShiftOccurrenceByKey(templateID, branchID, date)
	}
	return nil, err
}

type CopyWeekInput struct {
	BranchID         int64
	SourceWeekStart  string
	TargetWeekStarts []string
}

type CopyWeekReport struct {
	TotalCopied       int              `json:"totalCopied"`
	TotalSkipped      int              `json:"totalSkipped"`
	CopiedWeeks       []string         `json:"copiedWeeks"`
	SkippedDuplicates []string         `json:"skippedDuplicates"`
	Failed            []BulkAssignUnit `json:"failed"`
}

// CopyWeek 把源周的班次和排班复制到一个或多个目标周。
// 目标位置已经存在同一模板的班次时整个班次跳过，不合并也不覆盖：
// 覆盖店长在目标周已经做过的调整，比让他手动处理一个碰撞周的危害大得多。
// 复制出来的排班保留员工和备注，状态一律重置为 DRAFT。
func (s *Service) CopyWeek(ctx context.Context, input *CopyWeekInput) (*CopyWeekReport, error) {
	if err := s.requireBranch(input.BranchID); err != nil {
		return nil, err
	}

	sourceStart, err := WeekStart(input.SourceWeekStart)
	if err != nil {
		return nil, err
	}
	sourceEnd, err := AddDays(sourceStart, 6)
	if err != nil {
		return nil, err
	}

	sourceOccs, err := s.store.ListShiftOccurrences(input.BranchID, sourceStart, sourceEnd)
	if err != nil {
		return nil, err
	}

	report := &CopyWeekReport{
		CopiedWeeks:       make([]string, 0, len(input.TargetWeekStarts)),
		SkippedDuplicates: make([]string, 0),
		Failed:            make([]BulkAssignUnit, 0),
	}

	for _, target := range input.TargetWeekStarts {
		targetStart, err := WeekStart(target)
		if err != nil {
			return nil, err
		}
		offset, err := DaysBetween(sourceStart, targetStart)
		if err != nil {
			return nil, err
		}

		copiedAny := false
		for _, src := range sourceOccs {
			if ctx.Err() != nil {
				return report, nil
			}

			newDate, err := AddDays(src.Date, offset)
			if err != nil {
				return nil, err
			}

			newOcc := &domain.ShiftOccurrence{
				TemplateID:   src.TemplateID,
				BranchID:     src.BranchID,
				Date:         newDate,
				StartTime:    src.StartTime,
				EndTime:      src.EndTime,
				Requirements: slices.Clone(src.Requirements),
			}
			if err := s.store.CreateShiftOccurrence(newOcc); err != nil {
				if errors.Is(err, domain.ErrDuplicateOccurrence) {
					report.TotalSkipped++
					report.SkippedDuplicates = append(report.SkippedDuplicates, newDate)
					continue
				}
				return report, err
			}

			report.TotalCopied++
			copiedAny = true

			if err := s.copyAssignments(report, src.ID, newOcc.ID, newDate); err != nil {
				return report, err
			}
		}

		if copiedAny {
			report.CopiedWeeks = append(report.CopiedWeeks, targetStart)
		}
	}

	return report, nil
}

// 复制单条排班失败（比如员工在复制前刚被删除）只影响那一条，
// 记入报告之后批次继续。
func (s *Service) copyAssignments(report *CopyWeekReport, srcOccurrenceID, dstOccurrenceID int64, dstDate string) error {
	assignments, err := s.store.ListAssignmentsByOccurrence(srcOccurrenceID)
	if err != nil {
		return err
	}

	for _, view := range assignments {
		copied := &domain.StaffAssignment{
			OccurrenceID: dstOccurrenceID,
			UserID:       view.UserID,
			Note:         view.Note,
			Status:       domain.AssignmentStatusDraft,
		}
		if err := s.store.CreateAssignment(copied); err != nil {
			report.Failed = append(report.Failed, BulkAssignUnit{
				UserID:       view.UserID,
				Date:         dstDate,
				OccurrenceID: dstOccurrenceID,
				Reason:       err.Error(),
			})
			continue
		}
		// 复制过来的排班可能和目标周已有的排班冲突
		if err := s.refreshConflicts(view.UserID, dstDate); err != nil {
			return err
		}
	}
	return nil
}

type PublishInput struct {
	BranchID      int64
	StartDate     string
	EndDate       string
	OccurrenceIDs []int64
}

type PublishReport struct {
	Published  []*domain.AssignmentView `json:"published"`
	Conflicted []*domain.AssignmentView `json:"conflicted"`
}

// Publish 把范围内所有 DRAFT/PENDING 的排班逐条重新做冲突检测：
// 没有冲突的发布成 PUBLISHED，有冲突的转成 CONFLICTED。
// 发布不会删除也不会悄悄丢掉任何一条排班，每条输入最终都落在
// 这两个状态之一，返回完整的结果列表供调用方统计。
func (s *Service) Publish(ctx context.Context, input *PublishInput) (*PublishReport, error) {
	if err := s.requireBranch(input.BranchID); err != nil {
		return nil, err
	}

	views, err := s.store.ListAssignmentViews(input.BranchID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	report := &PublishReport{
		Published:  make([]*domain.AssignmentView, 0),
		Conflicted: make([]*domain.AssignmentView, 0),
	}

	for _, view := range views {
		if ctx.Err() != nil {
			return report, nil
		}

		if view.Status != domain.AssignmentStatusDraft && view.Status != domain.AssignmentStatusPending {
			continue
		}
		if len(input.OccurrenceIDs) > 0 && !slices.Contains(input.OccurrenceIDs, view.OccurrenceID) {
			continue
		}

		peers, err := s.store.ListAssignmentsForUserOnDate(view.UserID, view.Date)
		if err != nil {
			return report, err
		}
		conflict, err := HasConflict(view.StartTime, view.EndTime, peers, view.ID)
		if err != nil {
			return report, err
		}

		if conflict {
			view.Status = domain.AssignmentStatusConflicted
		} else {
			view.Status = domain.AssignmentStatusPublished
		}
		if err := s.store.UpdateAssignmentStatus(&view.StaffAssignment); err != nil {
			return report, err
		}

		if conflict {
			report.Conflicted = append(report.Conflicted, view)
		} else {
			report.Published = append(report.Published, view)
		}
	}

	return report, nil
}
