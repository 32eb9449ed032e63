package roster_test

import (
	"database/sql"
	"errors"
	"slices"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

// memStore 是 roster.Store 的内存实现，行为对齐真实的 repository：
// 唯一性约束违反时返回 domain 的哨兵错误，找不到记录时返回 sql.ErrNoRows，
// 读出来的都是副本，调用方的修改只有通过 Update 才会写回。
type memStore struct {
	branches    map[int64]bool
	templates   map[int64]*domain.ShiftTemplate
	occurrences map[int64]*domain.ShiftOccurrence
	assignments map[int64]*domain.StaffAssignment
	positions   map[int64]int64 // userID -> 主岗位
	nextID      int64

	// 模拟外键约束失败，比如员工在批次执行途中被删除
	brokenUsers map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		branches:    map[int64]bool{1: true, 2: true},
		templates:   make(map[int64]*domain.ShiftTemplate),
		occurrences: make(map[int64]*domain.ShiftOccurrence),
		assignments: make(map[int64]*domain.StaffAssignment),
		positions:   make(map[int64]int64),
		brokenUsers: make(map[int64]bool),
	}
}

func (m *memStore) BranchExists(id int64) (bool, error) {
	return m.branches[id], nil
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addTemplate(st *domain.ShiftTemplate) *domain.ShiftTemplate {
	st.ID = m.id()
	m.templates[st.ID] = st
	return st
}

func (m *memStore) addUser(userID, positionID int64) {
	m.positions[userID] = positionID
}

func (m *memStore) GetShiftTemplate(id int64) (*domain.ShiftTemplate, error) {
	st, ok := m.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) ListActiveShiftTemplates(branchID int64, weekday int32) ([]*domain.ShiftTemplate, error) {
	result := make([]*domain.ShiftTemplate, 0)
	for _, st := range m.templates {
		if st.BranchID != branchID || st.Status != domain.TemplateStatusActive {
			continue
		}
		if !slices.Contains(st.ApplicableDays, weekday) {
			continue
		}
		cp := *st
		result = append(result, &cp)
	}
	return result, nil
}

func (m *memStore) CreateShiftOccurrence(occ *domain.ShiftOccurrence) error {
	if occ.TemplateID != nil {
		for _, existing := range m.occurrences {
			if existing.TemplateID != nil && *existing.TemplateID == *occ.TemplateID &&
				existing.BranchID == occ.BranchID && existing.Date == occ.Date {
				return domain.ErrDuplicateOccurrence
			}
		}
	}

	occ.ID = m.id()
	cp := *occ
	cp.Requirements = slices.Clone(occ.Requirements)
	m.occurrences[occ.ID] = &cp
	return nil
}

func (m *memStore) GetShiftOccurrence(id int64) (*domain.ShiftOccurrence, error) {
	occ, ok := m.occurrences[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *occ
	cp.Requirements = slices.Clone(occ.Requirements)
	return &cp, nil
}

func (m *memStore) GetShiftOccurrenceByKey(templateID int64, branchID int64, date string) (*domain.ShiftOccurrence, error) {
	for _, occ := range m.occurrences {
		if occ.TemplateID != nil && *occ.TemplateID == templateID && occ.BranchID == branchID && occ.Date == date {
			cp := *occ
			cp.Requirements = slices.Clone(occ.Requirements)
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ListShiftOccurrences(branchID int64, startDate, endDate string) ([]*domain.ShiftOccurrence, error) {
	result := make([]*domain.ShiftOccurrence, 0)
	for _, occ := range m.occurrences {
		if occ.BranchID != branchID || occ.Date < startDate || occ.Date > endDate {
			continue
		}
		cp := *occ
		cp.Requirements = slices.Clone(occ.Requirements)
		result = append(result, &cp)
	}
	slices.SortFunc(result, func(a, b *domain.ShiftOccurrence) int {
		if a.Date != b.Date {
			if a.Date < b.Date {
				return -1
			}
			return 1
		}
		return int(a.ID - b.ID)
	})
	return result, nil
}

func (m *memStore) DeleteShiftOccurrence(id int64) (int, error) {
	if _, ok := m.occurrences[id]; !ok {
		return 0, sql.ErrNoRows
	}

	removed := 0
	for aid, a := range m.assignments {
		if a.OccurrenceID == id {
			delete(m.assignments, aid)
			removed++
		}
	}
	delete(m.occurrences, id)
	return removed, nil
}

func (m *memStore) CreateAssignment(a *domain.StaffAssignment) error {
	if m.brokenUsers[a.UserID] {
		return errors.New("员工不存在")
	}
	if _, ok := m.occurrences[a.OccurrenceID]; !ok {
		return domain.ErrOccurrenceNotFound
	}
	for _, existing := range m.assignments {
		if existing.OccurrenceID == a.OccurrenceID && existing.UserID == a.UserID {
			return domain.ErrDuplicateAssignment
		}
	}

	a.ID = m.id()
	cp := *a
	m.assignments[a.ID] = &cp
	return nil
}

func (m *memStore) GetAssignment(id int64) (*domain.StaffAssignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) DeleteAssignment(id int64) error {
	if _, ok := m.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assignments, id)
	return nil
}

func (m *memStore) UpdateAssignmentStatus(a *domain.StaffAssignment) error {
	stored, ok := m.assignments[a.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = a.Status
	stored.Note = a.Note
	stored.Version++
	return nil
}

func (m *memStore) view(a *domain.StaffAssignment) *domain.AssignmentView {
	occ := m.occurrences[a.OccurrenceID]
	return &domain.AssignmentView{
		StaffAssignment: *a,
		BranchID:        occ.BranchID,
		Date:            occ.Date,
		StartTime:       occ.StartTime,
		EndTime:         occ.EndTime,
		PositionID:      m.positions[a.UserID],
	}
}

func (m *memStore) sortViews(views []*domain.AssignmentView) []*domain.AssignmentView {
	slices.SortFunc(views, func(a, b *domain.AssignmentView) int {
		return int(a.ID - b.ID)
	})
	return views
}

func (m *memStore) ListAssignmentsByOccurrence(occurrenceID int64) ([]*domain.AssignmentView, error) {
	result := make([]*domain.AssignmentView, 0)
	for _, a := range m.assignments {
		if a.OccurrenceID == occurrenceID {
			result = append(result, m.view(a))
		}
	}
	return m.sortViews(result), nil
}

func (m *memStore) ListAssignmentsForUserOnDate(userID int64, date string) ([]*domain.AssignmentView, error) {
	result := make([]*domain.AssignmentView, 0)
	for _, a := range m.assignments {
		if a.UserID != userID {
			continue
		}
		if m.occurrences[a.OccurrenceID].Date != date {
			continue
		}
		result = append(result, m.view(a))
	}
	return m.sortViews(result), nil
}

func (m *memStore) ListAssignmentViews(branchID int64, startDate, endDate string) ([]*domain.AssignmentView, error) {
	result := make([]*domain.AssignmentView, 0)
	for _, a := range m.assignments {
		occ := m.occurrences[a.OccurrenceID]
		if occ.BranchID != branchID || occ.Date < startDate || occ.Date > endDate {
			continue
		}
		result = append(result, m.view(a))
	}
	return m.sortViews(result), nil
}

func (m *memStore) ListAssignmentsForUserInRange(userID int64, startDate, endDate string) ([]*domain.AssignmentView, error) {
	result := make([]*domain.AssignmentView, 0)
	for _, a := range m.assignments {
		if a.UserID != userID {
			continue
		}
		occ := m.occurrences[a.OccurrenceID]
		if occ.Date < startDate || occ.Date > endDate {
			continue
		}
		result = append(result, m.view(a))
	}
	return m.sortViews(result), nil
}
