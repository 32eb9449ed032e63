package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OccurrenceID int64  `json:"occurrenceId" validate:"required"`
		UserID       int64  `json:"userId" validate:"required"`
		Note         string `json:"note"`
		// strict 为 true 时，时间冲突直接拒绝；否则照常创建并标记为 CONFLICTED
		Strict bool `json:"strict"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	assignment, err := h.roster.Assign(req.OccurrenceID, req.UserID, req.Note, req.Strict)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOccurrenceNotFound),
			errors.Is(err, domain.ErrDuplicateAssignment),
			errors.Is(err, domain.ErrConflictDetected):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "排班创建成功", assignment)
}

func (h *Handler) GetGroupedAssignments(w http.ResponseWriter, r *http.Request) {
	branchID, err := h.queryInt64(r, "branchId")
	if err != nil {
		h.badRequest(w, r, errors.New("请指定门店"))
		return
	}

	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	if startDate == "" || endDate == "" {
		h.badRequest(w, r, errors.New("请指定日期范围"))
		return
	}

	grouped, err := h.roster.ListGroupedAssignments(branchID, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBranchNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班表成功", grouped)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("无效的排班 ID"))
		return
	}

	// override=true 时允许删除 CONFLICTED 或请假状态的排班，已发布的排班任何人都不能直接删除
	override := r.URL.Query().Get("override") == "true"

	if err := h.roster.DeleteAssignment(id, override); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班不存在")
		case errors.Is(err, domain.ErrInvalidTransition):
			h.errorResponse(w, r, "该状态下的排班不允许删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除排班成功", nil)
}

func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("无效的排班 ID"))
		return
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	next := domain.AssignmentStatus(req.Status)

	// 店员只能对自己的排班发起调班请求，其余状态变更是店长以上的权限
	role := domain.Role(r.Context().Value(RoleCtxKey).(string))
	if role == domain.RoleStaff {
		if next != domain.AssignmentStatusRequestChange {
			h.errorResponse(w, r, "权限不足")
			return
		}

		sub, err := strconv.ParseInt(r.Context().Value(SubCtxKey).(string), 10, 64)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		assignment, err := h.roster.GetAssignment(id)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "排班不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if assignment.UserID != sub {
			h.errorResponse(w, r, "只能对自己的排班发起调班请求")
			return
		}
	}

	assignment, err := h.roster.UpdateAssignmentStatus(id, next)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班不存在")
		case errors.Is(err, domain.ErrInvalidTransition):
			h.errorResponse(w, r, err.Error())
		case errors.Is(err, domain.ErrConflictDetected):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新排班状态成功", assignment)
}
