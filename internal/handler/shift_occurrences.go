package handler

import (
	"errors"
	"net/http"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/roster"
)

func (h *Handler) CreateShiftOccurrence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID *int64 `json:"templateId"`
		BranchID   int64  `json:"branchId" validate:"required"`
		Date       string `json:"date" validate:"required,datetime=2006-01-02"`
		// 以下字段只在不指定模板、临时加开班次时使用
		StartTime    string `json:"startTime"`
		EndTime      string `json:"endTime"`
		Requirements []struct {
			PositionID int64 `json:"positionId" validate:"required"`
			Quantity   int32 `json:"quantity" validate:"required,min=1"`
		} `json:"requirements" validate:"omitempty,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	input := &roster.CreateOccurrenceInput{
		TemplateID: req.TemplateID,
		BranchID:   req.BranchID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	for _, pr := range req.Requirements {
		input.Requirements = append(input.Requirements, domain.PositionRequirement{
			PositionID: pr.PositionID,
			Quantity:   pr.Quantity,
		})
	}

	occ, err := h.roster.CreateOccurrence(input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateOccurrence),
			errors.Is(err, domain.ErrTemplateInactive),
			errors.Is(err, domain.ErrTemplateWrongBranch),
			errors.Is(err, domain.ErrDayNotApplicable):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "班次创建成功", occ)
}

func (h *Handler) ListShiftOccurrences(w http.ResponseWriter, r *http.Request) {
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

	occurrences, err := h.roster.ListOccurrences(branchID, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBranchNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取班次列表成功", occurrences)
}

func (h *Handler) GetShiftOccurrence(w http.ResponseWriter, r *http.Request) {
	occ := r.Context().Value(ShiftOccurrenceCtx).(*domain.ShiftOccurrence)
	h.successResponse(w, r, "获取班次成功", occ)
}

// GetOccurrenceFulfillment 返回班次每个岗位的需求、已排人数和缺口。
func (h *Handler) GetOccurrenceFulfillment(w http.ResponseWriter, r *http.Request) {
	occ := r.Context().Value(ShiftOccurrenceCtx).(*domain.ShiftOccurrence)

	fulfillment, err := h.roster.EvaluateOccurrence(occ.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次人数统计成功", fulfillment)
}

func (h *Handler) DeleteShiftOccurrence(w http.ResponseWriter, r *http.Request) {
	occ := r.Context().Value(ShiftOccurrenceCtx).(*domain.ShiftOccurrence)

	removed, err := h.roster.DeleteOccurrence(occ.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次成功", map[string]any{
		"removedAssignments": removed,
	})
}
