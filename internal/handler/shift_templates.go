package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/utils"
)

func (h *Handler) CreateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BranchID       int64   `json:"branchId" validate:"required"`
		Name           string  `json:"name" validate:"required"`
		StartTime      string  `json:"startTime" validate:"required"`
		EndTime        string  `json:"endTime" validate:"required"`
		ApplicableDays []int32 `json:"applicableDays" validate:"required,min=1,dive,min=1,max=7"`
		Requirements   []struct {
			PositionID int64 `json:"positionId" validate:"required"`
			Quantity   int32 `json:"quantity" validate:"required,min=1"`
		} `json:"requirements" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	st := &domain.ShiftTemplate{
		BranchID:       req.BranchID,
		Name:           req.Name,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ApplicableDays: req.ApplicableDays,
		Status:         domain.TemplateStatusActive,
	}
	for _, pr := range req.Requirements {
		st.Requirements = append(st.Requirements, domain.PositionRequirement{
			PositionID: pr.PositionID,
			Quantity:   pr.Quantity,
		})
	}

	// 时间格式和岗位要求的业务校验放在 utils 中，validator 只负责结构
	if err := utils.ValidateShiftTemplate(st); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateShiftTemplate(st); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "shift_templates_branch_id_fkey":
				h.badRequest(w, r, errors.New("门店不存在"))
			case pgErr.ConstraintName == "shift_template_requirements_position_id_fkey":
				h.badRequest(w, r, errors.New("岗位不存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "班次模板创建成功", st)
}

func (h *Handler) GetAllShiftTemplates(w http.ResponseWriter, r *http.Request) {
	branchID, err := h.queryInt64(r, "branchId")
	if err != nil {
		h.badRequest(w, r, errors.New("请指定门店"))
		return
	}

	// 门店不存在要明确报错，空列表会让调用方误以为门店只是还没配置模板
	exists, err := h.repository.BranchExists(branchID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !exists {
		h.errorResponse(w, r, "门店不存在")
		return
	}

	// 可选的 weekday 参数（1~7，周一为 1）只返回当天适用的启用模板
	var templates []*domain.ShiftTemplate
	if r.URL.Query().Has("weekday") {
		weekday, err := h.queryInt64(r, "weekday")
		if err != nil || weekday < 1 || weekday > 7 {
			h.badRequest(w, r, errors.New("weekday 参数应该在 1 到 7 之间"))
			return
		}
		templates, err = h.repository.ListActiveShiftTemplates(branchID, int32(weekday))
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
	} else {
		templates, err = h.repository.GetAllShiftTemplates(branchID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "获取班次模板列表成功", templates)
}

func (h *Handler) GetShiftTemplate(w http.ResponseWriter, r *http.Request) {
	st := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)
	h.successResponse(w, r, "获取班次模板成功", st)
}

func (h *Handler) UpdateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           *string `json:"name"`
		StartTime      *string `json:"startTime"`
		EndTime        *string `json:"endTime"`
		ApplicableDays []int32 `json:"applicableDays" validate:"omitempty,min=1,dive,min=1,max=7"`
		Requirements   []struct {
			PositionID int64 `json:"positionId" validate:"required"`
			Quantity   int32 `json:"quantity" validate:"required,min=1"`
		} `json:"requirements" validate:"omitempty,min=1,dive"`
		Status *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	st := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.StartTime != nil {
		st.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		st.EndTime = *req.EndTime
	}
	if req.ApplicableDays != nil {
		st.ApplicableDays = req.ApplicableDays
	}
	if req.Requirements != nil {
		st.Requirements = st.Requirements[:0]
		for _, pr := range req.Requirements {
			st.Requirements = append(st.Requirements, domain.PositionRequirement{
				PositionID: pr.PositionID,
				Quantity:   pr.Quantity,
			})
		}
	}
	if req.Status != nil {
		st.Status = domain.TemplateStatus(*req.Status)
	}

	if err := utils.ValidateShiftTemplate(st); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 修改模板只影响之后生成的班次，已有班次保存的是生成当时的快照
	if err := h.repository.UpdateShiftTemplate(st); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新班次模板失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新班次模板成功", st)
}

func (h *Handler) DeleteShiftTemplate(w http.ResponseWriter, r *http.Request) {
	st := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	if err := h.repository.DeleteShiftTemplate(st.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_occurrences_template_id_fkey":
			h.errorResponse(w, r, "该模板已生成过班次，请停用而不是删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除班次模板成功", nil)
}
