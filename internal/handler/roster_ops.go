package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/roster"
)

func (h *Handler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BranchID     int64   `json:"branchId" validate:"required"`
		UserIDs      []int64 `json:"userIds" validate:"required,min=1"`
		StartDate    string  `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate      string  `json:"endDate" validate:"required,datetime=2006-01-02"`
		TemplateID   *int64  `json:"templateId"`
		OccurrenceID *int64  `json:"occurrenceId"`
		Note         string  `json:"note"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.TemplateID == nil && req.OccurrenceID == nil {
		h.badRequest(w, r, errors.New("必须指定班次模板或具体班次"))
		return
	}

	report, err := h.roster.BulkAssign(r.Context(), &roster.BulkAssignInput{
		BranchID:     req.BranchID,
		UserIDs:      req.UserIDs,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TemplateID:   req.TemplateID,
		OccurrenceID: req.OccurrenceID,
		Note:         req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBranchNotFound),
			errors.Is(err, domain.ErrTemplateInactive),
			errors.Is(err, domain.ErrTemplateWrongBranch),
			errors.Is(err, domain.ErrOccurrenceNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "批量排班完成", report)
}

func (h *Handler) CopyWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BranchID         int64    `json:"branchId" validate:"required"`
		SourceWeekStart  string   `json:"sourceWeekStart" validate:"required,datetime=2006-01-02"`
		TargetWeekStarts []string `json:"targetWeekStarts" validate:"required,min=1,dive,datetime=2006-01-02"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	report, err := h.roster.CopyWeek(r.Context(), &roster.CopyWeekInput{
		BranchID:         req.BranchID,
		SourceWeekStart:  req.SourceWeekStart,
		TargetWeekStarts: req.TargetWeekStarts,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBranchNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "复制周班表完成", report)
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BranchID      int64   `json:"branchId" validate:"required"`
		StartDate     string  `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate       string  `json:"endDate" validate:"required,datetime=2006-01-02"`
		OccurrenceIDs []int64 `json:"occurrenceIds"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	report, err := h.roster.Publish(r.Context(), &roster.PublishInput{
		BranchID:      req.BranchID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		OccurrenceIDs: req.OccurrenceIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBranchNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 给每个有新发布排班的员工发一封通知邮件。
	// 邮件发送失败不影响发布结果，发布本身已经提交完成了。
	h.notifyPublished(report, req.StartDate, req.EndDate)

	h.successResponse(w, r, "发布排班完成", report)
}

func (h *Handler) notifyPublished(report *roster.PublishReport, startDate, endDate string) {
	counts := make(map[int64]int)
	for _, view := range report.Published {
		counts[view.UserID]++
	}

	for userID, count := range counts {
		user, err := h.repository.GetUserByID(userID)
		if err != nil {
			slog.Error("发布通知邮件失败", "userID", userID, "error", err)
			continue
		}

		mailMessage := domain.MailMessage{
			Type: "schedule_published",
			To:   user.Email,
			Data: domain.SchedulePublishedMailData{
				FullName:  user.FullName,
				StartDate: startDate,
				EndDate:   endDate,
				Count:     count,
			},
		}

		if err := h.publishMail(&mailMessage); err != nil {
			slog.Error("发布通知邮件失败", "userID", userID, "error", err)
		}
	}
}

func (h *Handler) ConflictPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID              int64  `json:"userId" validate:"required"`
		Date                string `json:"date" validate:"required,datetime=2006-01-02"`
		StartTime           string `json:"startTime" validate:"required"`
		EndTime             string `json:"endTime" validate:"required"`
		ExcludeAssignmentID int64  `json:"excludeAssignmentId"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	conflict, err := h.roster.ConflictPreview(req.UserID, req.Date, req.StartTime, req.EndTime, req.ExcludeAssignmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "冲突预检完成", map[string]any{
		"conflict": conflict,
	})
}
