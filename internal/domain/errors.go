package domain

import "errors"

// 唯一性和前置条件相关的错误必须原样抛给调用方，不能悄悄吞掉，
// 它们要么说明出现了并发竞争，要么说明调用方传错了参数。
var (
	ErrBranchNotFound      = errors.New("门店不存在")
	ErrDuplicateOccurrence = errors.New("该模板在这一天已经生成过班次")
	ErrDuplicateAssignment = errors.New("该员工已经被安排到这个班次")
	ErrOccurrenceNotFound  = errors.New("班次不存在")
	ErrTemplateInactive    = errors.New("班次模板已停用")
	ErrDayNotApplicable    = errors.New("班次模板在这一天不适用")
	ErrTemplateWrongBranch = errors.New("班次模板不属于该门店")
	ErrInvalidTransition   = errors.New("不允许的排班状态变更")
	ErrConflictDetected    = errors.New("该员工在这个时间段已有其他排班")
)
