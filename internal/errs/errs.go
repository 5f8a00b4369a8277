package errs

import "fmt"

// 统一错误分类：所有对外错误都携带具体实体标识，
// 控制器层按类型映射 HTTP 状态码，存储层不泄漏 gorm 细节。

// ==================== ValidationError ====================

// ValidationError 入参非法，未触达存储层
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validation 构造校验错误
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ==================== NotFoundError ====================

// NotFoundError 实体不存在
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound 构造未找到错误
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ==================== ConflictError ====================

// ConflictError 状态 CAS 失败（抢占失败 / 状态已被他人变更）
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Entity, e.ID, e.Reason)
}

// Conflict 构造冲突错误
func Conflict(entity, id, reason string) error {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

// ==================== InvalidTransitionError ====================

// InvalidTransitionError 状态机拒绝：当前状态下动作不合法，或操作者无资格
type InvalidTransitionError struct {
	TransactionID string
	State         string
	Action        string
	Reason        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition on transaction %s: action %s from state %s: %s",
		e.TransactionID, e.Action, e.State, e.Reason)
}

// InvalidTransition 构造非法迁移错误
func InvalidTransition(txnID, state, action, reason string) error {
	return &InvalidTransitionError{
		TransactionID: txnID,
		State:         state,
		Action:        action,
		Reason:        reason,
	}
}

// ==================== TimeoutError ====================

// TimeoutError 下游（存储 / 支付通道）不可达
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Timeout 构造超时错误
func Timeout(op string, err error) error {
	return &TimeoutError{Op: op, Err: err}
}
