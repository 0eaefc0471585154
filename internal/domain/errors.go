package domain

import "errors"

// 仓储层哨兵错误，由 service 映射到 apperr
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)
