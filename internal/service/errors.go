package service

import "errors"

// 可恢复错误分类，handler 层映射为 HTTP 状态码
var (
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrLocked     = errors.New("discussion is locked")
	ErrConflict   = errors.New("conflict")
)
