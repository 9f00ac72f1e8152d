package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/haolipeng/webstr/pkg/store"
	"github.com/haolipeng/webstr/pkg/xtables"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// 错误代码常量
const (
	ErrCodeInternalServerError = http.StatusInternalServerError // 服务器内部错误
	ErrCodeBadRequest          = http.StatusBadRequest          // 请求参数错误

	ErrCodeRuleNotFound       = http.StatusNotFound   // 规则不存在
	ErrCodeRuleAlreadyExists  = http.StatusConflict   // 规则已存在
	ErrCodeInvalidRuleFormat  = http.StatusBadRequest // 请求体格式无效
	ErrCodeRuleValidationFail = http.StatusBadRequest // 规则参数校验失败
)

// RuleError 自定义规则错误类型
type RuleError struct {
	Code    int    // HTTP 状态码
	Message string // 错误消息
	Err     error  // 原始错误
}

// Error 实现 error 接口
func (e *RuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// NewRuleNotFoundError 创建规则不存在错误
func NewRuleNotFoundError(ruleID string) *RuleError {
	return &RuleError{
		Code:    ErrCodeRuleNotFound,
		Message: fmt.Sprintf("规则 %s 不存在", ruleID),
	}
}

// NewRuleAlreadyExistsError 创建规则已存在错误
func NewRuleAlreadyExistsError(ruleID string) *RuleError {
	return &RuleError{
		Code:    ErrCodeRuleAlreadyExists,
		Message: fmt.Sprintf("规则 %s 已存在", ruleID),
	}
}

// NewInvalidRuleIDError 规则ID为空或包含非法字符
func NewInvalidRuleIDError(ruleID string) *RuleError {
	return &RuleError{
		Code:    ErrCodeBadRequest,
		Message: fmt.Sprintf("规则ID %q 无效", ruleID),
	}
}

// NewInvalidRuleFormatError 创建请求体格式无效错误
func NewInvalidRuleFormatError(err error) *RuleError {
	return &RuleError{
		Code:    ErrCodeInvalidRuleFormat,
		Message: "请求体格式无效",
		Err:     err,
	}
}

// NewRuleValidationError 创建规则验证失败错误，错误详情直接返回给调用方
func NewRuleValidationError(err error) *RuleError {
	return &RuleError{
		Code:    ErrCodeRuleValidationFail,
		Message: "规则验证失败: " + err.Error(),
		Err:     err,
	}
}

// NewInternalServerError 创建服务器内部错误
func NewInternalServerError(err error) *RuleError {
	return &RuleError{
		Code:    ErrCodeInternalServerError,
		Message: "服务器内部错误",
		Err:     err,
	}
}

// storeError 把存储层错误转换为接口错误
func storeError(ruleID string, err error) *RuleError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewRuleNotFoundError(ruleID)
	case errors.Is(err, store.ErrExists):
		return NewRuleAlreadyExistsError(ruleID)
	case errors.Is(err, store.ErrInvalidRuleID):
		return NewInvalidRuleIDError(ruleID)
	default:
		return NewInternalServerError(err)
	}
}

// compileError 参数错误返回 400，其余返回 500
func compileError(err error) *RuleError {
	var perr *xtables.ParameterError
	if errors.As(err, &perr) || errors.Is(err, xtables.ErrUnknownMatch) {
		return NewRuleValidationError(err)
	}
	return NewInternalServerError(err)
}

// HandleError 统一错误处理函数
func HandleError(c echo.Context, err error) error {
	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	}).Error("API 错误")

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return c.JSON(ruleErr.Code, Response{
			Code:    ruleErr.Code,
			Message: ruleErr.Message,
		})
	}

	return c.JSON(http.StatusInternalServerError, Response{
		Code:    http.StatusInternalServerError,
		Message: "服务器内部错误",
	})
}
