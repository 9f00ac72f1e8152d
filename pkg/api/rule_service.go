package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/haolipeng/webstr/pkg/compiler"
	"github.com/haolipeng/webstr/pkg/store"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// 响应结构体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RuleRequest 创建/更新/验证规则的请求体
type RuleRequest struct {
	Args []string `json:"args"` // 例如 ["--host", "!", "example.com"]
}

// RuleService 规则服务
type RuleService struct {
	store    store.Store
	compiler *compiler.Compiler
}

// NewRuleService 创建一个新的规则服务
func NewRuleService(s store.Store, c *compiler.Compiler) *RuleService {
	return &RuleService{
		store:    s,
		compiler: c,
	}
}

// ListRules 列出所有规则
func (rs *RuleService) ListRules(c echo.Context) error {
	records, err := rs.store.List(c.Request().Context())
	if err != nil {
		return HandleError(c, NewInternalServerError(err))
	}

	listings := make([]*compiler.Listing, 0, len(records))
	for _, rec := range records {
		listing, err := rs.compiler.Render(rec)
		if err != nil {
			// 单条规则无法输出时继续输出其他规则
			logrus.WithFields(logrus.Fields{
				"rule_id": rec.RuleID,
				"error":   err.Error(),
			}).Warn("跳过无法输出的规则")
			continue
		}
		listings = append(listings, listing)
	}

	logrus.WithFields(logrus.Fields{
		"rule_count": len(listings),
		"operation":  "list_rules",
	}).Debug("获取所有规则")

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "获取规则成功",
		Data:    listings,
	})
}

// GetRule 获取特定规则
func (rs *RuleService) GetRule(c echo.Context) error {
	ruleID := c.Param("rule_id")

	rec, err := rs.store.Get(c.Request().Context(), ruleID)
	if err != nil {
		return HandleError(c, storeError(ruleID, err))
	}

	listing, err := rs.compiler.Render(rec)
	if err != nil {
		return HandleError(c, NewInternalServerError(err))
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "获取规则成功",
		Data:    listing,
	})
}

// CreateRule 创建规则，规则ID已存在时返回 409
func (rs *RuleService) CreateRule(c echo.Context) error {
	ruleID := c.Param("rule_id")
	if err := store.ValidateRuleID(ruleID); err != nil {
		return HandleError(c, NewInvalidRuleIDError(ruleID))
	}

	return rs.saveRule(c, ruleID, rs.store.Create, http.StatusCreated, "创建规则成功")
}

// UpdateRule 更新规则
func (rs *RuleService) UpdateRule(c echo.Context) error {
	ruleID := c.Param("rule_id")
	if _, err := rs.store.Get(c.Request().Context(), ruleID); err != nil {
		return HandleError(c, storeError(ruleID, err))
	}

	return rs.saveRule(c, ruleID, rs.store.Put, http.StatusOK, "更新规则成功")
}

func (rs *RuleService) saveRule(c echo.Context, ruleID string, write func(context.Context, *store.Record) error, code int, message string) error {
	var req RuleRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(c, NewInvalidRuleFormatError(err))
	}

	rec, err := rs.compiler.Compile(ruleID, req.Args)
	if err != nil {
		return HandleError(c, compileError(err))
	}

	if err := write(c.Request().Context(), rec); err != nil {
		return HandleError(c, storeError(ruleID, err))
	}

	listing, err := rs.compiler.Render(rec)
	if err != nil {
		return HandleError(c, NewInternalServerError(err))
	}

	logrus.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"rule":    strings.TrimSpace(listing.Verbose),
	}).Info(message)

	return c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    listing,
	})
}

// DeleteRule 删除规则
func (rs *RuleService) DeleteRule(c echo.Context) error {
	ruleID := c.Param("rule_id")
	if err := rs.store.Delete(c.Request().Context(), ruleID); err != nil {
		return HandleError(c, storeError(ruleID, err))
	}

	logrus.WithField("rule_id", ruleID).Info("删除规则成功")
	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "删除规则成功",
	})
}

// ValidateRule 只解析参数，不保存
func (rs *RuleService) ValidateRule(c echo.Context) error {
	var req RuleRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(c, NewInvalidRuleFormatError(err))
	}

	rec, err := rs.compiler.Compile("", req.Args)
	if err != nil {
		return HandleError(c, compileError(err))
	}

	listing, err := rs.compiler.Render(rec)
	if err != nil {
		return HandleError(c, NewInternalServerError(err))
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "规则有效",
		Data:    listing,
	})
}

// GetMetrics 获取计数
func (rs *RuleService) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "获取计数成功",
		Data:    rs.compiler.Metrics().GetStats(),
	})
}

// GetHelp 获取已注册扩展的用法
func (rs *RuleService) GetHelp(c echo.Context) error {
	var sb strings.Builder
	rs.compiler.Registry().Help(&sb)
	return c.String(http.StatusOK, sb.String())
}
