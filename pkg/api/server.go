package api

import (
	"context"
	"fmt"

	"github.com/haolipeng/webstr/pkg/config"
	"github.com/labstack/echo/v4"
)

// Server HTTP 服务器
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer 创建一个新的 HTTP 服务器
func NewServer(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true

	// 构建地址
	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)

	return &Server{
		echo: e,
		addr: addr,
	}
}

// Start 启动 HTTP 服务器
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop 停止 HTTP 服务器
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// GetEcho 获取Echo实例
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}

// RegisterRuleService 注册规则服务
func (s *Server) RegisterRuleService(rs *RuleService) {
	s.echo.GET("/webstr/rules", rs.ListRules)                   // 列出所有规则
	s.echo.GET("/webstr/rules/:rule_id", rs.GetRule)            // 获取指定规则
	s.echo.POST("/webstr/rules/:rule_id", rs.CreateRule)        // 创建规则
	s.echo.PUT("/webstr/rules/:rule_id", rs.UpdateRule)         // 更新规则
	s.echo.POST("/webstr/rules/:rule_id/delete", rs.DeleteRule) // 删除规则
	s.echo.POST("/webstr/validate", rs.ValidateRule)            // 验证规则参数
	s.echo.GET("/webstr/metrics", rs.GetMetrics)                // 获取计数
	s.echo.GET("/webstr/help", rs.GetHelp)                      // 获取扩展用法
}
