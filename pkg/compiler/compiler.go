// Package compiler 把命令行参数编译成可持久化的 webstr 规则，并输出规则的列表/保存形式
package compiler

import (
	"errors"

	"github.com/haolipeng/webstr/pkg/metrics"
	"github.com/haolipeng/webstr/pkg/store"
	"github.com/haolipeng/webstr/pkg/webstr"
	"github.com/haolipeng/webstr/pkg/xtables"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

// Listing 规则的输出结果
type Listing struct {
	RuleID  string   `json:"rule_id"`
	Match   string   `json:"match"`
	Verbose string   `json:"verbose"` // 规则列表形式
	Save    string   `json:"save"`    // 规则保存形式
	Args    []string `json:"args,omitempty"`
}

type Compiler struct {
	registry  *xtables.Registry
	metrics   *metrics.ExtensionMetrics
	roundTrip bool
}

// New 创建编译器。roundTrip 为 true 时保存形式带上 --host/--url/--content，
// 否则与扩展的 Save 输出一致（--webstr [!]模式串，不能重新解析）。
func New(reg *xtables.Registry, m *metrics.ExtensionMetrics, roundTrip bool) *Compiler {
	if m == nil {
		m = &metrics.ExtensionMetrics{}
	}
	return &Compiler{
		registry:  reg,
		metrics:   m,
		roundTrip: roundTrip,
	}
}

// Metrics 返回计数器
func (c *Compiler) Metrics() *metrics.ExtensionMetrics {
	return c.metrics
}

// Registry 返回编译规则使用的扩展注册表
func (c *Compiler) Registry() *xtables.Registry {
	return c.registry
}

// Compile 解析参数并生成规则记录
func (c *Compiler) Compile(ruleID string, args []string) (*store.Record, error) {
	entry, err := xtables.ParseMatch(c.registry, webstr.Name, args)
	if err != nil {
		c.metrics.IncrementParseErrors()
		switch {
		case errors.Is(err, webstr.ErrPatternTooLong):
			c.metrics.IncrementPatternTooLong()
		case errors.Is(err, webstr.ErrMissingCriterion):
			c.metrics.IncrementMissingCriterion()
		}
		logrus.WithFields(logrus.Fields{
			"rule_id": ruleID,
			"error":   err.Error(),
		}).Warn("rule rejected")
		return nil, err
	}

	c.metrics.IncrementParsed()
	logrus.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"rule":    entry.String(),
	}).Debug("rule compiled")

	return &store.Record{
		RuleID: ruleID,
		Match:  webstr.Name,
		Data:   entry.Data,
		Args:   append([]string(nil), args...),
	}, nil
}

// Render 输出一条已保存的规则，描述结构只读
func (c *Compiler) Render(rec *store.Record) (*Listing, error) {
	entry, err := xtables.NewEntry(c.registry, rec.Match, rec.Data)
	if err != nil {
		return nil, err
	}
	c.metrics.IncrementRendered()

	listing := &Listing{
		RuleID:  rec.RuleID,
		Match:   rec.Match,
		Verbose: entry.String(),
		Save:    entry.SaveString(),
		Args:    rec.Args,
	}

	if rec.Match != webstr.Name {
		return listing, nil
	}

	var d webstr.MatchDescriptor
	if err := d.UnmarshalBinary(rec.Data); err != nil || webstr.CheckDescriptor(&d) != nil {
		c.metrics.IncrementCorruptedRendered()
		return listing, nil
	}
	if c.roundTrip {
		args, err := webstr.SaveArgs(&d)
		if err != nil {
			return nil, err
		}
		listing.Save = FormatArgs(args)
	}
	return listing, nil
}

// FormatArgs 把参数按 shell 规则转义后拼接成一行，末尾保留一个空格
func FormatArgs(args []string) string {
	return shellquote.Join(args...) + " "
}
