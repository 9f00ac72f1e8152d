package metrics

import (
	"sync/atomic"
)

// ExtensionMetrics match 扩展的解析与输出计数
type ExtensionMetrics struct {
	RulesParsed       uint64 // 成功构建的规则
	ParseErrors       uint64 // 构建失败的规则
	PatternTooLong    uint64 // 其中因模式串过长失败的次数
	MissingCriterion  uint64 // 其中因缺少匹配条件失败的次数
	Rendered          uint64 // 输出次数
	CorruptedRendered uint64 // 输出时遇到损坏描述结构的次数
}

func (m *ExtensionMetrics) IncrementParsed() {
	atomic.AddUint64(&m.RulesParsed, 1)
}

func (m *ExtensionMetrics) IncrementParseErrors() {
	atomic.AddUint64(&m.ParseErrors, 1)
}

func (m *ExtensionMetrics) IncrementPatternTooLong() {
	atomic.AddUint64(&m.PatternTooLong, 1)
}

func (m *ExtensionMetrics) IncrementMissingCriterion() {
	atomic.AddUint64(&m.MissingCriterion, 1)
}

func (m *ExtensionMetrics) IncrementRendered() {
	atomic.AddUint64(&m.Rendered, 1)
}

func (m *ExtensionMetrics) IncrementCorruptedRendered() {
	atomic.AddUint64(&m.CorruptedRendered, 1)
}

// GetStats 获取计数快照
func (m *ExtensionMetrics) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"rules_parsed":       atomic.LoadUint64(&m.RulesParsed),
		"parse_errors":       atomic.LoadUint64(&m.ParseErrors),
		"pattern_too_long":   atomic.LoadUint64(&m.PatternTooLong),
		"missing_criterion":  atomic.LoadUint64(&m.MissingCriterion),
		"rendered":           atomic.LoadUint64(&m.Rendered),
		"corrupted_rendered": atomic.LoadUint64(&m.CorruptedRendered),
	}
}
