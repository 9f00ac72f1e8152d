// Package store 持久化已编译的 match 规则，描述结构按原样保存，读取后不做任何修改
package store

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("rule not found")
	ErrExists        = errors.New("rule already exists")
	ErrInvalidRuleID = errors.New("invalid rule id")
)

// Record 一条已编译的规则
type Record struct {
	RuleID string   // 规则ID
	Match  string   // 扩展名称
	Data   []byte   // 扩展描述结构，长度为扩展的 Size
	Args   []string // 构建规则时的原始参数
}

// Store 规则存储接口
type Store interface {
	// Create 只在规则ID不存在时写入，否则返回 ErrExists
	Create(ctx context.Context, rec *Record) error
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, ruleID string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, ruleID string) error
	Close() error
}

// ValidateRuleID 规则ID不能为空，也不能包含路径分隔符
func ValidateRuleID(ruleID string) error {
	if ruleID == "" || ruleID == "." || ruleID == ".." || strings.ContainsAny(ruleID, `/\`) {
		return ErrInvalidRuleID
	}
	return nil
}
