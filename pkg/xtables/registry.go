package xtables

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 按名称保存已注册的 match 扩展
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*Match
}

// DefaultRegistry 扩展在 init 时注册到这里
var DefaultRegistry = NewRegistry()

// NewRegistry 创建一个空的注册表
func NewRegistry() *Registry {
	return &Registry{
		matches: make(map[string]*Match),
	}
}

// Register 注册扩展，名称重复或记录不完整时 panic
func (r *Registry) Register(m *Match) {
	if m == nil || m.Name == "" {
		panic("xtables: Register match is nil or unnamed")
	}
	if m.Parse == nil || m.FinalCheck == nil || m.Print == nil || m.Save == nil {
		panic(fmt.Sprintf("xtables: match %s is missing callbacks", m.Name))
	}
	if m.Size <= 0 || m.UserspaceSize > m.Size {
		panic(fmt.Sprintf("xtables: match %s has invalid size %d/%d", m.Name, m.UserspaceSize, m.Size))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.matches[m.Name]; dup {
		panic("xtables: Register called twice for match " + m.Name)
	}
	r.matches[m.Name] = m
}

// Find 根据名称查找扩展
func (r *Registry) Find(name string) (*Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[name]
	return m, ok
}

// Names 返回已注册扩展名称，按字典序排列
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.matches))
	for name := range r.matches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterMatch 注册到默认注册表
func RegisterMatch(m *Match) {
	DefaultRegistry.Register(m)
}
