package xtables

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Entry 规则中的一个 match 实例，Data 的存储归规则编译器所有
type Entry struct {
	Match   *Match
	Data    []byte
	NFCache uint32
}

// NewEntry 用已序列化的数据恢复一个 match 实例
func NewEntry(reg *Registry, name string, data []byte) (*Entry, error) {
	m, ok := reg.Find(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMatch, "match %q", name)
	}
	if len(data) != m.Size {
		return nil, errors.Wrapf(ErrDataSize, "match %s: got %d bytes, want %d", name, len(data), m.Size)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return &Entry{Match: m, Data: buf}, nil
}

// Print 输出详细信息（规则列表时使用）
func (e *Entry) Print(w io.Writer, numeric bool) {
	e.Match.Print(w, e.Data, numeric)
}

// Save 输出可重新解析的形式（保存规则时使用）
func (e *Entry) Save(w io.Writer) {
	e.Match.Save(w, e.Data)
}

func (e *Entry) String() string {
	var sb strings.Builder
	e.Print(&sb, false)
	return sb.String()
}

// SaveString 以字符串形式返回 Save 的输出
func (e *Entry) SaveString() string {
	var sb strings.Builder
	e.Save(&sb)
	return sb.String()
}

// Help 输出注册表中所有扩展的帮助信息
func (r *Registry) Help(w io.Writer) {
	for _, name := range r.Names() {
		m, _ := r.Find(name)
		if m.Help != nil {
			m.Help(w)
		}
	}
}
