package xtables

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseMatch 按规则编译器的流程为一个 match 构建规则数据：
// 分配 Size 字节、调用 Init、逐个分发选项、最后调用 FinalCheck。
// 取反标记 ! 可以出现在选项之前（! --host x），也可以出现在参数之前（--host ! x）。
// 选项名可以是无歧义的前缀，参数也可以写成 --host=x。
func ParseMatch(reg *Registry, name string, args []string) (*Entry, error) {
	m, ok := reg.Find(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMatch, "match %q", name)
	}

	entry := &Entry{
		Match: m,
		Data:  make([]byte, m.Size),
	}
	if m.Init != nil {
		m.Init(entry.Data, &entry.NFCache)
	}

	var flags uint32
	for i := 0; i < len(args); i++ {
		invert := false
		tok := args[i]
		if tok == "!" {
			invert = true
			i++
			if i >= len(args) {
				return nil, newParameterError(m.Name, "", errors.WithMessage(ErrBadInvert, "nothing follows"))
			}
			tok = args[i]
		}

		if !strings.HasPrefix(tok, "--") {
			return nil, newParameterError(m.Name, "", errors.Wrapf(ErrUnknownOption, "unexpected argument %q", tok))
		}
		name, value, inline := strings.Cut(strings.TrimPrefix(tok, "--"), "=")
		opt, err := m.findOption(name)
		if err != nil {
			return nil, newParameterError(m.Name, "", errors.Wrapf(err, "%s", tok))
		}
		if m.Exclusive && flags != 0 {
			return nil, newParameterError(m.Name, opt.Name, ErrOptionConflict)
		}

		var arg string
		switch {
		case inline && !opt.HasArg:
			return nil, newParameterError(m.Name, opt.Name, ErrExtraArgument)
		case inline:
			// --opt=value 的值原样使用，不检查取反标记
			arg = value
		case opt.HasArg:
			i++
			if i < len(args) && args[i] == "!" {
				if invert {
					return nil, newParameterError(m.Name, opt.Name, errors.WithMessage(ErrBadInvert, "multiple `!' flags not allowed"))
				}
				invert = true
				i++
			}
			if i >= len(args) {
				return nil, newParameterError(m.Name, opt.Name, ErrMissingArgument)
			}
			arg = args[i]
		}

		if err := m.Parse(opt.Val, arg, invert, &flags, entry.Data); err != nil {
			return nil, newParameterError(m.Name, opt.Name, err)
		}
	}

	if err := m.FinalCheck(flags); err != nil {
		return nil, newParameterError(m.Name, "", err)
	}
	return entry, nil
}
