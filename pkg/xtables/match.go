// Package xtables 提供规则编译器一侧的 match 扩展注册与参数解析
package xtables

import (
	"io"
	"strings"
)

// Version 规则编译器版本号，扩展的帮助信息中会打印
const Version = "1.3.8"

// entryAlign 规则条目的对齐字节数，对应 __alignof__(struct ipt_entry)
const entryAlign = 8

// NFCUnknown 扩展无法判断可缓存字段时设置的标记位
const NFCUnknown uint32 = 0x0001

// Align 按规则条目对齐要求向上取整
func Align(size int) int {
	return (size + entryAlign - 1) &^ (entryAlign - 1)
}

// Option 扩展识别的长选项
type Option struct {
	Name   string // 选项名，不含前导 --
	HasArg bool   // 是否需要参数
	Val    int    // 传递给 Parse 回调的选项标识
}

// Match 扩展向规则编译器注册的描述记录
type Match struct {
	Name          string
	Version       string
	Size          int // 内核侧结构体对齐后的大小
	UserspaceSize int // 参与规则比较的字节数
	ExtraOpts     []Option

	// Exclusive 为 true 时，flags 被置位后再出现本扩展的任何选项都视为用法错误
	Exclusive bool

	Help func(w io.Writer)
	Init func(data []byte, nfcache *uint32)

	// Parse 处理一个已识别的选项，invert 由编译器预先解析
	Parse      func(optionID int, arg string, invert bool, flags *uint32, data []byte) error
	FinalCheck func(flags uint32) error
	Print      func(w io.Writer, data []byte, numeric bool)
	Save       func(w io.Writer, data []byte)
}

// findOption 根据选项名查找，与 getopt_long 一样接受无歧义的前缀
func (m *Match) findOption(name string) (Option, error) {
	var found []Option
	for _, opt := range m.ExtraOpts {
		if opt.Name == name {
			return opt, nil
		}
		if name != "" && strings.HasPrefix(opt.Name, name) {
			found = append(found, opt)
		}
	}

	switch len(found) {
	case 0:
		return Option{}, ErrUnknownOption
	case 1:
		return found[0], nil
	default:
		return Option{}, ErrAmbiguousOption
	}
}
