// Package webstr 实现 webstr match 扩展的用户态部分：
// 把 --host/--url/--content 选项翻译为内核侧使用的定长描述结构，
// 并把已有的描述结构输出为详细信息或可重新解析的文本。
package webstr

import (
	"encoding/binary"
	"fmt"

	"github.com/haolipeng/webstr/pkg/xtables"
)

// MaxPatternLen 模式串最大长度，与内核侧缓冲区大小一致（BM_MAX_NLEN）
const MaxPatternLen = 256

// 内核侧 struct ipt_webstr_info 的字段偏移
const (
	offInvert = MaxPatternLen
	offLen    = offInvert + 2
	offType   = offLen + 2
	infoSize  = offType + 1
)

// Size 对齐后的描述结构大小，规则编译器按此分配存储
var Size = xtables.Align(infoSize)

// CriterionType 模式串匹配的位置
type CriterionType uint8

const (
	Host    CriterionType = iota // Host 头
	URL                          // 请求 URL
	Content                      // 报文内容
)

// Valid 判断取值是否在枚举范围内
func (c CriterionType) Valid() bool {
	return c <= Content
}

func (c CriterionType) String() string {
	switch c {
	case Host:
		return "host"
	case URL:
		return "url"
	case Content:
		return "content"
	default:
		return "ERROR"
	}
}

// MatchDescriptor 与内核侧交换的描述结构。
// Len 是匹配器使用的权威长度，Pattern 中 Len 之后的字节为零。
type MatchDescriptor struct {
	Type    CriterionType
	Pattern [MaxPatternLen]byte
	Len     uint16
	Invert  bool
}

// PatternBytes 返回有效的模式串字节
func (d *MatchDescriptor) PatternBytes() []byte {
	n := int(d.Len)
	if n > MaxPatternLen {
		n = MaxPatternLen
	}
	return d.Pattern[:n]
}

// PatternString 以字符串形式返回模式串
func (d *MatchDescriptor) PatternString() string {
	return string(d.PatternBytes())
}

// MarshalBinary 按内核侧布局编码，输出固定 Size 字节，字节序为本机字节序
func (d *MatchDescriptor) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	d.encode(buf)
	return buf, nil
}

// encode 写入调用方提供的缓冲区，len(buf) 不小于 infoSize
func (d *MatchDescriptor) encode(buf []byte) {
	copy(buf[:MaxPatternLen], d.Pattern[:])

	var invert uint16
	if d.Invert {
		invert = 1
	}
	binary.NativeEndian.PutUint16(buf[offInvert:], invert)
	binary.NativeEndian.PutUint16(buf[offLen:], d.Len)
	buf[offType] = byte(d.Type)

	clear(buf[infoSize:])
}

// UnmarshalBinary 从内核侧布局解码。
// 越界的 type 会被原样保留，由输出路径报告。
func (d *MatchDescriptor) UnmarshalBinary(data []byte) error {
	if len(data) < infoSize {
		return fmt.Errorf("%w: got %d bytes, want at least %d", ErrDescriptorSize, len(data), infoSize)
	}

	n := binary.NativeEndian.Uint16(data[offLen:])
	if n > MaxPatternLen {
		return fmt.Errorf("%w: stored length %d exceeds %d", ErrDescriptorSize, n, MaxPatternLen)
	}

	copy(d.Pattern[:], data[:MaxPatternLen])
	d.Invert = binary.NativeEndian.Uint16(data[offInvert:]) != 0
	d.Len = n
	d.Type = CriterionType(data[offType])
	return nil
}

// CheckDescriptor 校验从持久化存储恢复的描述结构
func CheckDescriptor(d *MatchDescriptor) error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrCorruptedCriterionType, uint8(d.Type))
	}
	if d.Len > MaxPatternLen {
		return fmt.Errorf("%w: stored length %d exceeds %d", ErrDescriptorSize, d.Len, MaxPatternLen)
	}
	return nil
}
