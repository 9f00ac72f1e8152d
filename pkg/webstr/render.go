package webstr

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// PrintDescriptor 输出详细信息：WEBSTR match <条件> [!]<模式串>
func PrintDescriptor(w io.Writer, d *MatchDescriptor) {
	io.WriteString(w, "WEBSTR match ")

	if !d.Type.Valid() {
		logrus.WithFields(logrus.Fields{
			"match": Name,
			"type":  uint8(d.Type),
		}).Warn("corrupted criterion type in descriptor")
	}
	// 越界值输出 ERROR
	io.WriteString(w, d.Type.String()+" ")

	printString(w, d)
}

// SaveDescriptor 输出保存形式：--webstr [!]<模式串>。
// 该形式不包含 --host/--url/--content，无法被 Parse 重新解析，需要往返时使用 SaveArgs。
func SaveDescriptor(w io.Writer, d *MatchDescriptor) {
	io.WriteString(w, "--webstr ")
	printString(w, d)
}

func printString(w io.Writer, d *MatchDescriptor) {
	if d.Invert {
		io.WriteString(w, "!")
	}
	w.Write(d.PatternBytes())
	io.WriteString(w, " ")
}

// Render 返回详细信息和保存形式，不修改 d
func Render(d *MatchDescriptor) (string, string) {
	var diag, canon strings.Builder
	PrintDescriptor(&diag, d)
	SaveDescriptor(&canon, d)
	return diag.String(), canon.String()
}

// SaveArgs 返回可以重新解析出等价描述结构的参数列表。
// 未取反且模式串恰好为 ! 时输出 --<条件>=!，避免被当成取反标记。
func SaveArgs(d *MatchDescriptor) ([]string, error) {
	if !d.Type.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrCorruptedCriterionType, uint8(d.Type))
	}

	opt := "--" + d.Type.String()
	pattern := d.PatternString()
	if !d.Invert && pattern == "!" {
		return []string{opt + "=" + pattern}, nil
	}

	args := []string{opt}
	if d.Invert {
		args = append(args, "!")
	}
	return append(args, pattern), nil
}

// Print 规则编译器的详细输出回调，numeric 对本扩展无意义
func Print(w io.Writer, data []byte, numeric bool) {
	var d MatchDescriptor
	if err := d.UnmarshalBinary(data); err != nil {
		logrus.WithFields(logrus.Fields{
			"match": Name,
			"error": err.Error(),
		}).Warn("cannot decode descriptor")
		io.WriteString(w, "WEBSTR match ERROR ")
		return
	}
	PrintDescriptor(w, &d)
}

// Save 规则编译器的保存回调
func Save(w io.Writer, data []byte) {
	var d MatchDescriptor
	if err := d.UnmarshalBinary(data); err != nil {
		logrus.WithFields(logrus.Fields{
			"match": Name,
			"error": err.Error(),
		}).Warn("cannot decode descriptor")
		io.WriteString(w, "--webstr ERROR ")
		return
	}
	SaveDescriptor(w, &d)
}
