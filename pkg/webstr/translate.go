package webstr

import (
	"fmt"

	"github.com/haolipeng/webstr/pkg/xtables"
)

// 选项标识，与 ExtraOpts 中的 Val 对应
const (
	optHost    = '1'
	optURL     = '2'
	optContent = '3'
)

// Translate 把一个匹配条件写入 d。
// 校验失败时 d 保持不变；invert 只会把 Invert 置为 true，不会清除。
func Translate(d *MatchDescriptor, c CriterionType, arg string, invert bool) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCriterion, uint8(c))
	}
	if len(arg) > MaxPatternLen {
		return fmt.Errorf("%w `%s'", ErrPatternTooLong, arg)
	}

	var pattern [MaxPatternLen]byte
	copy(pattern[:], arg)

	d.Pattern = pattern
	d.Len = uint16(len(arg))
	d.Type = c
	if invert {
		d.Invert = true
	}
	return nil
}

func criterionForOption(optionID int) (CriterionType, bool) {
	switch optionID {
	case optHost:
		return Host, true
	case optURL:
		return URL, true
	case optContent:
		return Content, true
	default:
		return 0, false
	}
}

// Parse 规则编译器的选项回调。data 归调用方所有，仅在成功时写回；
// 成功后置位 flags 供 FinalCheck 检查。
func Parse(optionID int, arg string, invert bool, flags *uint32, data []byte) error {
	c, ok := criterionForOption(optionID)
	if !ok {
		return fmt.Errorf("%w: id %d", xtables.ErrUnknownOption, optionID)
	}

	var d MatchDescriptor
	if err := d.UnmarshalBinary(data); err != nil {
		return err
	}
	if err := Translate(&d, c, arg, invert); err != nil {
		return err
	}

	d.encode(data)
	*flags = 1
	return nil
}

// FinalCheck 至少需要指定一个匹配条件
func FinalCheck(flags uint32) error {
	if flags == 0 {
		return ErrMissingCriterion
	}
	return nil
}
