package webstr

import "errors"

var (
	// ErrPatternTooLong 模式串超过 MaxPatternLen，规则构建中止，不做截断
	ErrPatternTooLong = errors.New("WEBSTR too long")
	// ErrMissingCriterion 规则中没有出现 --host/--url/--content
	ErrMissingCriterion = errors.New("WEBSTR match: You must specify `--webstr'")
	// ErrCorruptedCriterionType 描述结构中的 type 不在枚举范围内
	ErrCorruptedCriterionType = errors.New("corrupted webstr criterion type")
	ErrUnknownCriterion       = errors.New("unknown webstr criterion")
	ErrDescriptorSize         = errors.New("malformed webstr descriptor")
)
