package xtables

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMatch    = errors.New("unknown match")
	ErrUnknownOption   = errors.New("unknown option")
	ErrMissingArgument = errors.New("option requires an argument")
	ErrExtraArgument   = errors.New("option doesn't allow an argument")
	ErrAmbiguousOption = errors.New("option is ambiguous")
	ErrBadInvert       = errors.New("misplaced `!'")
	ErrOptionConflict  = errors.New("option conflicts with an earlier option of the same match")
	ErrDataSize        = errors.New("match data size mismatch")
)

// ParameterError 参数错误，对应规则编译器的 PARAMETER_PROBLEM，
// 当前规则构建失败，其他规则不受影响
type ParameterError struct {
	Match  string
	Option string
	Err    error
}

func (e *ParameterError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("%s match: %v", e.Match, e.Err)
	}
	return fmt.Sprintf("%s match: --%s: %v", e.Match, e.Option, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

func newParameterError(match, option string, err error) error {
	return &ParameterError{Match: match, Option: option, Err: err}
}
