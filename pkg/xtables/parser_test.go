package xtables

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

// newRecorderMatch 返回一个把选项写入数据区的测试扩展：
// data[0] 选项标识，data[1] 取反标记，data[2:] 参数
func newRecorderMatch(exclusive bool) *Match {
	return &Match{
		Name:          "recorder",
		Version:       Version,
		Size:          Align(20),
		UserspaceSize: Align(20),
		Exclusive:     exclusive,
		ExtraOpts: []Option{
			{Name: "alpha", HasArg: true, Val: 'a'},
			{Name: "beta", HasArg: true, Val: 'b'},
			{Name: "alphabet", HasArg: true, Val: 'A'},
			{Name: "flag", HasArg: false, Val: 'f'},
		},
		Init: func(data []byte, nfcache *uint32) {
			*nfcache |= NFCUnknown
		},
		Parse: func(optionID int, arg string, invert bool, flags *uint32, data []byte) error {
			if arg == "bad" {
				return errRejected
			}
			data[0] = byte(optionID)
			if invert {
				data[1] = 1
			}
			copy(data[2:], arg)
			*flags = 1
			return nil
		},
		FinalCheck: func(flags uint32) error {
			if flags == 0 {
				return errors.New("need an option")
			}
			return nil
		},
		Print: func(w io.Writer, data []byte, numeric bool) {
			io.WriteString(w, "RECORDER "+string(data[0])+" ")
		},
		Save: func(w io.Writer, data []byte) {
			io.WriteString(w, "--"+string(data[0])+" ")
		},
	}
}

func newTestRegistry(exclusive bool) *Registry {
	reg := NewRegistry()
	reg.Register(newRecorderMatch(exclusive))
	return reg
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 0, Align(0))
	assert.Equal(t, 8, Align(1))
	assert.Equal(t, 264, Align(261))
	assert.Equal(t, 264, Align(264))
}

func TestParseMatch(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		wantID     byte
		wantInvert bool
		wantArg    string
		wantErr    error
	}{
		{name: "普通参数", args: []string{"--alpha", "x"}, wantID: 'a', wantArg: "x"},
		{name: "参数前取反", args: []string{"--beta", "!", "y"}, wantID: 'b', wantInvert: true, wantArg: "y"},
		{name: "选项前取反", args: []string{"!", "--alpha", "z"}, wantID: 'a', wantInvert: true, wantArg: "z"},
		{name: "无参数选项", args: []string{"--flag"}, wantID: 'f'},
		{name: "重复取反", args: []string{"!", "--alpha", "!", "z"}, wantErr: ErrBadInvert},
		{name: "取反后无内容", args: []string{"!"}, wantErr: ErrBadInvert},
		{name: "缺少参数", args: []string{"--alpha"}, wantErr: ErrMissingArgument},
		{name: "取反后缺少参数", args: []string{"--alpha", "!"}, wantErr: ErrMissingArgument},
		{name: "未知选项", args: []string{"--gamma", "x"}, wantErr: ErrUnknownOption},
		{name: "多余参数", args: []string{"x"}, wantErr: ErrUnknownOption},
		{name: "扩展拒绝参数", args: []string{"--alpha", "bad"}, wantErr: errRejected},
		{name: "等号形式", args: []string{"--beta=y"}, wantID: 'b', wantArg: "y"},
		{name: "等号形式选项前取反", args: []string{"!", "--beta=y"}, wantID: 'b', wantInvert: true, wantArg: "y"},
		{name: "等号形式参数为!", args: []string{"--beta=!"}, wantID: 'b', wantArg: "!"},
		{name: "等号形式空参数", args: []string{"--beta="}, wantID: 'b'},
		{name: "等号形式参数含等号", args: []string{"--beta=k=v"}, wantID: 'b', wantArg: "k=v"},
		{name: "无参数选项带值", args: []string{"--flag=x"}, wantErr: ErrExtraArgument},
		{name: "选项前缀", args: []string{"--be", "y"}, wantID: 'b', wantArg: "y"},
		{name: "前缀完全匹配优先", args: []string{"--alpha", "x"}, wantID: 'a', wantArg: "x"},
		{name: "选项前缀不唯一", args: []string{"--alp", "x"}, wantErr: ErrAmbiguousOption},
		{name: "空选项名", args: []string{"--", "x"}, wantErr: ErrUnknownOption},
	}

	reg := newTestRegistry(false)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := ParseMatch(reg, "recorder", tc.args)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				var perr *ParameterError
				assert.ErrorAs(t, err, &perr)
				assert.Nil(t, entry)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantID, entry.Data[0])
			assert.Equal(t, tc.wantInvert, entry.Data[1] == 1)
			assert.Equal(t, tc.wantArg, string(bytes.TrimRight(entry.Data[2:], "\x00")))
			assert.Equal(t, NFCUnknown, entry.NFCache)
			assert.Len(t, entry.Data, Align(20))
		})
	}
}

func TestParseMatchFinalCheck(t *testing.T) {
	_, err := ParseMatch(newTestRegistry(false), "recorder", nil)
	var perr *ParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "recorder", perr.Match)
	assert.Empty(t, perr.Option)
}

func TestParseMatchExclusive(t *testing.T) {
	args := []string{"--alpha", "x", "--beta", "y"}

	entry, err := ParseMatch(newTestRegistry(false), "recorder", args)
	require.NoError(t, err)
	assert.Equal(t, byte('b'), entry.Data[0])

	_, err = ParseMatch(newTestRegistry(true), "recorder", args)
	assert.ErrorIs(t, err, ErrOptionConflict)
	assert.Contains(t, err.Error(), "--beta")
}

func TestParseMatchUnknownMatch(t *testing.T) {
	_, err := ParseMatch(NewRegistry(), "missing", []string{"--alpha", "x"})
	assert.ErrorIs(t, err, ErrUnknownMatch)
}

func TestEntry(t *testing.T) {
	reg := newTestRegistry(false)
	entry, err := ParseMatch(reg, "recorder", []string{"--alpha", "x"})
	require.NoError(t, err)

	assert.Equal(t, "RECORDER a ", entry.String())
	assert.Equal(t, "--a ", entry.SaveString())

	restored, err := NewEntry(reg, "recorder", entry.Data)
	require.NoError(t, err)
	assert.Equal(t, entry.Data, restored.Data)

	// 恢复的实例持有独立的数据副本
	restored.Data[0] = 'z'
	assert.Equal(t, byte('a'), entry.Data[0])

	_, err = NewEntry(reg, "recorder", entry.Data[:3])
	assert.ErrorIs(t, err, ErrDataSize)
	_, err = NewEntry(reg, "nope", entry.Data)
	assert.ErrorIs(t, err, ErrUnknownMatch)
}
