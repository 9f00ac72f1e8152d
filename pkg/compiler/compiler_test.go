package compiler

import (
	"strings"
	"testing"

	"github.com/haolipeng/webstr/pkg/metrics"
	"github.com/haolipeng/webstr/pkg/store"
	"github.com/haolipeng/webstr/pkg/webstr"
	"github.com/haolipeng/webstr/pkg/xtables"
	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompiler(roundTrip bool) *Compiler {
	return New(xtables.DefaultRegistry, &metrics.ExtensionMetrics{}, roundTrip)
}

func TestCompileAndRender(t *testing.T) {
	c := newTestCompiler(false)

	rec, err := c.Compile("block_ads", []string{"--host", "!", "ads.example.com"})
	require.NoError(t, err)
	assert.Equal(t, webstr.Name, rec.Match)
	assert.Len(t, rec.Data, webstr.Size)

	listing, err := c.Render(rec)
	require.NoError(t, err)
	assert.Equal(t, "WEBSTR match host !ads.example.com ", listing.Verbose)
	assert.Equal(t, "--webstr !ads.example.com ", listing.Save)
	assert.Equal(t, []string{"--host", "!", "ads.example.com"}, listing.Args)

	stats := c.Metrics().GetStats()
	assert.Equal(t, uint64(1), stats["rules_parsed"])
	assert.Equal(t, uint64(1), stats["rendered"])
}

func TestRenderRoundTrip(t *testing.T) {
	c := newTestCompiler(true)

	rec, err := c.Compile("r1", []string{"!", "--content", "bad word"})
	require.NoError(t, err)

	listing, err := c.Render(rec)
	require.NoError(t, err)
	assert.Equal(t, `--content \! 'bad word' `, listing.Save)

	again, err := c.Compile("r1", []string{"--content", "!", "bad word"})
	require.NoError(t, err)
	assert.Equal(t, rec.Data, again.Data)
}

// 保存形式经过 shell 分词后重新编译，得到完全相同的描述结构
func TestRenderedSaveLineRoundTrip(t *testing.T) {
	c := newTestCompiler(true)

	patterns := []string{
		"$HOME",
		"`id`",
		"$(id)",
		"a\tb",
		"a\nb",
		"it's",
		`say "hi"`,
		`back\slash`,
		"~root",
		"*.exe",
		"a;b|c&d",
		"\xff\xfe",
		"!",
		"--url",
		"",
		"中文域名.cn",
	}

	for _, pattern := range patterns {
		for _, opt := range []string{"--host", "--url", "--content"} {
			for _, invert := range []bool{false, true} {
				args := []string{opt, pattern}
				if invert {
					args = []string{opt, "!", pattern}
				}
				rec, err := c.Compile("r", args)
				require.NoError(t, err, "%q", args)

				listing, err := c.Render(rec)
				require.NoError(t, err)

				words, err := shellquote.Split(listing.Save)
				require.NoError(t, err, listing.Save)

				again, err := c.Compile("r", words)
				require.NoError(t, err, "%q", words)
				assert.Equal(t, rec.Data, again.Data, "save line %q", listing.Save)
			}
		}
	}
}

func TestCompileErrors(t *testing.T) {
	c := newTestCompiler(false)

	_, err := c.Compile("long", []string{"--url", strings.Repeat("a", webstr.MaxPatternLen+1)})
	assert.ErrorIs(t, err, webstr.ErrPatternTooLong)

	_, err = c.Compile("empty", nil)
	assert.ErrorIs(t, err, webstr.ErrMissingCriterion)

	_, err = c.Compile("twice", []string{"--host", "a", "--url", "b"})
	assert.ErrorIs(t, err, xtables.ErrOptionConflict)

	stats := c.Metrics().GetStats()
	assert.Equal(t, uint64(3), stats["parse_errors"])
	assert.Equal(t, uint64(1), stats["pattern_too_long"])
	assert.Equal(t, uint64(1), stats["missing_criterion"])
	assert.Equal(t, uint64(0), stats["rules_parsed"])
}

func TestRenderCorrupted(t *testing.T) {
	c := newTestCompiler(true)

	rec, err := c.Compile("r", []string{"--host", "example.com"})
	require.NoError(t, err)
	rec.Data[260] = 0x7f

	listing, err := c.Render(rec)
	require.NoError(t, err)
	assert.Equal(t, "WEBSTR match ERROR example.com ", listing.Verbose)
	assert.Equal(t, "--webstr example.com ", listing.Save)
	assert.Equal(t, uint64(1), c.Metrics().GetStats()["corrupted_rendered"])

	_, err = c.Render(&store.Record{RuleID: "x", Match: webstr.Name, Data: []byte{1, 2}})
	assert.ErrorIs(t, err, xtables.ErrDataSize)
}

func TestFormatArgs(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "普通参数", args: []string{"--host", "a.com"}, want: "--host a.com "},
		{name: "空参数", args: []string{"--url", ""}, want: "--url '' "},
		{name: "含空格和引号", args: []string{"--content", `say "hi"`}, want: `--content 'say "hi"' `},
		{name: "变量展开", args: []string{"--content", "$HOME"}, want: `--content \$HOME `},
		{name: "命令替换", args: []string{"--content", "`id`"}, want: "--content \\`id\\` "},
		{name: "制表符", args: []string{"--content", "a\tb"}, want: "--content 'a\tb' "},
		{name: "取反标记", args: []string{"--host", "!", "x"}, want: `--host \! x `},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatArgs(tc.args))
		})
	}
}
