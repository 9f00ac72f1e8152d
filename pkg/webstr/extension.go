package webstr

import (
	"fmt"
	"io"

	"github.com/haolipeng/webstr/pkg/xtables"
)

// Name 扩展名称
const Name = "webstr"

func init() {
	xtables.RegisterMatch(Match())
}

// Match 返回注册给规则编译器的扩展记录
func Match() *xtables.Match {
	return &xtables.Match{
		Name:          Name,
		Version:       xtables.Version,
		Size:          Size,
		UserspaceSize: Size,
		ExtraOpts: []xtables.Option{
			{Name: "host", HasArg: true, Val: optHost},
			{Name: "url", HasArg: true, Val: optURL},
			{Name: "content", HasArg: true, Val: optContent},
		},
		Exclusive:  true,
		Help:       Help,
		Init:       Init,
		Parse:      Parse,
		FinalCheck: FinalCheck,
		Print:      Print,
		Save:       Save,
	}
}

// Help 输出用法
func Help(w io.Writer) {
	fmt.Fprintf(w,
		"WEBSTR match v%s options:\n"+
			"--webstr [!] host            Match a http string in a packet\n"+
			"--webstr [!] url             Match a http string in a packet\n"+
			"--webstr [!] content         Match a http string in a packet\n",
		xtables.Version)
	fmt.Fprintln(w)
}

// Init 描述结构由规则编译器清零分配，这里只需要标记缓存位
func Init(data []byte, nfcache *uint32) {
	*nfcache |= xtables.NFCUnknown
}
