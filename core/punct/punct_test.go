package punct

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		// comma
		{"comma", "你好，世界", "你好, 世界"},
		{"comma repeated", "第一，第二，第三", "第一, 第二, 第三"},
		{"comma mid line", "末尾逗号，下一句", "末尾逗号, 下一句"},
		{"comma trailing", "A，B，", "A, B,"},
		// dun-comma
		{"dun comma", "苹果、香蕉、橙子", "苹果, 香蕉, 橙子"},
		{"dun comma short", "一、二、三", "一, 二, 三"},
		{"dun comma mid line", "末尾顿号、下一句", "末尾顿号, 下一句"},
		// period
		{"period", "这是一句话。下一句", "这是一句话. 下一句"},
		{"period repeated", "第一句。第二句。下一句", "第一句. 第二句. 下一句"},
		// colon
		{"colon", "标题：内容", "标题: 内容"},
		{"colon time", "时间：下午三点", "时间: 下午三点"},
		// semicolon
		{"semicolon", "第一部分；第二部分", "第一部分; 第二部分"},
		{"semicolon with latin", "A组；B组；C组", "A 组; B 组; C 组"},
		// question and exclamation
		{"question", "你好吗？下一句", "你好吗? 下一句"},
		{"question repeated", "什么？为什么？下一句", "什么? 为什么? 下一句"},
		{"exclamation", "太好了！下一句", "太好了! 下一句"},
		{"exclamation repeated", "哇！真的！下一句", "哇! 真的! 下一句"},
		// parens
		{"paren trailing", "这是（括号内容）", "这是 (括号内容)"},
		{"paren twice", "多个（第一个）和（第二个）", "多个 (第一个) 和 (第二个)"},
		{"paren empty", "末尾括号（）下一句", "末尾括号 () 下一句"},
		{"paren leading opener dropped", "（开头括号）内容", "开头括号) 内容"},
		{"paren leading then comma", "（内容），后面是逗号", "内容), 后面是逗号"},
		{"paren then comma", "这是（内容），后面是逗号", "这是 (内容), 后面是逗号"},
		{"paren then period", "这是（内容）。后面是句号", "这是 (内容). 后面是句号"},
		{"open paren at end dropped", "句子（", "句子"},
		// ASCII quotes pass through
		{"ascii quote", `他说 "你好"`, `他说 "你好"`},
		{"ascii quote only", `"引用内容"`, `"引用内容"`},
		{"ascii quote trailing space", `多个 "第一个" 和 "第二个" `, `多个 "第一个" 和 "第二个"`},
		{"ascii quote comma", `"内容"，后面是逗号`, `"内容", 后面是逗号`},
		{"ascii quote period", `"内容"。后面是句号`, `"内容". 后面是句号`},
		// curly quotes
		{"curly quote comma", "他说“你好”，然后走了", `他说 "你好", 然后走了`},
		{"curly quote leading opener dropped", "“Python”是一种编程语言，它很流行。下一句", `Python" 是一种编程语言, 它很流行. 下一句`},
		{"curly quote leading short", "“引用”内容", `引用" 内容`},
		{"curly quotes twice", "从“A”到“B”只需1天。", `从 "A" 到 "B" 只需 1 天.`},
		{"curly quote before paren", "（他说“好”）", `他说 "好")`},
		// CJK/Latin spacing
		{"latin run", "中文Eng中文", "中文 Eng 中文"},
		{"latin and punctuation", "这是Python代码，它使用Flask框架。", "这是 Python 代码, 它使用 Flask 框架."},
		{"latin with space", "中文Hello World中文", "中文 Hello World 中文"},
		{"latin leading", "Python是一种编程语言", "Python 是一种编程语言"},
		{"digits", "价格是100元", "价格是 100 元"},
		{"letter digit stays joined", "Python3是最新版本", "Python3 是最新版本"},
		{"versions", "使用Python3和Flask2框架", "使用 Python3 和 Flask2 框架"},
		{"decimal", "版本3.11已发布", "版本 3.11 已发布"},
		// combined
		{"list with paren", "这是第一个、第二个、第三个（注意括号）！下一句", "这是第一个, 第二个, 第三个 (注意括号)! 下一句"},
		{"prices", "价格：100元；数量：5个。下一句", "价格: 100 元; 数量: 5 个. 下一句"},
		{"bold colon", "**参考资料：**", "**参考资料:**"},
		{"bold sentence", "注意：**这很着急，也很重要。**", "注意: **这很着急, 也很重要.**"},
		// degenerate
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"plain ascii trimmed", "  hello world  ", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeMultiline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lf", "你好，世界\n中文Eng", "你好, 世界\n中文 Eng"},
		{"crlf", "一、二\r\n三。四", "一, 二\n三. 四"},
		{"cr", "一、二\r三", "一, 二\n三"},
		{"trailing newline dropped", "标题：内容\n", "标题: 内容"},
		{"blank lines kept", "a\n\n\nb", "a\n\n\nb"},
		{"only newline", "\n", ""},
		{"unicode separators", "一\u2028二\u2029三", "一\n二\n三"},
		{"lines are independent", "**开头\n结尾 **", "**开头\n结尾 **"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeFixedPoint(t *testing.T) {
	inputs := []string{
		"你好，世界",
		"这是第一个、第二个、第三个（注意括号）！下一句",
		"注意：**这很着急，也很重要。**",
		"从“A”到“B”只需1天。",
		"** 中文 ** 和 ** Eng ** 混排：结束",
		"plain ascii",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not a fixed point for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizePreservesMarkCount(t *testing.T) {
	for _, r := range Rules() {
		if br, ok := r.(BracketRule); ok && br.Side == Open {
			continue // an open mark with nothing after it is dropped
		}
		var b strings.Builder
		k := 5
		for i := 0; i < k; i++ {
			b.WriteString("文字")
			b.WriteRune(r.Source())
		}
		b.WriteString("结尾")
		out := r.Apply(b.String())
		if got := strings.Count(out, string(r.Target())); got != k {
			t.Errorf("%s: %d %q in %q, want %d", r.Name(), got, r.Target(), out, k)
		}
		if strings.ContainsRune(out, r.Source()) {
			t.Errorf("%s: source mark left in %q", r.Name(), out)
		}
	}
}

func TestNormalizeLineMatchesTrace(t *testing.T) {
	in := "注意：**这很着急，也很重要。**"
	trace := TraceLine(in)
	if len(trace) != len(Rules())+3 {
		t.Fatalf("len(trace) = %d, want %d", len(trace), len(Rules())+3)
	}
	if trace[0].Stage != "input" || trace[0].Line != in {
		t.Errorf("first stage = %+v", trace[0])
	}
	last := trace[len(trace)-1]
	if last.Stage != "markers" || last.Line != NormalizeLine(in) {
		t.Errorf("last stage = %+v, want markers/%q", last, NormalizeLine(in))
	}
	// the colon pass leaves the space the marker pass removes
	colon := trace[4]
	if colon.Stage != "colon" {
		t.Fatalf("stage 4 = %q, want colon", colon.Stage)
	}
	if !strings.HasSuffix(colon.Line, ". **") {
		t.Errorf("period/colon output = %q, want trailing \". **\"", colon.Line)
	}
}

func FuzzNormalize(f *testing.F) {
	f.Add("你好，世界")
	f.Add("**参考资料：**")
	f.Add("（开头）“引用”，结尾（")
	f.Add("中文Eng123中文\r\n下一行")
	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			t.Skip()
		}
		once := Normalize(s)
		if strings.ContainsAny(once, "，、。：；？！（）“”") {
			t.Fatalf("full-width mark left in %q (from %q)", once, s)
		}
		if twice := Normalize(once); twice != once {
			t.Fatalf("not a fixed point: %q -> %q -> %q", s, once, twice)
		}
	})
}
