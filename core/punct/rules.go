package punct

import "strings"

// Rule rewrites one full-width mark in a line.
type Rule interface {
	// Name identifies the rule in reports and tests.
	Name() string
	// Source is the full-width mark the rule consumes.
	Source() rune
	// Target is the ASCII replacement.
	Target() rune
	// Apply rewrites every occurrence of Source in line.
	Apply(line string) string
}

// SimpleRule converts a full-width mark to its half-width form followed by
// one space. A mark at the end of the line is kept with no trailing space.
type SimpleRule struct {
	RuleName string
	From     rune
	To       rune
}

func (r SimpleRule) Name() string { return r.RuleName }
func (r SimpleRule) Source() rune { return r.From }
func (r SimpleRule) Target() rune { return r.To }

// Joiner is the separator placed between fragments.
func (r SimpleRule) Joiner() string { return string(r.To) + " " }

func (r SimpleRule) Apply(line string) string {
	if !strings.ContainsRune(line, r.From) {
		return strip(line)
	}
	frags := fragments(line, r.From)
	if endsWithMark(line, r.From) {
		frags = append(frags, "")
	}
	return strip(strings.Join(frags, r.Joiner()))
}

// Side selects the opening or closing half of a bracket or quote pair.
type Side int

const (
	// Open marks such as （ and “ take a space before them.
	Open Side = iota
	// Close marks such as ） and ” take a space after them unless the next
	// fragment starts with a character from the rule's suppress set.
	Close
)

func (s Side) String() string {
	if s == Open {
		return "open"
	}
	return "close"
}

// BracketRule converts one half of a full-width bracket or quote pair.
type BracketRule struct {
	RuleName string
	From     rune
	To       rune
	Side     Side
	// Suppress lists the characters that, when they start the following
	// fragment, remove the space after a closing mark. Unused for Open.
	Suppress string
}

func (r BracketRule) Name() string { return r.RuleName }
func (r BracketRule) Source() rune { return r.From }
func (r BracketRule) Target() rune { return r.To }

func (r BracketRule) Apply(line string) string {
	if !strings.ContainsRune(line, r.From) {
		return strip(line)
	}
	if r.Side == Open {
		return r.applyOpen(line)
	}
	return r.applyClose(line)
}

// applyOpen joins with " X" as a separator only. There is no trailing-mark
// case, and the opener is never prepended to the first fragment: an opening
// mark that starts or ends the line is dropped.
func (r BracketRule) applyOpen(line string) string {
	return strip(strings.Join(fragments(line, r.From), " "+string(r.To)))
}

func (r BracketRule) applyClose(line string) string {
	frags := fragments(line, r.From)

	var b strings.Builder
	b.Grow(len(line) + len(frags))
	for i, f := range frags {
		b.WriteString(f)
		if i == len(frags)-1 {
			break
		}
		b.WriteRune(r.To)
		if !strings.ContainsRune(r.Suppress, firstRune(frags[i+1])) {
			b.WriteByte(' ')
		}
	}
	if endsWithMark(line, r.From) {
		b.WriteRune(r.To)
	}
	return strip(b.String())
}

// closeSuppress is the set of characters that glue to a preceding closer.
const closeSuppress = ",.:;?!"

var pipeline = []Rule{
	SimpleRule{RuleName: "comma", From: '，', To: ','},
	SimpleRule{RuleName: "dun-comma", From: '、', To: ','},
	SimpleRule{RuleName: "period", From: '。', To: '.'},
	SimpleRule{RuleName: "colon", From: '：', To: ':'},
	SimpleRule{RuleName: "semicolon", From: '；', To: ';'},
	SimpleRule{RuleName: "question", From: '？', To: '?'},
	SimpleRule{RuleName: "exclamation", From: '！', To: '!'},
	BracketRule{RuleName: "open-paren", From: '（', To: '(', Side: Open},
	BracketRule{RuleName: "close-paren", From: '）', To: ')', Side: Close, Suppress: closeSuppress},
	BracketRule{RuleName: "open-quote", From: '“', To: '"', Side: Open},
	// A closing quote also glues to a following close paren.
	BracketRule{RuleName: "close-quote", From: '”', To: '"', Side: Close, Suppress: closeSuppress + ")"},
}

// Rules returns the rewrite rules in pipeline order. The slice is a copy.
func Rules() []Rule {
	out := make([]Rule, len(pipeline))
	copy(out, pipeline)
	return out
}

// Lookup returns the rule named name.
func Lookup(name string) (Rule, bool) {
	for _, r := range pipeline {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}
