// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package text

import (
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔧 CompileOptions tweaks how a pattern is compiled
type CompileOptions struct {
	Literal    bool // treat pattern and replacement as plain strings
	IgnoreCase bool // case-insensitive matching
	DotAll     bool // . also matches newlines
}

// 🎯 Pattern is a compiled expression paired with its replacement template
type Pattern struct {
	expr        string
	replacement string
	re          *regexp.Regexp
	template    string
}

// 🏭 Compile builds a Pattern from a regular expression and a replacement.
//
// Replacements use backslash references: \1 through \99, \g<1> and \g<name>.
// \\ is a literal backslash and \n, \t, \r, \f, \v, \a are the usual control
// characters. \0 and three-digit escapes such as \101 are octal bytes. A dollar
// sign is always literal.
//
// Matching follows RE2: an empty match directly after a previous match is not
// replaced, so x* over "abxd" yields 4 matches.
func Compile(expr, replacement string, opts CompileOptions) (*Pattern, error) {
	if expr == "" {
		return nil, errors.New("pattern is empty")
	}

	source := expr
	if opts.Literal {
		source = regexp.QuoteMeta(expr)
	}

	var flags string
	if opts.IgnoreCase {
		flags += "i"
	}
	if opts.DotAll {
		flags += "s"
	}
	if flags != "" {
		source = "(?" + flags + ")" + source
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, errors.Errorf("compiling pattern %q: %w", expr, err)
	}

	var template string
	if opts.Literal {
		template = strings.ReplaceAll(replacement, "$", "$$")
	} else {
		template, err = translateTemplate(re, replacement)
		if err != nil {
			return nil, errors.Errorf("parsing replacement %q: %w", replacement, err)
		}
	}

	return &Pattern{
		expr:        expr,
		replacement: replacement,
		re:          re,
		template:    template,
	}, nil
}

// String returns the expression as given to Compile
func (p *Pattern) String() string {
	return p.expr
}

// Replacement returns the replacement as given to Compile
func (p *Pattern) Replacement() string {
	return p.replacement
}

// 🔄 Subn replaces every non-overlapping match in s and reports how many were replaced
func (p *Pattern) Subn(s string) (string, int) {
	matches := p.re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, 0
	}

	out := make([]byte, 0, len(s))
	last := 0
	for _, m := range matches {
		out = append(out, s[last:m[0]]...)
		out = p.re.ExpandString(out, p.template, s, m)
		last = m[1]
	}
	out = append(out, s[last:]...)

	return string(out), len(matches)
}

// 🔄 SubnBytes is Subn for byte content. The input slice is never modified.
func (p *Pattern) SubnBytes(b []byte) ([]byte, int) {
	matches := p.re.FindAllSubmatchIndex(b, -1)
	if len(matches) == 0 {
		return b, 0
	}

	out := make([]byte, 0, len(b))
	last := 0
	for _, m := range matches {
		out = append(out, b[last:m[0]]...)
		out = p.re.Expand(out, []byte(p.template), b, m)
		last = m[1]
	}
	out = append(out, b[last:]...)

	return out, len(matches)
}

// translateTemplate rewrites a backslash-style replacement into the ${n} form
// understood by regexp.Expand, validating every group reference against re.
func translateTemplate(re *regexp.Regexp, repl string) (string, error) {
	var b strings.Builder
	b.Grow(len(repl) + 8)

	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		if i+1 >= len(repl) {
			return "", errors.New("trailing backslash")
		}
		i++
		c = repl[i]

		switch {
		case c == '0':
			// \0 takes up to two more octal digits
			val := 0
			for n := 0; n < 2 && i+1 < len(repl) && isOctal(repl[i+1]); n++ {
				i++
				val = val*8 + int(repl[i]-'0')
			}
			writeLiteral(&b, byte(val))
		case isOctal(c) && i+2 < len(repl) && isOctal(repl[i+1]) && isOctal(repl[i+2]):
			val := int(c-'0')*64 + int(repl[i+1]-'0')*8 + int(repl[i+2]-'0')
			if val > 0o377 {
				return "", errors.Errorf("octal escape value \\%s outside of range 0-0o377", repl[i:i+3])
			}
			writeLiteral(&b, byte(val))
			i += 2
		case c >= '1' && c <= '9':
			num := int(c - '0')
			if i+1 < len(repl) && isDigit(repl[i+1]) {
				num = num*10 + int(repl[i+1]-'0')
				i++
			}
			if num > re.NumSubexp() {
				return "", errors.Errorf("invalid group reference %d", num)
			}
			b.WriteString("${" + strconv.Itoa(num) + "}")
		case c == 'g':
			end := strings.IndexByte(repl[i:], '>')
			if i+1 >= len(repl) || repl[i+1] != '<' || end < 0 {
				return "", errors.Errorf("missing group name at position %d", i-1)
			}
			name := repl[i+2 : i+end]
			if err := checkGroup(re, name); err != nil {
				return "", err
			}
			b.WriteString("${" + name + "}")
			i += end
		case c == '\\':
			b.WriteByte('\\')
		case c == 'n':
			b.WriteByte('\n')
		case c == 't':
			b.WriteByte('\t')
		case c == 'r':
			b.WriteByte('\r')
		case c == 'f':
			b.WriteByte('\f')
		case c == 'v':
			b.WriteByte('\v')
		case c == 'a':
			b.WriteByte('\a')
		case isLetter(c):
			return "", errors.Errorf("bad escape \\%c", c)
		default:
			// unknown punctuation escapes are kept as written
			b.WriteByte('\\')
			if c == '$' {
				b.WriteString("$$")
			} else {
				b.WriteByte(c)
			}
		}
	}

	return b.String(), nil
}

func checkGroup(re *regexp.Regexp, name string) error {
	if name == "" {
		return errors.New("missing group name")
	}
	if num, err := strconv.Atoi(name); err == nil {
		if num < 0 || num > re.NumSubexp() {
			return errors.Errorf("invalid group reference %d", num)
		}
		return nil
	}
	if re.SubexpIndex(name) < 0 {
		return errors.Errorf("unknown group name %q", name)
	}
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

func writeLiteral(b *strings.Builder, c byte) {
	if c == '$' {
		b.WriteString("$$")
		return
	}
	b.WriteByte(c)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
