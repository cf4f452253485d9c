package serializer

import (
	"log"
	"strings"
)

// FormatOptions bounds and shapes the pretty printer.
type FormatOptions struct {
	MaxChars int    `koanf:"max_chars" yaml:"max_chars"`
	MaxLines int    `koanf:"max_lines" yaml:"max_lines"`
	Indent   string `koanf:"indent" yaml:"indent"`
}

// DefaultFormat is used for zero FormatOptions fields.
var DefaultFormat = FormatOptions{
	MaxChars: 5_000_000,
	MaxLines: 100_000,
	Indent:   "  ",
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultFormat.MaxChars
	}
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultFormat.MaxLines
	}
	if o.Indent == "" {
		o.Indent = DefaultFormat.Indent
	}
	return o
}

// rawElements keep their content byte for byte.
var rawElements = []string{"script", "style", "pre", "textarea"}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

type line struct {
	text string
	raw  bool
}

// Format breaks adjacent tags onto their own lines and indents them by
// nesting depth. Markup larger than the configured bounds is returned
// unchanged, and so is any input the printer fails on.
func Format(s string, opts FormatOptions) (out string) {
	opts = opts.withDefaults()
	if len(s) > opts.MaxChars {
		log.Printf("serializer: %d characters, skipping formatting", len(s))
		return s
	}
	if strings.Count(s, "\n")+1 > opts.MaxLines {
		log.Printf("serializer: more than %d lines, skipping formatting", opts.MaxLines)
		return s
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("serializer: formatting failed: %v", r)
			out = s
		}
	}()

	lines := splitLines(s)
	if len(lines) > opts.MaxLines {
		log.Printf("serializer: %d lines, skipping formatting", len(lines))
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	depth := 0
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.raw {
			b.WriteString(strings.Repeat(opts.Indent, depth))
			b.WriteString(l.text)
			continue
		}
		opens, closes := balance(l.text)
		at := depth
		if strings.HasPrefix(l.text, "</") {
			at--
		}
		b.WriteString(strings.Repeat(opts.Indent, max(at, 0)))
		b.WriteString(l.text)
		depth = max(depth+opens-closes, 0)
	}
	return b.String()
}

// splitLines cuts s into trimmed lines, breaking between adjacent tags.
// Raw elements and comments become single verbatim lines.
func splitLines(s string) []line {
	var lines []line
	flush := func(text string) {
		text = strings.ReplaceAll(text, "><", ">\n<")
		for _, l := range strings.Split(text, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, line{text: l})
			}
		}
	}
	for len(s) > 0 {
		start, end := nextRaw(s)
		if start < 0 {
			flush(s)
			break
		}
		flush(s[:start])
		lines = append(lines, line{text: s[start:end], raw: true})
		s = s[end:]
	}
	return lines
}

// nextRaw finds the first comment or raw element in s and returns its
// bounds, or -1.
func nextRaw(s string) (start, end int) {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		rest := s[i:]
		if strings.HasPrefix(rest, "<!--") {
			if j := strings.Index(rest, "-->"); j >= 0 {
				return i, i + j + len("-->")
			}
			return i, len(s)
		}
		for _, tag := range rawElements {
			if !opensTag(rest, tag) {
				continue
			}
			closeTag := "</" + tag
			j := strings.Index(rest, closeTag)
			if j < 0 {
				return i, len(s)
			}
			k := strings.IndexByte(rest[j:], '>')
			if k < 0 {
				return i, len(s)
			}
			return i, i + j + k + 1
		}
	}
	return -1, -1
}

func opensTag(s, tag string) bool {
	if len(s) < len(tag)+2 || !strings.EqualFold(s[1:1+len(tag)], tag) {
		return false
	}
	switch s[1+len(tag)] {
	case '>', ' ', '\t', '\n', '\r', '/':
		return true
	}
	return false
}

// balance counts the element opens and closes on one line.
func balance(l string) (opens, closes int) {
	for i := 0; i < len(l); i++ {
		if l[i] != '<' || i+1 >= len(l) {
			continue
		}
		switch c := l[i+1]; {
		case c == '/':
			closes++
		case c == '!' || c == '?':
		default:
			end := strings.IndexByte(l[i:], '>')
			if end < 0 {
				continue
			}
			tag := l[i+1 : i+end]
			if strings.HasSuffix(tag, "/") {
				continue
			}
			fields := strings.FieldsFunc(tag, func(r rune) bool {
				return r == ' ' || r == '\t' || r == '\n' || r == '/'
			})
			if len(fields) == 0 {
				continue
			}
			if !voidElements[strings.ToLower(fields[0])] {
				opens++
			}
		}
	}
	return opens, closes
}
