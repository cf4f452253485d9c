package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Styles parses the inline style attribute of n. Malformed declarations
// after the last good one are dropped.
func Styles(n *html.Node) []*css.Declaration {
	raw, ok := Attr(n, "style")
	if !ok {
		return nil
	}
	return ParseStyle(raw)
}

// ParseStyle parses a declaration list such as "width: 8px; height: 8px".
func ParseStyle(raw string) []*css.Declaration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	// The parser only closes a declaration on ';'.
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	decls, _ := parser.ParseDeclarations(raw)
	out := decls[:0]
	for _, d := range decls {
		if d.Property != "" {
			d.Property = strings.ToLower(d.Property)
			out = append(out, d)
		}
	}
	return out
}

// Style returns the value of prop in n's inline style, or "".
func Style(n *html.Node, prop string) string {
	for _, d := range Styles(n) {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// SetStyle sets prop to value in n's inline style, keeping declaration order.
func SetStyle(n *html.Node, prop, value string) {
	decls := Styles(n)
	for _, d := range decls {
		if d.Property == prop {
			d.Value = value
			d.Important = false
			writeStyles(n, decls)
			return
		}
	}
	decls = append(decls, &css.Declaration{Property: prop, Value: value})
	writeStyles(n, decls)
}

// MergeStyle applies every declaration in raw on top of n's inline style.
func MergeStyle(n *html.Node, raw string) {
	decls := Styles(n)
	for _, add := range ParseStyle(raw) {
		replaced := false
		for _, d := range decls {
			if d.Property == add.Property {
				d.Value, d.Important = add.Value, add.Important
				replaced = true
				break
			}
		}
		if !replaced {
			decls = append(decls, add)
		}
	}
	writeStyles(n, decls)
}

// RemoveStyle drops each prop from n's inline style. An emptied style
// attribute is removed.
func RemoveStyle(n *html.Node, props ...string) {
	decls := Styles(n)
	if decls == nil {
		return
	}
	kept := decls[:0]
	for _, d := range decls {
		drop := false
		for _, p := range props {
			if d.Property == p {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, d)
		}
	}
	writeStyles(n, kept)
}

// RemoveStyleValue drops prop only when its value is one of values.
func RemoveStyleValue(n *html.Node, prop string, values ...string) bool {
	decls := Styles(n)
	kept := decls[:0]
	removed := false
	for _, d := range decls {
		if d.Property == prop {
			v := strings.ToLower(strings.TrimSpace(d.Value))
			match := false
			for _, want := range values {
				if v == want {
					match = true
					break
				}
			}
			if match {
				removed = true
				continue
			}
		}
		kept = append(kept, d)
	}
	if removed {
		writeStyles(n, kept)
	}
	return removed
}

// SetDisplay is SetStyle for the display property.
func SetDisplay(n *html.Node, value string) {
	SetStyle(n, "display", value)
}

// Hidden reports whether n carries an inline display: none.
func Hidden(n *html.Node) bool {
	return strings.EqualFold(Style(n, "display"), "none")
}

func writeStyles(n *html.Node, decls []*css.Declaration) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	SetAttr(n, "style", strings.Join(parts, " "))
}
