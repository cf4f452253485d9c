package walker

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never entered.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".pagedit",
	".idea",
	".vscode",
}

// DefaultIncludes match the page files a batch run considers.
var DefaultIncludes = []string{"**/*.html", "**/*.htm"}

func excludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// Filter decides which relative paths are pages. A path is a page when it
// matches an include pattern and neither an exclude pattern nor an ignore
// rule. Include and exclude patterns are tried against the whole path and
// against its base name.
type Filter struct {
	include []string
	exclude []string
	ignore  []string
}

// NewFilter compiles include and exclude patterns. An empty include list
// means DefaultIncludes.
func NewFilter(include, exclude []string) (*Filter, error) {
	if len(include) == 0 {
		include = DefaultIncludes
	}
	f := &Filter{}
	for _, set := range []struct {
		dst *[]string
		src []string
	}{{&f.include, include}, {&f.exclude, exclude}} {
		for _, p := range set.src {
			p = filepath.ToSlash(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("walker: invalid pattern %q", p)
			}
			*set.dst = append(*set.dst, p)
		}
	}
	return f, nil
}

// Ignore adds .gitignore rules. Each rule becomes doublestar patterns: an
// unanchored rule matches at any depth, a rule with a trailing slash matches
// directories only. Negated rules are not supported and are dropped.
func (f *Filter) Ignore(rules ...string) {
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" || strings.HasPrefix(rule, "#") || strings.HasPrefix(rule, "!") {
			continue
		}
		dirOnly := strings.HasSuffix(rule, "/")
		anchored := strings.Contains(strings.TrimSuffix(rule, "/"), "/")
		rule = strings.Trim(rule, "/")
		if rule == "" {
			continue
		}
		if !anchored {
			rule = "**/" + rule
		}
		f.ignore = append(f.ignore, rule+"/**")
		if !dirOnly {
			f.ignore = append(f.ignore, rule)
		}
	}
}

// Match reports whether relPath is a page.
func (f *Filter) Match(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	if matchesFull(rel, f.ignore) {
		return false
	}
	return matchesAny(rel, f.include) && !matchesAny(rel, f.exclude)
}

func matchesAny(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func matchesFull(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
