package entities

import (
	"regexp"
	"strings"
)

// inputSeparator splits a file glob from an input name in one exclude token.
const inputSeparator = "#"

// ExcludeRule is one parsed token of an exclude directive. A rule with an
// empty InputName drops whole manifests; otherwise it drops a single input
// from manifests matching the glob.
type ExcludeRule struct {
	FileGlob  string
	InputName string
}

// String renders the rule back in directive form.
func (r ExcludeRule) String() string {
	if r.InputName == "" {
		return r.FileGlob
	}
	return r.FileGlob + inputSeparator + r.InputName
}

// ExcludeRules is the parsed form of a comma-separated exclude directive.
type ExcludeRules []ExcludeRule

// ParseExcludeRules splits a comma-separated exclude directive into rules.
// A token containing "#" splits into (file glob, input name) on the first
// separator; anything else is a pure file glob. Blank tokens are dropped.
func ParseExcludeRules(directive string) ExcludeRules {
	var rules ExcludeRules
	for _, token := range strings.Split(directive, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		glob, input, found := strings.Cut(token, inputSeparator)
		if found {
			rules = append(rules, ExcludeRule{FileGlob: glob, InputName: input})
		} else {
			rules = append(rules, ExcludeRule{FileGlob: token})
		}
	}
	return rules
}

// ExcludesFile reports whether any file-level rule matches the path.
// File-level exclusion short-circuits: a matching manifest is dropped
// entirely and its input-level rules are never consulted.
func (rules ExcludeRules) ExcludesFile(path string) bool {
	for _, rule := range rules {
		if rule.InputName == "" && matchGlob(rule.FileGlob, path) {
			return true
		}
	}
	return false
}

// ExcludedInputsFor collects the input names excluded for the given path by
// input-level rules, in directive order.
func (rules ExcludeRules) ExcludedInputsFor(path string) []string {
	var inputs []string
	for _, rule := range rules {
		if rule.InputName != "" && matchGlob(rule.FileGlob, path) {
			inputs = append(inputs, rule.InputName)
		}
	}
	return inputs
}

// matchGlob reports whether the glob pattern matches the slash-separated
// path. "*" crosses directory separators, so "services/*" also matches
// nested manifests; "?" matches one character and "[seq]" / "[!seq]" match
// character classes.
func matchGlob(pattern, path string) bool {
	re, err := regexp.Compile(globToRegexp(pattern))
	if err != nil {
		return pattern == path
	}
	return re.MatchString(path)
}

func globToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + class + "]")
			i += end + 1
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}
