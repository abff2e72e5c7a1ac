package substitution

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
)

// Rule is a regex replacement applied line by line.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// descriptorTags maps element names to the bracketed token that replaces
// their body. The three version elements share one token.
var descriptorTags = []struct {
	element string
	token   string
}{
	{"Authors", TagAuthor},
	{"Company", TagCompany},
	{"PackageTags", TagTags},
	{"Description", TagDescription},
	{"PackageLicenseExpression", TagLicense},
	{"Version", TagVersion},
	{"FileVersion", TagVersion},
	{"AssemblyVersion", TagVersion},
}

// TagRules returns rules that blank out descriptor metadata elements, e.g.
// <Authors>Jane</Authors> → <Authors>[AUTHOR]</Authors>.
func TagRules() []Rule {
	rules := make([]Rule, 0, len(descriptorTags))
	for _, dt := range descriptorTags {
		rules = append(rules, Rule{
			Pattern:     regexp.MustCompile("<" + dt.element + ">.*</" + dt.element + ">"),
			Replacement: "<" + dt.element + ">" + dt.token + "</" + dt.element + ">",
		})
	}
	return rules
}

// PairRules compiles template pairs as regex rules. An invalid pattern is a
// configuration error.
func PairRules(pairs []Pair) ([]Rule, error) {
	rules := make([]Rule, 0, len(pairs))
	for i, p := range pairs {
		if p.Search == "" {
			continue
		}
		re, err := regexp.Compile(p.Search)
		if err != nil {
			return nil, errs.Configuration("compile replacement",
				fmt.Sprintf("replacement %d has an invalid pattern %q", i+1, p.Search), err)
		}
		rules = append(rules, Rule{Pattern: re, Replacement: p.Value})
	}
	return rules, nil
}

// ApplyRules runs every rule over each line of text. Line endings are kept.
func ApplyRules(text string, rules []Rule) string {
	if len(rules) == 0 || text == "" {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		body, eol := splitEOL(line)
		for _, r := range rules {
			body = r.Pattern.ReplaceAllString(body, r.Replacement)
		}
		lines[i] = body + eol
	}
	return strings.Join(lines, "")
}

func splitEOL(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
