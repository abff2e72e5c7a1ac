package substitution

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/templater-labs/templater/internal/identifiers"
)

// Special tokens resolved from the generation context.
const (
	TokenCurrentUserName = "<CurrentUserName>"
	TokenParentDir       = "<ParentDir>"
	TokenSolutionName    = "<SolutionName>"
)

// Bracketed tokens that packaging leaves in descriptor files and generation
// fills from the solution settings.
const (
	TagAuthor      = "[AUTHOR]"
	TagCompany     = "[COMPANY]"
	TagTags        = "[TAGS]"
	TagDescription = "[DESCRIPTION]"
	TagLicense     = "[LICENSE]"
	TagVersion     = "[VERSION]"
)

// Pair is a template-declared search term and its replacement value.
type Pair struct {
	Search string
	Value  string
}

// Tags carries the solution-level values injected in the final stage.
type Tags struct {
	Author      string
	Company     string
	Tags        []string
	Description string
	License     string
	Version     string
}

// Context is everything needed to build a generation table.
type Context struct {
	// GuidCount is the number of identifier placeholders in the template.
	GuidCount int
	// Username, ParentDir and SolutionName back the special tokens.
	Username     string
	ParentDir    string
	SolutionName string
	// Pairs are the template-declared replacement pairs, in order.
	Pairs []Pair
	// Tags, when non-nil, adds the final tag stage.
	Tags *Tags
	// NewID generates identifier replacements; defaults to random UUIDs.
	NewID func() string
}

// Builder computes a generation table once and caches it.
type Builder struct {
	ctx   Context
	once  sync.Once
	table *Table
}

// NewBuilder returns a Builder for ctx.
func NewBuilder(ctx Context) *Builder {
	return &Builder{ctx: ctx}
}

// Table returns the frozen table, building it on first use. Stages, each
// seeing only the ones before it:
//
//  1. identifier placeholders → fresh identifiers
//  2. special tokens
//  3. template pairs, values pre-resolved against stage 2 once
//  4. solution tags, if any
func (b *Builder) Table() *Table {
	b.once.Do(func() {
		b.table = build(b.ctx)
	})
	return b.table
}

// Apply runs the table over text.
func (b *Builder) Apply(text string) string {
	return b.Table().Apply(text)
}

func build(ctx Context) *Table {
	newID := ctx.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	t := NewTable()
	for i := 0; i < ctx.GuidCount; i++ {
		t.Add(identifiers.Placeholder(i), newID())
	}

	special := SpecialTokens(ctx.Username, ctx.ParentDir, ctx.SolutionName)
	for _, e := range special.entries {
		t.Add(e.Search, e.Replace)
	}

	for _, p := range ctx.Pairs {
		t.Add(p.Search, special.Apply(p.Value))
	}

	if ctx.Tags != nil {
		for _, e := range TagEntries(*ctx.Tags) {
			t.Add(e.Search, e.Replace)
		}
	}

	t.Freeze()
	return t
}

// SpecialTokens returns the stage-2 table on its own.
func SpecialTokens(username, parentDir, solutionName string) *Table {
	t := NewTable()
	t.Add(TokenCurrentUserName, username)
	t.Add(TokenParentDir, parentDir)
	t.Add(TokenSolutionName, solutionName)
	return t
}

// TagEntries returns the tag stage entries.
func TagEntries(tags Tags) []Entry {
	return []Entry{
		{Search: TagAuthor, Replace: tags.Author},
		{Search: TagCompany, Replace: tags.Company},
		{Search: TagTags, Replace: strings.Join(tags.Tags, ";")},
		{Search: TagDescription, Replace: tags.Description},
		{Search: TagLicense, Replace: tags.License},
		{Search: TagVersion, Replace: tags.Version},
	}
}
