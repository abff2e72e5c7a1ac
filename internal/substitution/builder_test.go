package substitution

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterIDs() (func() string, *int) {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}, &n
}

func TestBuilderStageOrder(t *testing.T) {
	newID, _ := counterIDs()
	b := NewBuilder(Context{
		GuidCount:    2,
		Username:     "jane",
		ParentDir:    "work",
		SolutionName: "Acme.Tools",
		Pairs: []Pair{
			{Search: "Velentr.BASE", Value: "<SolutionName>"},
			{Search: "Velentr", Value: "<ParentDir>.<CurrentUserName>"},
		},
		Tags:  &Tags{Author: "Jane", Tags: []string{"a", "b"}, Version: "1.2.3"},
		NewID: newID,
	})

	want := []Entry{
		{Search: "GUID000000000", Replace: "id-1"},
		{Search: "GUID000000001", Replace: "id-2"},
		{Search: TokenCurrentUserName, Replace: "jane"},
		{Search: TokenParentDir, Replace: "work"},
		{Search: TokenSolutionName, Replace: "Acme.Tools"},
		{Search: "Velentr.BASE", Replace: "Acme.Tools"},
		{Search: "Velentr", Replace: "work.jane"},
		{Search: TagAuthor, Replace: "Jane"},
		{Search: TagCompany, Replace: ""},
		{Search: TagTags, Replace: "a;b"},
		{Search: TagDescription, Replace: ""},
		{Search: TagLicense, Replace: ""},
		{Search: TagVersion, Replace: "1.2.3"},
	}
	if diff := cmp.Diff(want, b.Table().Entries()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, b.Table().Frozen())
}

func TestBuilderMemoizes(t *testing.T) {
	newID, calls := counterIDs()
	b := NewBuilder(Context{GuidCount: 3, NewID: newID})

	first := b.Apply("GUID000000000 GUID000000002")
	second := b.Apply("GUID000000000 GUID000000002")

	assert.Equal(t, first, second)
	assert.Equal(t, "id-1 id-3", first)
	assert.Equal(t, 3, *calls, "identifiers must be generated once per run")
}

func TestBuilderPairsResolveOnce(t *testing.T) {
	// A pair value referencing another pair's search term is not resolved
	// transitively at build time.
	b := NewBuilder(Context{
		SolutionName: "Acme",
		Pairs: []Pair{
			{Search: "FIRST", Value: "SECOND"},
			{Search: "SECOND", Value: "<SolutionName>"},
		},
	})

	v, ok := b.Table().Get("FIRST")
	require.True(t, ok)
	assert.Equal(t, "SECOND", v)

	// Application is sequential, so the text still ends up fully replaced.
	assert.Equal(t, "Acme", b.Apply("FIRST"))
}

func TestBuilderDefaultIDsAreUUIDs(t *testing.T) {
	b := NewBuilder(Context{GuidCount: 2})
	a, _ := b.Table().Get("GUID000000000")
	c, _ := b.Table().Get("GUID000000001")

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	_, err = uuid.Parse(c)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBuilderZeroGuids(t *testing.T) {
	b := NewBuilder(Context{SolutionName: "X"})
	_, ok := b.Table().Get("GUID000000000")
	assert.False(t, ok)
	assert.Equal(t, "X", b.Apply("<SolutionName>"))
}
