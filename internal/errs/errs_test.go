package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  Validation("", "target exists", nil),
			want: "target exists",
		},
		{
			name: "with op and cause",
			err:  Network("sync", "listing repository", errors.New("timeout")),
			want: "sync: listing repository: timeout",
		},
		{
			name: "with path",
			err:  Configuration("prepare", "missing metadata", nil).WithPath("/src/template_info.json"),
			want: "prepare: missing metadata: /src/template_info.json",
		},
		{
			name: "empty message falls back to kind",
			err:  &Error{Kind: KindDataIntegrity},
			want: "data integrity error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := TransientIO("cleanup", "removing directory", fs.ErrPermission)
	wrapped := fmt.Errorf("preparing template: %w", base)

	assert.Equal(t, KindTransientIO, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, fs.ErrPermission))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestIsWalksNestedKinds(t *testing.T) {
	inner := DataIntegrity("scan", "duplicate identifier", nil)
	outer := Configuration("prepare", "scanning identifiers", inner)

	require.True(t, Is(outer, KindConfiguration))
	require.True(t, Is(outer, KindDataIntegrity))
	require.False(t, Is(outer, KindNetwork))
	require.False(t, Is(nil, KindNetwork))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "command execution", KindCommandExecution.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
