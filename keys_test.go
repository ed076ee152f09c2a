package graphrag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerFromKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"standard key", "documents/alice@x.com/abc123_notes.pdf", "alice@x.com"},
		{"nested filename", "documents/bob@y.org/dead8eef_report v2.pdf", "bob@y.org"},
		{"no owner segment", "orphan.pdf", DefaultOwner},
		{"empty owner segment", "documents//abc_notes.pdf", DefaultOwner},
		{"empty key", "", DefaultOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OwnerFromKey(tt.key))
		})
	}
}

func TestMakeStorageKey(t *testing.T) {
	key := MakeStorageKey("alice@x.com", "my notes.pdf")

	parts := strings.Split(key, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "documents", parts[0])
	assert.Equal(t, "alice@x.com", parts[1])
	assert.True(t, strings.HasSuffix(parts[2], "_my_notes.pdf"))

	// Unique prefix is 8 hex-ish chars followed by the underscore.
	assert.Len(t, strings.SplitN(parts[2], "_", 2)[0], 8)

	// Two uploads of the same file never collide.
	assert.NotEqual(t, key, MakeStorageKey("alice@x.com", "my notes.pdf"))
}

func TestMakeStorageKeyDefaultOwner(t *testing.T) {
	key := MakeStorageKey("", "notes.pdf")
	assert.Equal(t, DefaultOwner, OwnerFromKey(key))
}

func TestChunkRecordID(t *testing.T) {
	id := ChunkRecordID("documents/alice@x.com/abc123_notes.pdf", 3)
	assert.Equal(t, "documents/alice@x.com/abc123_notes.pdf_3", id)
}
