package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevisionGeneration(t *testing.T) {
	tests := []struct {
		rev    string
		gen    int
		wantOK bool
	}{
		{"1-abc", 1, true},
		{"2-def", 2, true},
		{"10-967a00dff5e02add41819138abb3284d", 10, true},
		{"3", 3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1-abc", 0, false},
		{"+2-abc", 0, false},
		{"0-abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.rev, func(t *testing.T) {
			gen, ok := RevisionGeneration(tt.rev)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.gen, gen)
		})
	}
}

func TestDocumentRef(t *testing.T) {
	var ref DocumentRef
	assert.False(t, ref.HasID())
	assert.False(t, ref.Persisted())

	ref = DocumentRef{ID: "abc", Revision: "4-ff"}
	assert.True(t, ref.HasID())
	assert.True(t, ref.Persisted())
	gen, ok := ref.Generation()
	assert.True(t, ok)
	assert.Equal(t, 4, gen)
}
