package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubCollection(t *testing.T) {
	assert.Equal(t, "students/abc/phones", SubCollection("students", "abc", "phones"))
	assert.NoError(t, ValidatePath(SubCollection("students", "abc", "phones")))
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"students", true},
		{"students/abc/phones", true},
		{"", false},
		{"students/abc", false},
		{"students//phones", false},
		{"/students", false},
	}

	for _, tt := range tests {
		err := ValidatePath(tt.path)
		if tt.ok {
			assert.NoError(t, err, tt.path)
		} else {
			assert.ErrorIs(t, err, ErrInvalidPath, tt.path)
		}
	}
}

func TestDocumentString(t *testing.T) {
	doc := Document{ID: "x", Data: map[string]any{"name": "Bob", "age": 3}}

	assert.Equal(t, "Bob", doc.String("name"))
	assert.Equal(t, "", doc.String("age"))
	assert.Equal(t, "", doc.String("missing"))
	assert.Equal(t, "", Document{}.String("name"))
}
