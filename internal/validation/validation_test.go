package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGroupSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "lowercase", slug: "cats", ok: true},
		{name: "mixed with underscore and hyphen", slug: "Pc_Gaming-2", ok: true},
		{name: "single char", slug: "a", ok: true},
		{name: "max length", slug: strings.Repeat("a", 255), ok: true},
		{name: "too long", slug: strings.Repeat("a", 256), ok: false},
		{name: "empty", slug: "", ok: false},
		{name: "space", slug: "pc gaming", ok: false},
		{name: "symbol", slug: "pc!gaming", ok: false},
		{name: "slash", slug: "a/b", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGroupSlug(tc.slug)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateGroupTitle(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateGroupTitle("Cats"))
	assert.NoError(t, ValidateGroupTitle(strings.Repeat("ж", 200)))
	assert.Error(t, ValidateGroupTitle("   "))
	assert.Error(t, ValidateGroupTitle(strings.Repeat("a", 201)))
}

func TestValidatePostText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostText("hello"))
	assert.Error(t, ValidatePostText(""))
	assert.Error(t, ValidatePostText(" \n\t"))
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Email Like", "leo.tolstoy@mail+1", false},
		{"Single Char", "a", false},
		{"Empty", "", true},
		{"Space", "leo tolstoy", true},
		{"Illegal Chars", "user#123", true},
		{"Too Long", strings.Repeat("u", 151), true},
		{"Reserved", "Admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("leo@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Leo <leo@example.com>"))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "correct horse", false},
		{"Exactly Min Length", "abcdefg1", false},
		{"Exactly Max Length", strings.Repeat("b", 128), false},
		{"Too Short", "short1", true},
		{"Too Long", strings.Repeat("b", 129), true},
		{"All Digits", "1234567890", true},
		{"Unicode Characters", "Ångström-pass", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
