package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralScalars(t *testing.T) {
	cases := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.14", 3.14},
		{"1e3", 1000.0},
		{"'hello'", "hello"},
		{`"world"`, "world"},
		{`'it\'s'`, "it's"},
		{"true", true},
		{"True", true},
		{"false", false},
		{"False", false},
		{"none", nil},
		{"None", nil},
		{"null", nil},
	}
	for _, c := range cases {
		got, err := Literal(c.input)
		require.NoError(t, err, "input %q", c.input)
		assert.Equal(t, c.want, got, "input %q", c.input)
	}
}

func TestLiteralContainers(t *testing.T) {
	got, err := Literal("[1, 2, 3]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, got)

	// Tuples become lists
	got, err = Literal("('a', 'b')")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	got, err = Literal("{'lang': 'en_US', 'active_test': false}")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lang": "en_US", "active_test": false}, got)

	got, err = Literal("[[1, 'a'], [2, 'b']]")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{int64(1), "a"}, []any{int64(2), "b"}}, got)

	// Trailing commas are fine
	got, err = Literal("[1, 2,]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got)
}

func TestLiteralRejectsNonLiterals(t *testing.T) {
	for _, input := range []string{
		"draft",
		"os.system('rm -rf /')",
		"1 + 2",
		"[1, 2",
		"{'a': }",
		"{1: 'a'}",
		"'unterminated",
		"42 trailing",
	} {
		_, err := Literal(input)
		assert.Error(t, err, "input %q", input)
	}
}
