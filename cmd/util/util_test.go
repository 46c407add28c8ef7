package util

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestFprint(t *testing.T) {
	v := struct {
		Name string `json:"name" yaml:"name"`
		Age  int    `json:"age" yaml:"age"`
	}{"Alice", 30}

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, "json", v))
	assert.JSONEq(t, `{"name":"Alice","age":30}`, buf.String())

	buf.Reset()
	require.NoError(t, Fprint(&buf, "yaml", v))
	assert.Equal(t, "name: Alice\nage: 30\n", buf.String())

	assert.Error(t, Fprint(&buf, "xml", v))
}

func TestParseArguments(t *testing.T) {
	id, err := ParseID("id", "42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := ParseID("id", bad)
		assert.Error(t, err, bad)
	}

	d, err := ParseDate("due", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("due", "10.03.2025")
	assert.Error(t, err)
}
