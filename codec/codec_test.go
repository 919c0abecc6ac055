package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := map[string]any{"id": "42", "labels": []string{"Person"}}

	std, err := (JSON{}).Marshal(in)
	require.NoError(t, err)
	fast, err := (GoJSON{}).Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(std), string(fast))

	var out map[string]any
	require.NoError(t, Default.Unmarshal(fast, &out))
	assert.Equal(t, "42", out["id"])
}
