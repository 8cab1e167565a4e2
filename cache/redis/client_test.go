package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnreachable(t *testing.T) {
	_, err := Open(Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}

func TestKeyPrefix(t *testing.T) {
	c := &Client{prefix: "glit:"}
	assert.Equal(t, "glit:session:tok", c.key("session:tok"))
	assert.Equal(t, []string{"glit:notify:a", "glit:notify:b"}, c.keys([]string{"notify:a", "notify:b"}))

	bare := &Client{}
	assert.Equal(t, "session:tok", bare.key("session:tok"))
}
