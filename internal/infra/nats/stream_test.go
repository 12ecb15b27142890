package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMsg(t *testing.T) {
	msg := newMsg("blocks.dlq", []byte("payload"), nil)

	assert.Equal(t, "blocks.dlq", msg.Subject)
	assert.Equal(t, []byte("payload"), msg.Data)
	assert.Empty(t, msg.Header.Get(keyHeader))

	msg = newMsg("blocks.dlq", []byte("payload"), []byte("k"))
	assert.Equal(t, "k", msg.Header.Get(keyHeader))
}
