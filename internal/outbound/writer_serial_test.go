package outbound

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

// shortWriter 每次最多接受2字节
type shortWriter struct{ buf bytes.Buffer }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 2 {
		p = p[:2]
	}
	return w.buf.Write(p)
}

func TestSerialWriter_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewSerialWriter(&buf, nil)

	f := mustForge(t, 0x31)
	f.SetSource(iohc.MustParseAddress("ba11ad"))
	f.SetTarget(iohc.MustParseAddress("315824"))
	require.NoError(t, w.WriteFrame(context.Background(), &f))

	f.Channel = iohc.Channel1
	require.NoError(t, w.WriteFrame(context.Background(), &f))

	assert.Equal(t,
		"868950000 480031ba11ad315824\n868250000 480031ba11ad315824\n",
		buf.String())
	assert.NoError(t, w.Close())
}

func TestSerialWriter_ShortWrites(t *testing.T) {
	sw := &shortWriter{}
	w := NewSerialWriter(sw, nil)

	f := mustForge(t, 0x33, 0xaa, 0xbb)
	require.NoError(t, w.WriteFrame(context.Background(), &f))
	assert.Equal(t, "868950000 4a0033000000000000aabb\n", sw.buf.String())
}
