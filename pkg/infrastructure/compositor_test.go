package infrastructure

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	u := DataURL("<p>héllo & bye</p>")
	require.True(t, strings.HasPrefix(u, "data:text/html;charset=utf-8;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:text/html;charset=utf-8;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "<p>héllo & bye</p>", string(raw))
}

type idleSession struct{ ctx context.Context }

func (s idleSession) Context() context.Context { return s.ctx }
func (s idleSession) Close() error             { return nil }

func TestCompose_RejectsOversizedMarkup(t *testing.T) {
	c := NewPDFCompositor(CompositorOptions{})
	_, err := c.Compose(context.Background(), idleSession{context.Background()}, strings.Repeat("x", maxDataURLLen))
	assert.ErrorIs(t, err, ErrMarkupTooLarge)
}

func TestNewPDFCompositor_Defaults(t *testing.T) {
	c := NewPDFCompositor(CompositorOptions{MarginInches: -1})
	assert.Equal(t, A4, c.paper)
	assert.Zero(t, c.margin)
	assert.Equal(t, "1m0s", c.idle.String())
}
