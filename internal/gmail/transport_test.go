package gmail

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenClientWrapsCallerTransport(t *testing.T) {
	base := &http.Transport{}
	c := tokenClient(&http.Client{Timeout: 3 * time.Second, Transport: base})

	assert.Equal(t, 3*time.Second, c.Timeout)
	strict, ok := c.Transport.(*strictTokenTransport)
	require.True(t, ok)
	assert.Same(t, base, strict.base)

	c = tokenClient(nil)
	strict, ok = c.Transport.(*strictTokenTransport)
	require.True(t, ok)
	assert.Nil(t, strict.base)
}
