package gmail

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// tokenStatusError reports a token endpoint reply other than 200 OK.
type tokenStatusError struct {
	Status int
	Body   string
}

func (e *tokenStatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status=%d: %s", e.Status, e.Body)
}

// strictTokenTransport fails any reply other than 200. oauth2 on its own
// accepts every 2xx from the token endpoint.
type strictTokenTransport struct {
	base http.RoundTripper
}

func (t *strictTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode == http.StatusOK {
		return resp, err
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_ = resp.Body.Close()
	return nil, &tokenStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}

// tokenClient copies c for the token exchange only; the copy's transport
// enforces the 200 rule.
func tokenClient(c *http.Client) *http.Client {
	out := &http.Client{}
	if c != nil {
		*out = *c
	}
	out.Transport = &strictTokenTransport{base: out.Transport}
	return out
}
