package gmail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCredentials = `{
  "installed": {
    "client_id": "cid.apps.googleusercontent.com",
    "client_secret": "secret",
    "refresh_token": "1//refresh",
    "grant_type": "refresh_token",
    "token_uri": "https://oauth2.googleapis.com/token",
    "mailListUrl": "https://gmail.googleapis.com/gmail/v1/users/me/messages/"
  }
}`

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCredentials), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "cid.apps.googleusercontent.com", creds.ClientID)
	assert.Equal(t, "https://oauth2.googleapis.com/token", creds.TokenURI)
	assert.Equal(t, "https://gmail.googleapis.com/gmail/v1/users/me/messages/abc", creds.messageURL("abc"))
}

func TestParseCredentialsMissingFields(t *testing.T) {
	_, err := ParseCredentials([]byte(`{"installed":{"client_id":"x"}}`))
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeValidation))
	assert.Contains(t, err.Error(), "client_secret")
	assert.Contains(t, err.Error(), "mailListUrl")
}

func TestParseCredentialsIgnoresGrantType(t *testing.T) {
	raw := `{"installed":{"client_id":"a","client_secret":"b","refresh_token":"c","grant_type":"password","token_uri":"d","mailListUrl":"e"}}`
	creds, err := ParseCredentials([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "c", creds.RefreshToken)
}

func TestMessageURLAddsSlash(t *testing.T) {
	c := Credentials{MailListURL: "http://host/messages"}
	assert.Equal(t, "http://host/messages/42", c.messageURL("42"))
}

func TestParseCredentialsInvalidJSON(t *testing.T) {
	_, err := ParseCredentials([]byte("{"))
	assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
}

func TestExampleCredentialsFileIsValid(t *testing.T) {
	creds, err := LoadCredentials(filepath.Join("..", "..", "configs", "credentials.example.json"))
	require.NoError(t, err)
	assert.NoError(t, creds.Validate())
}
