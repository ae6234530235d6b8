package gmail

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
)

// Credentials mirrors the "installed" block of a Google OAuth client file,
// extended with the mailbox listing URL. A grant_type key in the file is
// ignored: the exchange always uses the refresh_token grant.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
	MailListURL  string `json:"mailListUrl"`
}

type credentialsFile struct {
	Installed Credentials `json:"installed"`
}

// LoadCredentials reads and validates a credentials file.
func LoadCredentials(path string) (Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials %s: %w", path, err)
	}
	return ParseCredentials(raw)
}

func ParseCredentials(raw []byte) (Credentials, error) {
	var file credentialsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Credentials{}, errs.Wrap(errs.CodeValidation, "credentials are not valid JSON", err)
	}
	creds := file.Installed
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (c Credentials) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
		{"refresh_token", c.RefreshToken},
		{"token_uri", c.TokenURI},
		{"mailListUrl", c.MailListURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.CodeValidation, "credentials missing "+strings.Join(missing, ", "))
	}
	return nil
}

// messageURL appends id to the listing URL.
func (c Credentials) messageURL(id string) string {
	base := c.MailListURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + id
}
