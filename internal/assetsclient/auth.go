package assetsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-errors/errors"
)

// Authenticate performs the OAuth client_credentials exchange against
// accountServiceURL and returns a bearer access token to pass to New
// (spec.md §6.3, grounding: teacher egl.go authenticate()).
func Authenticate(ctx context.Context, accountServiceURL, basicCredentials string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("token_type", "eg1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, accountServiceURL+"/account/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	req.Header.Set("Authorization", "basic "+basicCredentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("assetsclient: oauth exchange returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, 0)
	}
	if body.AccessToken == "" {
		return "", errors.New("assetsclient: oauth response missing access_token")
	}
	return body.AccessToken, nil
}
