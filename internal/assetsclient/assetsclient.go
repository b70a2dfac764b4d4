// Package assetsclient fetches the launcher-assets descriptor for a title
// and resolves it to a manifest download URL (spec.md §6.3, grounding:
// teacher catalog.go/egl.go request shape, generalized to the
// original_source AssetsResponse schema).
package assetsclient

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
)

// Item is one entry of an AssetsResponse's Items map: where to fetch one
// named asset (e.g. "MANIFEST") from and what its expected SHA1 is.
type Item struct {
	Distribution string `json:"distribution"`
	Path         string `json:"path"`
	Hash         string `json:"hash"`
}

// Response is the launcher-assets descriptor returned for a given
// platform/namespace/item/app/label combination.
type Response struct {
	AppName      string          `json:"appName"`
	LabelName    string          `json:"labelName"`
	BuildVersion string          `json:"buildVersion"`
	CatalogID    string          `json:"catalogItemId"`
	Items        map[string]Item `json:"items"`
	AssetID      string          `json:"assetId"`
}

// ManifestItem returns the "MANIFEST" entry, the one piece of the
// response this client's callers need.
func (r *Response) ManifestItem() (Item, error) {
	item, ok := r.Items["MANIFEST"]
	if !ok {
		return Item{}, errors.New("assetsclient: response has no MANIFEST item")
	}
	return item, nil
}

// URL builds the absolute URL for an Item.
func (i Item) URL() string {
	return fmt.Sprintf("%s/%s", i.Distribution, i.Path)
}

// Client fetches asset descriptors and the manifest bytes they point to.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// New builds a Client against baseURL (the launcher API's public root),
// authorizing requests with accessToken.
func New(baseURL, accessToken string) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

// FetchAssets retrieves the assets descriptor for one title.
func (c *Client) FetchAssets(ctx context.Context, platform, namespace, itemID, appID, label string) (*Response, error) {
	url := fmt.Sprintf("%s/launcher/api/public/assets/v2/platform/%s/namespace/%s/catalogItem/%s/app/%s/label/%s",
		c.baseURL, platform, namespace, itemID, appID, label)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	req.Header.Set("Authorization", "bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("assetsclient: unexpected status %d fetching assets", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return &out, nil
}

// FetchManifestBytes downloads the MANIFEST item's bytes and verifies
// them against its declared SHA1 hash (spec.md §6.3).
func (c *Client) FetchManifestBytes(ctx context.Context, item Item) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	req.Header.Set("Authorization", "bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("assetsclient: unexpected status %d fetching manifest", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	sum := sha1.Sum(data)
	got := hex.EncodeToString(sum[:])
	if got != item.Hash {
		logrus.WithFields(logrus.Fields{
			"expected": item.Hash,
			"got":      got,
		}).Warn("manifest hash mismatch")
		return nil, errors.Errorf("assetsclient: manifest hash mismatch: expected %s, got %s", item.Hash, got)
	}

	return data, nil
}
