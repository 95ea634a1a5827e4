// Package avatar integrates the two avatar sources: a Gravatar-compatible
// lookup keyed by email and an S3-compatible store for user uploads.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

// GravatarClient resolves an avatar URL for an email address. Lookups are
// time-bounded by the underlying http.Client; callers decide whether a
// failure is fatal (registration treats it as best-effort).
type GravatarClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGravatarClient constructs a client for the given base URL
// (e.g. "https://www.gravatar.com") with a request timeout.
func NewGravatarClient(baseURL string, timeout time.Duration) *GravatarClient {
	return &GravatarClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// hashEmail produces the Gravatar address hash: md5 of the trimmed,
// lowercased email.
func hashEmail(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// LookupURL returns the avatar URL for email if the service has an image
// for it. "d=404" makes the service answer 404 instead of a generated
// placeholder, so a non-200 status means "no avatar". Any transport or
// status failure is reported as common.ErrorUnavailable.
func (c *GravatarClient) LookupURL(ctx context.Context, email string) (string, error) {
	imageURL := fmt.Sprintf("%s/avatar/%s?d=404&s=250", c.baseURL, hashEmail(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating avatar lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: avatar lookup failed: %v", common.ErrorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: avatar lookup returned status %d", common.ErrorUnavailable, resp.StatusCode)
	}

	return imageURL, nil
}
