package workers

import (
	"fmt"
	"net/url"
	"time"
)

// buildSyncURL joins the sync service base URL with an endpoint path and a
// since cursor, tolerating stray slashes on either side.
func buildSyncURL(baseURL, endpointPath string, since time.Time) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid sync service URL %q: %w", baseURL, err)
	}
	endpoint := base.JoinPath(endpointPath)

	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}
