package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"imgbench/model"
)

// IndexPath is fetched relative to BaseURL to list keys; it must return a
// JSON array of strings.
const IndexPath = "_index"

// HTTP reads blobs from a remote object store laid out as BaseURL/<key>.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTP{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (h *HTTP) get(ctx context.Context, key string) ([]byte, error) {
	u := h.BaseURL + "/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "build request for %q: %v", key, err)
	}

	if ctx.Err() != nil {
		return nil, errors.Wrapf(model.ErrCancelled, "get %s", u)
	}

	resp, err := h.Client.Do(req)

	if err != nil {
		return nil, classify(ctx, err, "get %s", u)
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(model.ErrNotFound, "get %s", u)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(model.ErrIO, "get %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, classify(ctx, err, "read body of %s", u)
	}

	return body, nil
}

func (h *HTTP) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if key == "" || key == IndexPath {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "bad remote key %q", key)
	}

	return h.get(ctx, key)
}

func (h *HTTP) ListKeys(ctx context.Context) ([]string, error) {
	body, err := h.get(ctx, IndexPath)

	if err != nil {
		return nil, err
	}

	var keys []string

	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, errors.Wrapf(model.ErrIO, "decode index: %v", err)
	}

	return keys, nil
}

func (h *HTTP) String() string {
	return fmt.Sprintf("http(%s)", h.BaseURL)
}
