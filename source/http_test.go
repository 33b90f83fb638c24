package source

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"imgbench/model"
)

func newMockHTTP(t *testing.T) (*HTTP, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	src := NewHTTP("http://blobs.example.com/images/", &http.Client{Transport: transport})

	return src, transport
}

// TestHTTP_GetBytes testing status code mapping of the remote origin
func TestHTTP_GetBytes(t *testing.T) {
	t.Parallel()

	src, transport := newMockHTTP(t)

	transport.RegisterResponder("GET", "http://blobs.example.com/images/a.jpg",
		httpmock.NewBytesResponder(200, []byte{1, 2, 3}))
	transport.RegisterResponder("GET", "http://blobs.example.com/images/gone.jpg",
		httpmock.NewStringResponder(404, "not found"))
	transport.RegisterResponder("GET", "http://blobs.example.com/images/broken.jpg",
		httpmock.NewStringResponder(500, "boom"))

	ctx := context.Background()

	data, err := src.GetBytes(ctx, "a.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	_, err = src.GetBytes(ctx, "gone.jpg")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = src.GetBytes(ctx, "broken.jpg")
	require.ErrorIs(t, err, model.ErrIO)

	_, err = src.GetBytes(ctx, "")
	require.ErrorIs(t, err, model.ErrInvalidRequest)

	require.Equal(t, 1, transport.GetCallCountInfo()["GET http://blobs.example.com/images/a.jpg"])
}

// TestHTTP_ListKeys testing the index document
func TestHTTP_ListKeys(t *testing.T) {
	t.Parallel()

	src, transport := newMockHTTP(t)

	transport.RegisterResponder("GET", "http://blobs.example.com/images/_index",
		httpmock.NewStringResponder(200, `["a.jpg","b.jpg"]`))

	keys, err := src.ListKeys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, keys)
}

// TestHTTP_Cancelled testing transport errors after cancellation
func TestHTTP_Cancelled(t *testing.T) {
	t.Parallel()

	src, transport := newMockHTTP(t)

	transport.RegisterResponder("GET", "http://blobs.example.com/images/a.jpg",
		httpmock.NewBytesResponder(200, []byte{1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.GetBytes(ctx, "a.jpg")
	require.ErrorIs(t, err, model.ErrCancelled)
}
