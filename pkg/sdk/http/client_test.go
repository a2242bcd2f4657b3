package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequest_SendsBodyVerbatim(t *testing.T) {
	var gotBody, gotType, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	assert.Equal(t, srv.URL, c.BaseURL())

	resp, err := c.DoRequest(context.Background(), "post", "/x", &RequestOptions{
		Params: map[string]string{"a": "1"},
		Body:   []byte(`{"b":2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, gotBody)
	assert.Equal(t, "application/json; charset=utf-8", gotType)
	assert.Equal(t, "a=1", gotQuery)

	err = StatusError(resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "418")
}

func TestDoRequest_UnsupportedMethod(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	_, err := c.DoRequest(context.Background(), "PATCH", "/x", nil)
	assert.Error(t, err)
}

func TestDoRequest_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).DoRequest(context.Background(), http.MethodGet, "/x", nil)
	assert.Error(t, err)
}
