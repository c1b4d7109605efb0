// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNull(t *testing.T) {
	var r Request = Null{}
	assert.Empty(t, r.Cookies())
	assert.Empty(t, r.Session())
	assert.Empty(t, r.Headers())
	assert.Empty(t, r.Server())
	assert.Empty(t, r.MetaData())
	assert.Equal(t, "127.0.0.1", r.IP())
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), Null{})
	req, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, Null{}, req)
}

func TestHTTP_IP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", FromHTTP(r).IP())

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", FromHTTP(r).IP())

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", FromHTTP(r2).IP())

	r2.RemoteAddr = ""
	assert.Equal(t, "", FromHTTP(r2).IP())
}

func TestHTTP_CookiesHeadersSession(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	r.Header.Add("Accept", "text/html")
	r.Header.Add("X-Multi", "a")
	r.Header.Add("X-Multi", "b")

	h := FromHTTP(r, WithSession(map[string]any{"cart": 3}))

	assert.Equal(t, map[string]any{"sid": "abc"}, h.Cookies())
	headers := h.Headers()
	assert.Equal(t, "text/html", headers["Accept"])
	assert.Equal(t, []any{"a", "b"}, headers["X-Multi"])
	assert.Equal(t, map[string]any{"cart": 3}, h.Session())
}

func TestHTTP_Server(t *testing.T) {
	r := httptest.NewRequest("POST", "http://example.com:8443/orders?id=7", strings.NewReader("x"))
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Set("User-Agent", "curl/8")

	server := FromHTTP(r).Server()
	assert.Equal(t, "POST", server["REQUEST_METHOD"])
	assert.Equal(t, "/orders?id=7", server["REQUEST_URI"])
	assert.Equal(t, "id=7", server["QUERY_STRING"])
	assert.Equal(t, "example.com", server["SERVER_NAME"])
	assert.Equal(t, "8443", server["SERVER_PORT"])
	assert.Equal(t, "example.com:8443", server["HTTP_HOST"])
	assert.Equal(t, "curl/8", server["HTTP_USER_AGENT"])
	assert.Equal(t, "text/plain", server["CONTENT_TYPE"])
	assert.NotContains(t, server, "HTTPS")
}

func TestHTTP_MetaData(t *testing.T) {
	r := httptest.NewRequest("GET", "http://shop.test/items?page=2", nil)
	r.RemoteAddr = "192.0.2.4:1000"
	r.Header.Set("User-Agent", "test-agent")

	meta := FromHTTP(r).MetaData()
	assert.Equal(t, "http://shop.test/items?page=2", meta["url"])
	assert.Equal(t, "GET", meta["method"])
	assert.Nil(t, meta["params"])
	assert.Equal(t, "192.0.2.4", meta["clientIp"])
	assert.Equal(t, "test-agent", meta["userAgent"])
	assert.NotContains(t, meta, "route")
}

func TestHTTP_MetaData_HTTPSDetection(t *testing.T) {
	r := httptest.NewRequest("GET", "http://shop.test/", nil)
	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://shop.test/", FromHTTP(r).MetaData()["url"])

	r = httptest.NewRequest("GET", "http://shop.test/", nil)
	r.Header.Set("X-Forwarded-Proto", "HTTPS")
	assert.Equal(t, "https://shop.test/", FromHTTP(r).MetaData()["url"])

	r = httptest.NewRequest("GET", "http://shop.test:443/a", nil)
	assert.Equal(t, "https://shop.test:443/a", FromHTTP(r).MetaData()["url"])

	r = httptest.NewRequest("GET", "/a", nil)
	r.Host = ""
	assert.Equal(t, "http://localhost/a", FromHTTP(r).MetaData()["url"])
}

func TestHTTP_MetaData_RouteVars(t *testing.T) {
	var meta map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		meta = FromHTTP(r).MetaData()
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/42", nil))

	require.NotNil(t, meta)
	assert.Equal(t, map[string]any{"id": "42"}, meta["route"])
}

func TestHTTP_ParamsFromParsedForm(t *testing.T) {
	form := url.Values{"q": {"shoes"}, "size": {"9", "10"}}
	r := httptest.NewRequest("POST", "/search", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())

	params := FromHTTP(r).MetaData()["params"]
	assert.Equal(t, map[string]any{"q": "shoes", "size": []any{"9", "10"}}, params)
}

func TestHTTP_ParamsFromBufferedJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/api", strings.NewReader(`{"name":"ada"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	body, err := BufferBody(r)
	require.NoError(t, err)

	params := FromHTTP(r, WithBody(body)).MetaData()["params"]
	assert.Equal(t, map[string]any{"name": "ada"}, params)

	// The handler still sees the full body.
	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"ada"}`, string(rest))
}

func TestBufferBody_NoBody(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	body, err := BufferBody(r)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestBufferBody_LargeBodyKeepsRemainder(t *testing.T) {
	payload := strings.Repeat("a", MaxBodyBytes+100)
	r := httptest.NewRequest("POST", "/", strings.NewReader(payload))

	head, err := BufferBody(r)
	require.NoError(t, err)
	assert.Len(t, head, MaxBodyBytes)

	all, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Len(t, all, len(payload))
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		method      string
		body        string
		want        map[string]any
	}{
		{"empty", "application/json", "POST", "  ", nil},
		{"json object", "application/json", "POST", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json array", "application/json", "POST", `[1,2]`, nil},
		{"invalid json", "application/json", "POST", `{`, nil},
		{"put form", "", "PUT", "a=1&b=2", map[string]any{"a": "1", "b": "2"}},
		{"post form", "application/x-www-form-urlencoded", "POST", "a=1", map[string]any{"a": "1"}},
		{"unknown", "text/plain", "POST", "a=1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInput(tt.contentType, tt.method, []byte(tt.body)))
		})
	}
}
