package http

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionFileRoundTrip(t *testing.T) {
	origin, err := url.Parse("https://www.example.com")
	require.NoError(t, err)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	jar.SetCookies(origin, []*http.Cookie{
		{Name: "sid", Value: "abc123"},
		{Name: "u", Value: "2FXNQX"},
	})

	path := filepath.Join(t.TempDir(), "session.json")
	file := NewSessionFile(path)
	require.NoError(t, file.Save(jar, origin))

	fresh, err := cookiejar.New(nil)
	require.NoError(t, err)
	require.NoError(t, file.Load(fresh, origin))

	cookies := fresh.Cookies(origin)
	require.Len(t, cookies, 2)
	values := map[string]string{}
	for _, c := range cookies {
		values[c.Name] = c.Value
	}
	require.Equal(t, "abc123", values["sid"])
	require.Equal(t, "2FXNQX", values["u"])
}

func TestSessionFileLoadMissingFileIsNoop(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	origin, err := url.Parse("https://www.example.com")
	require.NoError(t, err)

	file := NewSessionFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, file.Load(jar, origin))
	require.Empty(t, jar.Cookies(origin))
}
