package hawk

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderKnownVector(t *testing.T) {
	creds := Credentials{ID: "dh37fgj492je", Key: "werxhqb98rpaxn39848xrunpaw3489ruxnpa98w4rxn"}
	u, err := url.Parse("http://example.com:8000/resource/1?b=1&a=2")
	require.NoError(t, err)

	a := NewArtifacts("get", u)
	a.Nonce = "j4h3g2"
	a.Ext = "some-app-ext-data"

	header, err := Header(creds, a, time.Unix(1353832234, 0))
	require.NoError(t, err)
	assert.Equal(t,
		`Hawk id="dh37fgj492je", ts="1353832234", nonce="j4h3g2", ext="some-app-ext-data", mac="6R4rV5iE+NPoym+WwjeHzjAGXUtLNIxmo1vpMofpLAE="`,
		header)
}

func TestHeaderWithHash(t *testing.T) {
	creds := Credentials{ID: "id", Key: "key"}
	u, err := url.Parse("https://tc.example.com/api/object/v1/upload/blob1")
	require.NoError(t, err)

	a := NewArtifacts("PUT", u)
	a.Hash = PayloadHash("application/json", []byte(`{}`))

	header, err := Header(creds, a, time.Time{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, `Hawk id="id", ts="`))
	assert.Contains(t, header, `hash="`+a.Hash+`"`)
	assert.Contains(t, header, `nonce="`)
}

func TestHeaderIncompleteCredentials(t *testing.T) {
	u, _ := url.Parse("https://example.com/")
	_, err := Header(Credentials{ID: "id"}, NewArtifacts("GET", u), time.Time{})
	assert.Error(t, err)
}

func TestPayloadHash(t *testing.T) {
	assert.Equal(t, "Yi9LfIIFRtBEPt74PVmbTF/xVAwPn7ub15ePICfgnuY=",
		PayloadHash("text/plain", []byte("Thank you for flying Hawk")))
	assert.Equal(t,
		PayloadHash("text/plain", []byte("Thank you for flying Hawk")),
		PayloadHash("Text/Plain; charset=utf-8", []byte("Thank you for flying Hawk")))
}

func TestNewArtifacts(t *testing.T) {
	u, err := url.Parse("https://TC.example.com/api/object/v1/download/a%2Fb?x=1")
	require.NoError(t, err)

	a := NewArtifacts("get", u)
	assert.Equal(t, "GET", a.Method)
	assert.Equal(t, "tc.example.com", a.Host)
	assert.Equal(t, "443", a.Port)
	assert.Equal(t, "/api/object/v1/download/a%2Fb?x=1", a.Resource)

	u, _ = url.Parse("http://localhost:8080")
	a = NewArtifacts("GET", u)
	assert.Equal(t, "8080", a.Port)
	assert.Equal(t, "/", a.Resource)
}

func TestBewit(t *testing.T) {
	u, err := url.Parse("https://tc.example.com/api/object/v1/download/blob1")
	require.NoError(t, err)

	bewit, err := Bewit(Credentials{ID: "client", Key: "secret"}, u, "", time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Equal(t, "Y2xpZW50XDE3MDAwMDAwMDBcbXZQNDB0NW9Ia1YvMFR4RmQxbU43cklnelc3Tk9qeTI5aTBzd09EY3BvVT1c", bewit)

	raw, err := base64.RawURLEncoding.DecodeString(bewit)
	require.NoError(t, err)
	parts := strings.Split(string(raw), "\\")
	require.Len(t, parts, 4)
	assert.Equal(t, "client", parts[0])
	assert.Equal(t, "1700000000", parts[1])
	assert.Equal(t, "mvP40t5oHkV/0TxFd1mN7rIgzW7NOjy29i0swODcpoU=", parts[2])
	assert.Empty(t, parts[3])
}

func TestNonce(t *testing.T) {
	a, err := Nonce()
	require.NoError(t, err)
	b, err := Nonce()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 8)
}
