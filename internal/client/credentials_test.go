package client

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateSignature(t *testing.T) {
	cert := newCertificate("perm", "", []string{"a", "b"}, time.UnixMilli(1000), time.UnixMilli(2000), "seedseed")
	cert.sign("secret", "")
	assert.Empty(t, cert.Issuer)
	assert.Equal(t, "e2DaUVrVTUiDBp+dAlI6vCuxPG12s9fswFXai38E/sc=", cert.Signature)

	named := newCertificate("perm", "temp/client", nil, time.UnixMilli(1000), time.UnixMilli(2000), "seedseed")
	named.sign("secret", "temp/client")
	assert.Equal(t, "perm", named.Issuer)
	assert.Equal(t, []string{}, named.Scopes)
	assert.Equal(t, "0rRi93QbP3/M82lEpx7hsq6JHS+A8+OYGxbWPRkC5W8=", named.Signature)
}

func TestTemporaryAccessToken(t *testing.T) {
	assert.Equal(t, "hwqjsz8l1Zc3M3XyF20lODiVEEJUdDzztefRq7X3-vs", temporaryAccessToken("secret", "seedseed"))
}

func TestCreateTemporaryCredentials(t *testing.T) {
	perm := &Credentials{ClientID: "perm", AccessToken: "secret"}

	before := time.Now()
	temp, err := perm.CreateTemporaryCredentials(time.Hour, "object:download:*")
	require.NoError(t, err)

	assert.Equal(t, "perm", temp.ClientID)
	require.NotEmpty(t, temp.Certificate)

	var cert Certificate
	require.NoError(t, json.Unmarshal([]byte(temp.Certificate), &cert))
	assert.Equal(t, 1, cert.Version)
	assert.Equal(t, []string{"object:download:*"}, cert.Scopes)
	assert.Len(t, cert.Seed, 44)
	assert.Empty(t, cert.Issuer)
	assert.Equal(t, temporaryAccessToken("secret", cert.Seed), temp.AccessToken)
	assert.LessOrEqual(t, cert.Start, before.Add(-certificateBackdate).UnixMilli()+1000)
	assert.GreaterOrEqual(t, cert.Expiry, before.Add(time.Hour).UnixMilli())

	check := newCertificate("perm", "", cert.Scopes, time.UnixMilli(cert.Start), time.UnixMilli(cert.Expiry), cert.Seed)
	check.sign("secret", "")
	assert.Equal(t, check.Signature, cert.Signature)
}

func TestCreateNamedTemporaryCredentials(t *testing.T) {
	perm := &Credentials{ClientID: "perm", AccessToken: "secret"}

	temp, err := perm.CreateNamedTemporaryCredentials("temp/client", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "temp/client", temp.ClientID)

	var cert Certificate
	require.NoError(t, json.Unmarshal([]byte(temp.Certificate), &cert))
	assert.Equal(t, "perm", cert.Issuer)
}

func TestCreateTemporaryCredentialsErrors(t *testing.T) {
	perm := &Credentials{ClientID: "perm", AccessToken: "secret"}

	_, err := perm.CreateTemporaryCredentials(32 * 24 * time.Hour)
	assert.Error(t, err)

	_, err = perm.CreateTemporaryCredentials(0)
	assert.Error(t, err)

	temp, err := perm.CreateTemporaryCredentials(time.Hour)
	require.NoError(t, err)
	_, err = temp.CreateTemporaryCredentials(time.Hour)
	assert.Error(t, err)

	_, err = (&Credentials{ClientID: "perm"}).CreateTemporaryCredentials(time.Hour)
	assert.Error(t, err)
}

func TestExt(t *testing.T) {
	ext, err := (&Credentials{ClientID: "c", AccessToken: "t"}).ext()
	require.NoError(t, err)
	assert.Empty(t, ext)

	ext, err = (&Credentials{ClientID: "c", AccessToken: "t", AuthorizedScopes: []string{}}).ext()
	require.NoError(t, err)
	assert.Empty(t, ext, "an empty scope list does not restrict the request")

	creds := &Credentials{
		ClientID:         "c",
		AccessToken:      "t",
		Certificate:      `{"version":1}`,
		AuthorizedScopes: []string{"object:upload:p:n"},
	}
	ext, err = creds.ext()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ext)
	require.NoError(t, err)
	assert.JSONEq(t, `{"certificate": {"version": 1}, "authorizedScopes": ["object:upload:p:n"]}`, string(raw))

	_, err = (&Credentials{Certificate: "not json"}).ext()
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := Slug()
		assert.Len(t, s, 22)
		assert.False(t, strings.HasPrefix(s, "-"), s)
		assert.False(t, strings.HasPrefix(s, "_"), s)
		assert.False(t, seen[s])
		seen[s] = true
	}
}
