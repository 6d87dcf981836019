package cmd

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var extAttribute = regexp.MustCompile(`ext="([^"]*)"`)

// pingServer answers every ping and returns the Authorization headers seen
func pingServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &auth
}

func setCredentialsEnv(t *testing.T, rootURL string) {
	t.Helper()
	t.Setenv("TASKCLUSTER_ROOT_URL", rootURL)
	t.Setenv("TASKCLUSTER_PROXY_URL", "")
	t.Setenv("TASKCLUSTER_CLIENT_ID", "tester")
	t.Setenv("TASKCLUSTER_ACCESS_TOKEN", "secret")
	t.Setenv("TASKCLUSTER_CERTIFICATE", "")
}

func hawkExt(t *testing.T, header string) string {
	t.Helper()
	m := extAttribute.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)
	return string(raw)
}

func TestNewObjectWithoutAuthorizedScopes(t *testing.T) {
	server, auth := pingServer(t)
	setCredentialsEnv(t, server.URL)

	obj, err := newObject()
	require.NoError(t, err)
	require.NotNil(t, obj.Credentials)
	assert.Nil(t, obj.Credentials.AuthorizedScopes)

	require.NoError(t, obj.Ping(context.Background()))
	require.Len(t, *auth, 1)
	assert.Contains(t, (*auth)[0], `id="tester"`)
	assert.Empty(t, hawkExt(t, (*auth)[0]), "unrestricted requests carry no ext")

	temp, err := obj.Credentials.CreateTemporaryCredentials(time.Hour, "object:upload:*")
	require.NoError(t, err)
	assert.Nil(t, temp.AuthorizedScopes)
}

func TestNewObjectWithAuthorizedScopes(t *testing.T) {
	server, auth := pingServer(t)
	setCredentialsEnv(t, server.URL)

	viper.Set("authorized_scopes", []string{"object:download:*"})
	t.Cleanup(func() { viper.Set("authorized_scopes", nil) })

	obj, err := newObject()
	require.NoError(t, err)
	assert.Equal(t, []string{"object:download:*"}, obj.Credentials.AuthorizedScopes)

	require.NoError(t, obj.Ping(context.Background()))
	require.Len(t, *auth, 1)
	assert.JSONEq(t, `{"authorizedScopes": ["object:download:*"]}`, hawkExt(t, (*auth)[0]))
}

func TestNewObjectWithoutRootURL(t *testing.T) {
	t.Setenv("TASKCLUSTER_ROOT_URL", "")
	t.Setenv("TASKCLUSTER_PROXY_URL", "")

	_, err := newObject()
	assert.ErrorContains(t, err, "no root URL")
}
