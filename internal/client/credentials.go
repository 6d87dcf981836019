package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moamenhredeen/tcobject/internal/hawk"
	"github.com/pkg/errors"
)

const (
	// MaxTemporaryCredentialsDuration is the longest lifetime the service
	// accepts for temporary credentials
	MaxTemporaryCredentialsDuration = 31 * 24 * time.Hour

	// temporary credentials start slightly in the past to allow for clock skew
	certificateBackdate = 5 * time.Minute
)

// Credentials authenticate a client. Certificate is set for temporary
// credentials; AuthorizedScopes, when non-empty, restricts the scopes a
// request may use.
type Credentials struct {
	ClientID         string   `json:"clientId"`
	AccessToken      string   `json:"accessToken"`
	Certificate      string   `json:"certificate,omitempty"`
	AuthorizedScopes []string `json:"authorizedScopes,omitempty"`
}

// Certificate is the signed statement that makes temporary credentials valid
type Certificate struct {
	Version   int      `json:"version"`
	Scopes    []string `json:"scopes"`
	Start     int64    `json:"start"`
	Expiry    int64    `json:"expiry"`
	Seed      string   `json:"seed"`
	Signature string   `json:"signature"`
	Issuer    string   `json:"issuer,omitempty"`
}

func (c *Credentials) hawk() hawk.Credentials {
	return hawk.Credentials{ID: c.ClientID, Key: c.AccessToken}
}

// ext builds the Hawk ext attribute carrying the certificate and authorized
// scopes, or "" when there is neither
func (c *Credentials) ext() (string, error) {
	ext := map[string]interface{}{}
	if c.Certificate != "" {
		var cert json.RawMessage
		if err := json.Unmarshal([]byte(c.Certificate), &cert); err != nil {
			return "", errors.Wrap(err, "invalid certificate")
		}
		ext["certificate"] = cert
	}
	if len(c.AuthorizedScopes) > 0 {
		ext["authorizedScopes"] = c.AuthorizedScopes
	}
	if len(ext) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ext)
	if err != nil {
		return "", errors.Wrap(err, "encoding hawk ext")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// CreateTemporaryCredentials issues temporary credentials for the same
// client id, limited to the given scopes and duration
func (c *Credentials) CreateTemporaryCredentials(duration time.Duration, scopes ...string) (*Credentials, error) {
	return c.CreateNamedTemporaryCredentials("", duration, scopes...)
}

// CreateNamedTemporaryCredentials issues temporary credentials under a new
// client id (with c as issuer). An empty tempClientID keeps c's client id.
func (c *Credentials) CreateNamedTemporaryCredentials(tempClientID string, duration time.Duration, scopes ...string) (*Credentials, error) {
	if duration > MaxTemporaryCredentialsDuration {
		return nil, errors.Errorf("temporary credentials must expire within %v", MaxTemporaryCredentialsDuration)
	}
	if duration <= 0 {
		return nil, errors.New("temporary credentials need a positive duration")
	}
	if c.Certificate != "" {
		return nil, errors.New("temporary credentials cannot be used to create temporary credentials")
	}
	if c.ClientID == "" || c.AccessToken == "" {
		return nil, errors.New("permanent credentials are required")
	}

	now := time.Now()
	seed := Slug() + Slug()
	cert := newCertificate(c.ClientID, tempClientID, scopes, now.Add(-certificateBackdate), now.Add(duration), seed)
	cert.sign(c.AccessToken, tempClientID)

	certJSON, err := json.Marshal(cert)
	if err != nil {
		return nil, errors.Wrap(err, "encoding certificate")
	}

	clientID := c.ClientID
	if tempClientID != "" {
		clientID = tempClientID
	}
	return &Credentials{
		ClientID:    clientID,
		AccessToken: temporaryAccessToken(c.AccessToken, seed),
		Certificate: string(certJSON),
	}, nil
}

func newCertificate(issuer, tempClientID string, scopes []string, start, expiry time.Time, seed string) *Certificate {
	cert := &Certificate{
		Version: 1,
		Scopes:  append([]string{}, scopes...),
		Start:   start.UnixMilli(),
		Expiry:  expiry.UnixMilli(),
		Seed:    seed,
	}
	if tempClientID != "" {
		cert.Issuer = issuer
	}
	return cert
}

func (cert *Certificate) sign(accessToken, tempClientID string) {
	lines := []string{"version:" + strconv.Itoa(cert.Version)}
	if cert.Issuer != "" {
		lines = append(lines, "clientId:"+tempClientID, "issuer:"+cert.Issuer)
	}
	lines = append(lines,
		"seed:"+cert.Seed,
		"start:"+strconv.FormatInt(cert.Start, 10),
		"expiry:"+strconv.FormatInt(cert.Expiry, 10),
		"scopes:",
	)
	lines = append(lines, cert.Scopes...)

	m := hmac.New(sha256.New, []byte(accessToken))
	m.Write([]byte(strings.Join(lines, "\n")))
	cert.Signature = base64.StdEncoding.EncodeToString(m.Sum(nil))
}

func temporaryAccessToken(accessToken, seed string) string {
	m := hmac.New(sha256.New, []byte(accessToken))
	m.Write([]byte(seed))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(m.Sum(nil)), "=")
}

// Slug returns a random 22 character, URL-safe identifier whose first
// character is never '-'
func Slug() string {
	id := uuid.New()
	id[0] &= 0x7f
	return base64.RawURLEncoding.EncodeToString(id[:])
}
