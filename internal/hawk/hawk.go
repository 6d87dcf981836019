// Package hawk implements the client side of the Hawk HTTP authentication
// scheme (SHA-256 only): request headers, payload hashes and bewits.
package hawk

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const headerVersion = "1"

// Credentials identify the signer
type Credentials struct {
	ID  string
	Key string
}

// Artifacts are the inputs of a MAC computation
type Artifacts struct {
	Method   string
	Host     string
	Port     string
	Resource string
	TS       int64
	Nonce    string
	Hash     string
	Ext      string
}

// NewArtifacts fills the request-derived parts of the artifacts from a URL
func NewArtifacts(method string, u *url.URL) Artifacts {
	host, port := hostPort(u)
	resource := u.EscapedPath()
	if resource == "" {
		resource = "/"
	}
	if u.RawQuery != "" {
		resource += "?" + u.RawQuery
	}
	return Artifacts{
		Method:   strings.ToUpper(method),
		Host:     strings.ToLower(host),
		Port:     port,
		Resource: resource,
	}
}

// PayloadHash computes the hash of a request body as carried in the header's
// hash attribute
func PayloadHash(contentType string, body []byte) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	h := sha256.New()
	fmt.Fprintf(h, "hawk.%s.payload\n%s\n", headerVersion, ct)
	h.Write(body)
	h.Write([]byte("\n"))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// MAC computes the request MAC for the given kind ("header" or "bewit")
func MAC(creds Credentials, kind string, a Artifacts) string {
	normalized := fmt.Sprintf("hawk.%s.%s\n%d\n%s\n%s\n%s\n%s\n%s\n%s\n",
		headerVersion, kind, a.TS, a.Nonce, a.Method, a.Resource, a.Host, a.Port, a.Hash)
	if a.Ext != "" {
		normalized += strings.ReplaceAll(strings.ReplaceAll(a.Ext, "\\", "\\\\"), "\n", "\\n")
	}
	normalized += "\n"

	m := hmac.New(sha256.New, []byte(creds.Key))
	m.Write([]byte(normalized))
	return base64.StdEncoding.EncodeToString(m.Sum(nil))
}

// Header builds the value of the Authorization header for a request. A zero
// now means the current time; an empty a.Nonce gets a random one.
func Header(creds Credentials, a Artifacts, now time.Time) (string, error) {
	if creds.ID == "" || creds.Key == "" {
		return "", fmt.Errorf("hawk: incomplete credentials")
	}
	if now.IsZero() {
		now = time.Now()
	}
	a.TS = now.Unix()
	if a.Nonce == "" {
		nonce, err := Nonce()
		if err != nil {
			return "", err
		}
		a.Nonce = nonce
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Hawk id="%s", ts="%d", nonce="%s"`, creds.ID, a.TS, a.Nonce)
	if a.Hash != "" {
		fmt.Fprintf(&b, `, hash="%s"`, a.Hash)
	}
	if a.Ext != "" {
		fmt.Fprintf(&b, `, ext="%s"`, escapeHeaderAttribute(a.Ext))
	}
	fmt.Fprintf(&b, `, mac="%s"`, MAC(creds, "header", a))
	return b.String(), nil
}

// Bewit returns the bewit token granting GET access to u until expiry
func Bewit(creds Credentials, u *url.URL, ext string, expiry time.Time) (string, error) {
	if creds.ID == "" || creds.Key == "" {
		return "", fmt.Errorf("hawk: incomplete credentials")
	}
	a := NewArtifacts("GET", u)
	a.TS = expiry.Unix()
	a.Ext = ext

	mac := MAC(creds, "bewit", a)
	raw := creds.ID + "\\" + strconv.FormatInt(a.TS, 10) + "\\" + mac + "\\" + ext
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// Nonce returns a random nonce
func Nonce() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hawk: generating nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hostPort(u *url.URL) (string, string) {
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		host = u.Host
		port = ""
	}
	host = strings.Trim(host, "[]")
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return host, port
}

func escapeHeaderAttribute(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\", "\\\\"), "\"", "\\\"")
}
