// Package sanitizer redacts secrets from HTTP dumps before they are logged.
package sanitizer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httputil"
)

// Redactor replaces known secrets with a salted digest, so a dump shows
// whether two requests used the same token without revealing it.
type Redactor struct {
	salt    string
	secrets [][]byte
}

// New returns a Redactor for secrets. Empty secrets are ignored.
func New(salt string, secrets ...string) *Redactor {
	r := &Redactor{salt: salt}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, []byte(s))
		}
	}
	return r
}

// DumpRequest dumps the outgoing request line and headers.
func (r *Redactor) DumpRequest(req *http.Request) ([]byte, error) {
	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		return nil, fmt.Errorf("failed to dump request: %w", err)
	}
	return r.Redact(dump), nil
}

// DumpResponse dumps the status line and headers. The body is left unread.
func (r *Redactor) DumpResponse(resp *http.Response) ([]byte, error) {
	dump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return nil, fmt.Errorf("failed to dump response: %w", err)
	}
	return r.Redact(dump), nil
}

// Redact returns data with every secret replaced by [S256:hash]. data is
// returned unchanged when it holds no secret.
func (r *Redactor) Redact(data []byte) []byte {
	if r == nil || len(data) == 0 {
		return data
	}

	out := data
	copied := false
	for _, needle := range r.secrets {
		if !bytes.Contains(out, needle) {
			continue
		}
		if !copied {
			out = bytes.Clone(data)
			copied = true
		}
		out = bytes.ReplaceAll(out, needle, r.hash(needle))
	}
	return out
}

func (r *Redactor) hash(secret []byte) []byte {
	sum := sha256.Sum256(append([]byte(r.salt), secret...))
	return []byte("[S256:" + hex.EncodeToString(sum[:8]) + "]")
}
