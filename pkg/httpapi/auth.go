package httpapi

import (
	"fmt"
	"net/http"
	"strings"
)

// Scheme selects how callers present the shared secret. A deployment
// accepts exactly one.
type Scheme string

const (
	// SchemeHeader reads the secret from the X-API-Key header.
	SchemeHeader Scheme = "header"
	// SchemeBearer reads it from "Authorization: Bearer <secret>".
	SchemeBearer Scheme = "bearer"
)

// APIKeyHeader is the header used by SchemeHeader.
const APIKeyHeader = "X-API-Key"

// ParseScheme validates a configured scheme name. Empty selects SchemeHeader.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemeHeader:
		return SchemeHeader, nil
	case SchemeBearer:
		return SchemeBearer, nil
	}
	return "", fmt.Errorf("unknown auth scheme %q (want header or bearer)", s)
}

// Credential extracts the caller credential. It returns "" when the request
// does not carry one in the configured form.
func (s Scheme) Credential(r *http.Request) string {
	switch s {
	case SchemeBearer:
		auth := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return token
	default:
		return r.Header.Get(APIKeyHeader)
	}
}

// Apply sets the credential on an outgoing request.
func (s Scheme) Apply(r *http.Request, credential string) {
	if credential == "" {
		return
	}
	switch s {
	case SchemeBearer:
		r.Header.Set("Authorization", "Bearer "+credential)
	default:
		r.Header.Set(APIKeyHeader, credential)
	}
}
