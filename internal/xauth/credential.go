package xauth

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TokenInfo is the result of one Credential Provider call: a bearer
// token plus the cache's hint for when to renew it next.
type TokenInfo struct {
	Token     string
	NextRenew time.Time
}

// Provider is the Credential Provider capability (C1): produce a
// bearer token with an expiry hint. Implementations never block longer
// than ctx allows.
type Provider interface {
	Token(ctx context.Context) (TokenInfo, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (TokenInfo, error)

func (f ProviderFunc) Token(ctx context.Context) (TokenInfo, error) { return f(ctx) }

// Static returns a fixed token that never expires. Used for
// pre-obtained IAM tokens and anonymous/insecure connections.
func Static(token string) Provider {
	return ProviderFunc(func(context.Context) (TokenInfo, error) {
		return TokenInfo{Token: token, NextRenew: time.Now().Add(365 * 24 * time.Hour)}, nil
	})
}

// Command runs an external program and takes its trimmed stdout as the
// token. Used for the token_cmd connection-string parameter. Refreshes
// every ttl.
func Command(name string, args []string, ttl time.Duration) Provider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return ProviderFunc(func(ctx context.Context) (TokenInfo, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return TokenInfo{}, fmt.Errorf("%w: %s: %w", ErrNoCredential, name, err)
		}
		token := strings.TrimSpace(out.String())
		if token == "" {
			return TokenInfo{}, fmt.Errorf("%w: %s produced an empty token", ErrNoCredential, name)
		}
		return TokenInfo{Token: token, NextRenew: time.Now().Add(ttl)}, nil
	})
}

// ServiceAccountKeyFile is a stand-in for the service-account JWT
// exchange flow: it never contacts a token-issuing endpoint (out of
// scope per spec §1's "no generated RPC stubs" boundary for the auth
// service) and instead treats the key file's contents as a pre-minted
// token, refreshed every ttl. Grounded on the metadata/service-account
// variants the Rust original distinguishes (_examples/original_source).
func ServiceAccountKeyFile(path string, ttl time.Duration) Provider {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return ProviderFunc(func(context.Context) (TokenInfo, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return TokenInfo{}, fmt.Errorf("%w: %s: %w", ErrNoCredential, path, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return TokenInfo{}, fmt.Errorf("%w: %s is empty", ErrNoCredential, path)
		}
		return TokenInfo{Token: token, NextRenew: time.Now().Add(ttl)}, nil
	})
}

// MetadataURL polls a metadata service (e.g. the compute instance
// metadata endpoint) for a token. The HTTP exchange itself is supplied
// by fetch so this stays testable without a real metadata server.
func MetadataURL(fetch func(ctx context.Context) (token string, ttl time.Duration, err error)) Provider {
	return ProviderFunc(func(ctx context.Context) (TokenInfo, error) {
		token, ttl, err := fetch(ctx)
		if err != nil {
			return TokenInfo{}, fmt.Errorf("%w: metadata fetch: %w", ErrNoCredential, err)
		}
		if ttl <= 0 {
			ttl = time.Minute
		}
		return TokenInfo{Token: token, NextRenew: time.Now().Add(ttl)}, nil
	})
}

// FromEnv resolves a Provider the way the connection string's absence
// of explicit credentials falls back to: IAM_TOKEN for a pre-obtained
// static token, or YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS for a
// service-account key file. Returns nil if neither is set.
func FromEnv() Provider {
	if token := os.Getenv("IAM_TOKEN"); token != "" {
		return Static(token)
	}
	if path := os.Getenv("YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS"); path != "" {
		return ServiceAccountKeyFile(path, 0)
	}
	return nil
}

var (
	_ Provider = ProviderFunc(nil)
)
