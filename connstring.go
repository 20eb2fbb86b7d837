package ydbgo

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ydbgo/ydbgo/internal/xauth"
)

// connString is the parsed form of spec.md §6's connection string:
// scheme://host:port[/database][?k=v&...]. Only grpc and grpcs schemes
// are recognised; an unknown query parameter is a Config error rather
// than silently ignored, since a typoed knob should never pass for "no
// auth configured".
type connString struct {
	endpointURI string
	database    string
	credential  xauth.Provider // set directly for token_cmd / env / anonymous
	loginUser   string         // set instead of credential for token_static_*
	loginPass   string
	caCertPath  string
}

var recognizedParams = map[string]bool{
	"database":              true,
	"token_cmd":             true,
	"token_static_username": true,
	"token_static_password": true,
	"ca_certificate":        true,
}

// parseConnString parses raw into its endpoint URI, database, and
// credential provider. database in the path takes precedence over the
// database query parameter if both are present.
func parseConnString(raw string) (connString, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return connString{}, newError(KindConfig, fmt.Sprintf("malformed connection string %q", raw), err)
	}

	switch strings.ToLower(u.Scheme) {
	case "grpc", "grpcs":
	default:
		return connString{}, newError(KindConfig, fmt.Sprintf("unknown scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return connString{}, newError(KindConfig, "connection string has no host", nil)
	}

	cs := connString{endpointURI: u.Scheme + "://" + u.Host}

	if path := strings.Trim(u.Path, "/"); path != "" {
		cs.database = "/" + path
	}

	query := u.Query()
	for key := range query {
		if !recognizedParams[key] {
			return connString{}, newError(KindConfig, fmt.Sprintf("unrecognized connection parameter %q", key), nil)
		}
	}

	if db := query.Get("database"); db != "" && cs.database == "" {
		cs.database = db
	}
	if cs.database == "" {
		cs.database = "/local"
	}

	cs.caCertPath = query.Get("ca_certificate")

	if err := cs.resolveCredential(query); err != nil {
		return connString{}, err
	}

	return cs, nil
}

// resolveCredential fills either credential or the loginUser/loginPass
// pair. The static-login exchange itself is a LoginRequest/LoginResponse
// unary call, which needs a Connection Pool that doesn't exist yet at
// parse time — client.go performs it and wraps the result as
// xauth.Static once loginUser is set.
func (cs *connString) resolveCredential(query url.Values) error {
	if cmd := query.Get("token_cmd"); cmd != "" {
		fields := strings.Fields(cmd)
		cs.credential = xauth.Command(fields[0], fields[1:], time.Minute)
		return nil
	}

	user := query.Get("token_static_username")
	pass := query.Get("token_static_password")
	if user != "" || pass != "" {
		if user == "" || pass == "" {
			return newError(KindConfig, "token_static_username and token_static_password must be set together", nil)
		}
		cs.loginUser = user
		cs.loginPass = pass
		return nil
	}

	if env := xauth.FromEnv(); env != nil {
		cs.credential = env
		return nil
	}

	cs.credential = xauth.Static("")
	return nil
}
