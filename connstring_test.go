package ydbgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnStringDefaults(t *testing.T) {
	cs, err := parseConnString("grpc://localhost:2136")
	require.NoError(t, err)
	assert.Equal(t, "grpc://localhost:2136", cs.endpointURI)
	assert.Equal(t, "/local", cs.database)
	require.NotNil(t, cs.credential)
}

func TestParseConnStringDatabasePath(t *testing.T) {
	cs, err := parseConnString("grpcs://host:2135/my/db")
	require.NoError(t, err)
	assert.Equal(t, "/my/db", cs.database)
}

func TestParseConnStringDatabaseQueryParam(t *testing.T) {
	cs, err := parseConnString("grpc://host:2136?database=/from/query")
	require.NoError(t, err)
	assert.Equal(t, "/from/query", cs.database)
}

func TestParseConnStringPathPrecedesQuery(t *testing.T) {
	cs, err := parseConnString("grpc://host:2136/path/db?database=/query/db")
	require.NoError(t, err)
	assert.Equal(t, "/path/db", cs.database)
}

func TestParseConnStringUnknownScheme(t *testing.T) {
	_, err := parseConnString("http://host:80")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConfig, e.Kind)
}

func TestParseConnStringMissingHost(t *testing.T) {
	_, err := parseConnString("grpc://")
	_, ok := AsError(err)
	assert.True(t, ok)
}

func TestParseConnStringUnrecognizedParam(t *testing.T) {
	_, err := parseConnString("grpc://host:2136?bogus=1")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConfig, e.Kind)
}

func TestParseConnStringTokenCmd(t *testing.T) {
	cs, err := parseConnString("grpc://host:2136?token_cmd=printf+hello-token")
	require.NoError(t, err)
	require.NotNil(t, cs.credential)
	info, err := cs.credential.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello-token", info.Token)
}

func TestParseConnStringStaticLoginRequiresBoth(t *testing.T) {
	_, err := parseConnString("grpc://host:2136?token_static_username=admin")
	_, ok := AsError(err)
	assert.True(t, ok)
}

func TestParseConnStringStaticLoginSetsFields(t *testing.T) {
	cs, err := parseConnString("grpc://host:2136?token_static_username=admin&token_static_password=secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", cs.loginUser)
	assert.Equal(t, "secret", cs.loginPass)
	assert.Nil(t, cs.credential)
}

func TestParseConnStringCACertificate(t *testing.T) {
	cs, err := parseConnString("grpcs://host:2135?ca_certificate=/etc/ydb/ca.pem")
	require.NoError(t, err)
	assert.Equal(t, "/etc/ydb/ca.pem", cs.caCertPath)
}

func TestParseConnStringFallsBackToEnv(t *testing.T) {
	t.Setenv("IAM_TOKEN", "from-env")
	t.Setenv("YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS", "")

	cs, err := parseConnString("grpc://host:2136")
	require.NoError(t, err)
	require.NotNil(t, cs.credential)
	info, err := cs.credential.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", info.Token)
}
