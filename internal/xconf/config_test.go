package xconf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNilReturnsDefaults(t *testing.T) {
	got, err := Load(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestLoadYAMLOverridesSelectedFields(t *testing.T) {
	yaml := []byte(`
operation_timeout: 2s
session_pool_max: 50
retry_overload_multiplier: 3.5
`)
	got, err := Load(yaml, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, got.OperationTimeout)
	assert.Equal(t, 50, got.SessionPoolMax)
	assert.Equal(t, 3.5, got.RetryOverloadMultiplier)
	// Untouched fields keep their defaults.
	assert.Equal(t, Defaults().DiscoveryInterval, got.DiscoveryInterval)
}

func TestLoadYAMLIsDefaultFormat(t *testing.T) {
	yaml := []byte(`session_pool_max: 7`)
	got, err := Load(yaml, "")
	require.NoError(t, err)
	assert.Equal(t, 7, got.SessionPoolMax)
}

func TestLoadJSONOverridesSelectedFields(t *testing.T) {
	data := []byte(`{"topic_writer_chunk_size": 25, "coordination_ping_interval": "15s"}`)
	got, err := Load(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 25, got.TopicWriterChunkSize)
	assert.Equal(t, 15*time.Second, got.CoordinationPingInterval)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load([]byte("x: 1"), Format("toml"))
	assert.Error(t, err)
	var fmtErr *ErrUnsupportedFormat
	assert.ErrorAs(t, err, &fmtErr)
}

func TestLoadMalformedYAMLReturnsError(t *testing.T) {
	_, err := Load([]byte("session_pool_max: [1, 2"), FormatYAML)
	assert.Error(t, err)
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	yaml := []byte("some_unknown_field: 42\nsession_pool_max: 3\n")
	got, err := Load(yaml, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SessionPoolMax)
}
