// Package xconf loads the driver's tunables — timeouts, pool sizes,
// backoff constants, keepalive intervals — from an optional YAML/JSON
// byte buffer layered under code-supplied defaults. The connection
// string itself (scheme://host:port/database?k=v) is parsed separately
// by connstring.go at the module root: that vocabulary is small and
// fixed (spec.md §6), whereas these tunables are open-ended operator
// knobs, which is exactly the shape koanf is for.
package xconf

import (
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format is the byte-buffer encoding passed to Load.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Tunables holds every knob a caller may override. Load layers a buffer
// over Defaults(), so keys the buffer omits keep their default; a
// Tunables value passed through the root package's WithTunables option
// is used as given, zero fields included. Open (client.go) reads only
// ChannelKeepalive, DiscoveryInterval, DiscoveryStartupBudget,
// SessionPoolMax, SessionKeepaliveInterval and CoordinationPingInterval;
// the other fields are loaded and defaulted but not applied anywhere.
type Tunables struct {
	// OperationTimeout is the default per-RPC "operation timeout" (spec §5).
	OperationTimeout time.Duration `koanf:"operation_timeout"`
	// CancelAfter is the default "cancel after" budget; defaults to OperationTimeout.
	CancelAfter time.Duration `koanf:"cancel_after"`

	// DiscoveryInterval is the steady-state refresh period (spec §4.3).
	DiscoveryInterval time.Duration `koanf:"discovery_interval"`
	// DiscoveryStartupBudget bounds how long the first listing may take
	// before Discovery.Start fails with ErrDiscovery.
	DiscoveryStartupBudget time.Duration `koanf:"discovery_startup_budget"`

	// SessionPoolMax is the Session Pool's permit ceiling (spec §4.6, default 1000).
	SessionPoolMax int `koanf:"session_pool_max"`
	// SessionKeepaliveInterval drives the optional idle-session probe loop.
	SessionKeepaliveInterval time.Duration `koanf:"session_keepalive_interval"`

	// TokenRefreshAhead is a refresh lead time; the Token Cache does not
	// read it and refreshes once a token is past its next-renew instant.
	TokenRefreshAhead time.Duration `koanf:"token_refresh_ahead"`

	// ChannelKeepalive is the TCP keepalive period for pooled channels (spec §4.1, 15s).
	ChannelKeepalive time.Duration `koanf:"channel_keepalive"`

	// RetryMaxAttempts and RetryMaxElapsed bound the Transaction Runner's
	// budget (spec §4.7): whichever expires first surfaces the last error.
	RetryMaxAttempts int           `koanf:"retry_max_attempts"`
	RetryMaxElapsed  time.Duration `koanf:"retry_max_elapsed"`
	RetryBaseDelay   time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay    time.Duration `koanf:"retry_max_delay"`
	// RetryOverloadMultiplier makes Overloaded backoff grow more
	// aggressively than Aborted, per spec §4.7.
	RetryOverloadMultiplier float64 `koanf:"retry_overload_multiplier"`

	// TopicWriterChunkSize and TopicWriterFlushPeriod bound the batch
	// dispatcher (spec §4.9 defaults: 10 messages, 1s).
	TopicWriterChunkSize   int           `koanf:"topic_writer_chunk_size"`
	TopicWriterFlushPeriod time.Duration `koanf:"topic_writer_flush_period"`

	// CoordinationPingInterval drives the coordination session keepalive (spec §4.10).
	CoordinationPingInterval time.Duration `koanf:"coordination_ping_interval"`
}

// Defaults returns the built-in defaults named throughout spec.md.
func Defaults() Tunables {
	return Tunables{
		OperationTimeout:         time.Second,
		CancelAfter:              time.Second,
		DiscoveryInterval:        time.Minute,
		DiscoveryStartupBudget:   10 * time.Second,
		SessionPoolMax:           1000,
		SessionKeepaliveInterval: 5 * time.Minute,
		TokenRefreshAhead:        time.Minute,
		ChannelKeepalive:         15 * time.Second,
		RetryMaxAttempts:         10,
		RetryMaxElapsed:          30 * time.Second,
		RetryBaseDelay:           50 * time.Millisecond,
		RetryMaxDelay:            5 * time.Second,
		RetryOverloadMultiplier:  2.0,
		TopicWriterChunkSize:     10,
		TopicWriterFlushPeriod:   time.Second,
		CoordinationPingInterval: 10 * time.Second,
	}
}

// Load merges a YAML/JSON byte buffer over Defaults(). A nil/empty
// buffer returns Defaults() unchanged. Unknown keys are ignored —
// koanf's mapstructure pass only touches fields it recognises, unlike
// the connection-string parser which rejects unknown query parameters.
func Load(data []byte, format Format) (Tunables, error) {
	t := Defaults()
	if len(data) == 0 {
		return t, nil
	}

	k := koanf.New(".")
	var parser koanf.Parser
	switch format {
	case FormatJSON:
		parser = json.Parser()
	case FormatYAML, "":
		parser = yaml.Parser()
	default:
		return t, &ErrUnsupportedFormat{Format: string(format)}
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return t, err
	}
	if err := k.Unmarshal("", &t); err != nil {
		return t, err
	}
	return t, nil
}

// ErrUnsupportedFormat reports an unrecognised Format value passed to Load.
type ErrUnsupportedFormat struct{ Format string }

func (e *ErrUnsupportedFormat) Error() string {
	return "xconf: unsupported format " + e.Format
}
