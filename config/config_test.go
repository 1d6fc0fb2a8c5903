package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/localrivet/callflow/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvURL, EnvTransport, EnvTimeout, EnvAuthType, EnvAuthCredentials, EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_CALLFLOW_TOKEN", "file-token")
	path := writeFile(t, t.TempDir(), "callflow.yaml", `
url: ws://localhost:8080/mcp
transport: websocket
timeout: 15s
auth:
  type: bearer
  credentials: ${TEST_CALLFLOW_TOKEN}
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/mcp", cfg.URL)
	assert.Equal(t, "websocket", cfg.Transport)
	assert.Equal(t, Duration(15*time.Second), cfg.Timeout)
	assert.Equal(t, "file-token", cfg.Auth.Credentials)
	assert.Equal(t, "debug", cfg.LogLevel)

	ep, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, client.EndpointConfig{
		URL:        "ws://localhost:8080/mcp",
		Transport:  client.TransportWebSocket,
		Timeout:    15 * time.Second,
		Credential: client.Credential{Kind: client.CredentialBearer, Value: "file-token"},
	}, ep)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "timeout: [1, 2]\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		input     interface{}
		expected  time.Duration
		expectErr bool
	}{
		{input: nil, expected: 0},
		{input: "", expected: 0},
		{input: "30s", expected: 30 * time.Second},
		{input: "1m30s", expected: 90 * time.Second},
		{input: "5000", expected: 5 * time.Second},
		{input: 250, expected: 250 * time.Millisecond},
		{input: int64(1000), expected: time.Second},
		{input: "soon", expectErr: true},
		{input: []int{1}, expectErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimeout(tt.input)
		if tt.expectErr {
			assert.Error(t, err, "input %v", tt.input)
			continue
		}
		require.NoError(t, err, "input %v", tt.input)
		assert.Equal(t, tt.expected, got, "input %v", tt.input)
	}
}

func TestTimeoutInMilliseconds(t *testing.T) {
	path := writeFile(t, t.TempDir(), "callflow.yaml", "url: http://localhost/rpc\ntimeout: 2500\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(2500*time.Millisecond), cfg.Timeout)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	cfg := &Config{URL: "ws://file/mcp", Transport: "websocket", Timeout: Duration(time.Second)}

	t.Setenv(EnvURL, "https://env.example.com/rpc")
	t.Setenv(EnvTransport, "http")
	t.Setenv(EnvTimeout, "45s")
	t.Setenv(EnvAuthType, "basic")
	t.Setenv(EnvAuthCredentials, "user:pass")
	require.NoError(t, cfg.ApplyEnv())

	ep, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/rpc", ep.URL)
	assert.Equal(t, client.TransportHTTP, ep.Transport)
	assert.Equal(t, 45*time.Second, ep.Timeout)
	assert.Equal(t, client.Credential{Kind: client.CredentialBasic, Value: "user:pass"}, ep.Credential)

	t.Setenv(EnvTimeout, "never")
	assert.Error(t, cfg.ApplyEnv())
}

func TestResolvePrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, ".env", EnvAuthCredentials+"=dotenv-token\n"+EnvTimeout+"=20s\n")
	path := writeFile(t, dir, "endpoint.yaml", "url: ws://localhost:9000/mcp\ntimeout: 10s\n")
	t.Setenv(EnvTimeout, "5s")
	t.Cleanup(func() { _ = os.Unsetenv(EnvAuthCredentials) })

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:9000/mcp", cfg.URL)
	// Process environment wins over .env, and both win over the file.
	assert.Equal(t, Duration(5*time.Second), cfg.Timeout)
	assert.Equal(t, "dotenv-token", cfg.Auth.Credentials)

	ep, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, client.CredentialBearer, ep.Credential.Kind)
}

func TestResolveExplicitMissing(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEndpointErrors(t *testing.T) {
	_, err := (&Config{URL: "ws://h", Transport: "smoke-signals"}).Endpoint()
	assert.ErrorIs(t, err, client.ErrInvalidConfig)

	_, err = (&Config{URL: "ws://h", Auth: AuthConfig{Type: "digest", Credentials: "x"}}).Endpoint()
	assert.ErrorIs(t, err, client.ErrInvalidConfig)

	ep, err := (&Config{URL: "ws://h", Auth: AuthConfig{Type: "none"}}).Endpoint()
	require.NoError(t, err)
	assert.Equal(t, client.CredentialNone, ep.Credential.Kind)
}

func TestWarnings(t *testing.T) {
	assert.Empty(t, (&Config{URL: "wss://h", Timeout: Duration(30 * time.Second)}).Warnings())

	w := (&Config{URL: "wss://h", Timeout: Duration(100 * time.Millisecond)}).Warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "outside the recommended range")

	w = (&Config{URL: "ws://remote.example.com", Auth: AuthConfig{Credentials: "t"}}).Warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "unencrypted")

	assert.Empty(t, (&Config{URL: "ws://localhost:8080", Auth: AuthConfig{Credentials: "t"}}).Warnings())
}
