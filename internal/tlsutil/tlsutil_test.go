package tlsutil

import (
	"crypto/tls"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTLSConfig(t *testing.T) {
	cfg := DefaultTLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.NotEmpty(t, cfg.CipherSuites)
	for _, cs := range cfg.CipherSuites {
		switch cs {
		case tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305:
		default:
			t.Errorf("unexpected non-AEAD cipher suite: %d", cs)
		}
	}
}

func TestSecureHTTPClient(t *testing.T) {
	client := SecureHTTPClient(15 * time.Second)
	assert.Equal(t, 15*time.Second, client.Timeout)
	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.True(t, tr.ForceAttemptHTTP2)
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("zero options", func(t *testing.T) {
		client, err := NewHTTPClient(time.Second, Options{})
		require.NoError(t, err)
		tr := client.Transport.(*http.Transport)
		assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
		assert.Nil(t, tr.TLSClientConfig.RootCAs)
	})

	t.Run("insecure", func(t *testing.T) {
		client, err := NewHTTPClient(time.Second, Options{InsecureSkipVerify: true})
		require.NoError(t, err)
		assert.True(t, client.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify)
	})

	t.Run("missing CA file", func(t *testing.T) {
		_, err := NewHTTPClient(time.Second, Options{CAFile: filepath.Join(t.TempDir(), "nope.pem")})
		require.Error(t, err)
	})

	t.Run("CA file without certificates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a cert"), 0o600))
		_, err := NewHTTPClient(time.Second, Options{CAFile: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no certificates")
	})
}
