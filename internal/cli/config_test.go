package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_Precedence(t *testing.T) {
	file := &FileConfig{APIURL: "http://file:8000", APIKey: "file-key"}

	testCases := []struct {
		name    string
		flagURL string
		flagKey string
		env     map[string]string
		wantURL string
		wantKey string
	}{
		{"file only", "", "", nil, "http://file:8000", "file-key"},
		{"env beats file", "", "", map[string]string{EnvAPIURL: "http://env:8000", EnvServerKey: "server-key"}, "http://env:8000", "server-key"},
		{"cli key beats server key", "", "", map[string]string{EnvCLIKey: "cli-key", EnvServerKey: "server-key"}, "http://file:8000", "cli-key"},
		{"flags beat everything", "http://flag:9000/", "flag-key", map[string]string{EnvAPIURL: "http://env", EnvCLIKey: "cli-key"}, "http://flag:9000", "flag-key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := Resolve(tc.flagURL, tc.flagKey, file, envMap(tc.env))
			assert.Equal(t, tc.wantURL, s.APIURL)
			assert.Equal(t, tc.wantKey, s.APIKey)
		})
	}
}

func TestResolve_Defaults(t *testing.T) {
	s := Resolve("", "", nil, envMap(nil))
	assert.Equal(t, DefaultAPIURL, s.APIURL)
	assert.Empty(t, s.APIKey)
}

func TestSaveFileConfig_RoundTripWithOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &FileConfig{
		APIURL:      "http://localhost:8000",
		APIKey:      "secret",
		BankHeaders: map[string]string{"x-http-session-info": `{"sessionId":"s"}`},
	}

	require.NoError(t, SaveFileConfig(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadFileConfig_Missing(t *testing.T) {
	cfg, err := LoadFileConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, cfg)
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0600))

	_, err := LoadFileConfig(path)
	assert.Error(t, err)
}
