package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	t.Setenv("BW_SESSION", "sess-token")

	cfg, err := Load(writeConfig(t, "vault: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Vault.CLIPath != "bw" {
		t.Errorf("cli_path = %q", cfg.Vault.CLIPath)
	}
	if cfg.Vault.Session != "sess-token" {
		t.Errorf("session = %q", cfg.Vault.Session)
	}
	if cfg.VaultTimeout() != 60*time.Second {
		t.Errorf("vault timeout = %v", cfg.VaultTimeout())
	}
	if cfg.APITimeout() != 30*time.Second {
		t.Errorf("api timeout = %v", cfg.APITimeout())
	}
	if cfg.API.BaseURL != "https://api.bitwarden.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Gateway.Addr != DefaultGatewayAddr {
		t.Errorf("gateway addr = %q", cfg.Gateway.Addr)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("BW_CLIENT_ID", "organization.client")
	t.Setenv("BW_CLIENT_SECRET", "s3cret")
	t.Setenv("BW_SESSION", "")

	cfg, err := Load(writeConfig(t, `
api:
  client_id: ${BW_CLIENT_ID}
  client_secret: ${BW_CLIENT_SECRET}
  timeout: ${BW_API_TIMEOUT:-45s}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.ClientID != "organization.client" {
		t.Errorf("client_id = %q", cfg.API.ClientID)
	}
	if cfg.API.ClientSecret != "s3cret" {
		t.Errorf("client_secret = %q", cfg.API.ClientSecret)
	}
	if cfg.APITimeout() != 45*time.Second {
		t.Errorf("api timeout = %v", cfg.APITimeout())
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "api:\n  client_id: ${VAULTMCP_TEST_UNSET_VAR}\n"))
	if err == nil || !strings.Contains(err.Error(), "unresolved variable: VAULTMCP_TEST_UNSET_VAR") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "vault:\n  timeout: sixty\n"))
	if err == nil || !strings.Contains(err.Error(), "vault.timeout") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BW_SESSION", "sess")
	t.Setenv("BW_CLIENT_ID", "cid")
	t.Setenv("BW_CLIENT_SECRET", "csec")
	t.Setenv("BW_API_BASE_URL", "https://api.self-hosted.example.com")
	t.Setenv("BW_IDENTITY_URL", "https://identity.self-hosted.example.com")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.CLIEnabled() || !cfg.APIEnabled() {
		t.Fatalf("surfaces: cli=%v api=%v", cfg.CLIEnabled(), cfg.APIEnabled())
	}
	if cfg.API.BaseURL != "https://api.self-hosted.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_NoSurface(t *testing.T) {
	t.Setenv("BW_SESSION", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	// Clear credentials that may leak in from the ambient environment.
	cfg.Vault.Session = ""
	cfg.API.ClientID = ""
	cfg.API.ClientSecret = ""

	if err := cfg.Validate(); !errors.Is(err, ErrNoSurfaceEnabled) {
		t.Fatalf("expected ErrNoSurfaceEnabled, got %v", err)
	}
}

func TestValidate_InsecureURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantOK  bool
	}{
		{"https allowed", "https://api.bitwarden.com", true},
		{"plain http rejected", "http://api.bitwarden.com", false},
		{"localhost http allowed", "http://localhost:4000", true},
		{"loopback ip http allowed", "http://127.0.0.1:4000", true},
		{"no scheme rejected", "api.bitwarden.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{
				API: APIConfig{
					BaseURL:      tt.baseURL,
					IdentityURL:  "https://identity.bitwarden.com",
					ClientID:     "cid",
					ClientSecret: "csec",
				},
			}
			if err := cfg.finalize(); err != nil {
				t.Fatalf("finalize: %v", err)
			}
			err := cfg.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate = %v, want nil", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInsecureURL) {
				t.Errorf("Validate = %v, want ErrInsecureURL", err)
			}
		})
	}
}

func TestValidate_SessionOnlySkipsURLChecks(t *testing.T) {
	t.Setenv("BW_SESSION", "sess")
	t.Setenv("BW_API_BASE_URL", "http://insecure.example.com")
	t.Setenv("BW_CLIENT_ID", "")
	t.Setenv("BW_CLIENT_SECRET", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with API disabled: %v", err)
	}
}
