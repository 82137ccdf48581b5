// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Resolve reads so the host env can't leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "DATABASE_TYPE", "ADMIN_KEY_SALT",
		"GOOGLE_SHEETS_API_KEY", "GOOGLE_SHEETS_ID", "GOOGLE_SHEETS_NAME",
		"GOOGLE_APPS_SCRIPT_URL", "SHEETS_TRANSPORT", "PROXY_URL",
		"SERVERLESS_URL", "META_FILE", "USER_TYPES", "PRODUCTION",
	} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("GOOGLE_SHEETS_ID", "sheet-123")

	cfg, err := ParseFlags([]string{"--env-file", ""})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "sheet-123", cfg.SheetID)
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GOOGLE_SHEETS_ID", "from-env")

	cfg, err := ParseFlags([]string{
		"-p", "8080", "-d", "file:test.db", "--admin-salt", "s1",
		"--sheet-id", "from-flag", "--env-file", "",
	})
	require.NoError(t, err)

	// CLI should override env
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "from-flag", cfg.SheetID)
	assert.Equal(t, "s1", cfg.AdminKeySalt)
}

func TestParseFlags_DevelopmentFallbacks(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"--env-file", ""})
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DevDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, DevAdminKeySalt, cfg.AdminKeySalt)
	assert.Equal(t, DevProxyURL, cfg.ProxyURL)
	assert.Equal(t, TransportAuto, cfg.Transport)
	assert.False(t, cfg.SheetsConfigured())
}

func TestParseFlags_ProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRODUCTION", "true")

	_, err := ParseFlags([]string{"--env-file", "", "-d", "file:prod.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_KEY_SALT")

	t.Setenv("ADMIN_KEY_SALT", "prod-salt")
	_, err = ParseFlags([]string{"--env-file", "", "-d", "file:prod.db", "--transport", "auto"})
	require.Error(t, err)

	cfg, err := ParseFlags([]string{"--env-file", "", "-d", "file:prod.db"})
	require.NoError(t, err)
	assert.Equal(t, TransportDirect, cfg.Transport)
	assert.Empty(t, cfg.ProxyURL)
}

func TestParseFlags_DirectGETTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEETS_TRANSPORT", "direct-get")

	cfg, err := ParseFlags([]string{"--env-file", "", "--production", "--admin-salt", "s", "-d", "comidas.db"})
	require.NoError(t, err)
	assert.Equal(t, TransportDirectGET, cfg.Transport)
}

func TestParseFlags_InvalidValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "abc")
	_, err := ParseFlags([]string{"--env-file", ""})
	assert.Error(t, err)
	t.Setenv("PORT", "")

	_, err = ParseFlags([]string{"--env-file", "", "-t", "mysql"})
	assert.Error(t, err)

	_, err = ParseFlags([]string{"--env-file", "", "--transport", "carrier-pigeon"})
	assert.Error(t, err)

	_, err = ParseFlags([]string{"--env-file", "", "--transport", "serverless"})
	assert.Error(t, err)

	_, err = ParseFlags([]string{"--env-file", "", "--user-types", "MEP"})
	assert.Error(t, err)
}

func TestParseFlags_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GOOGLE_SHEETS_NAME")
	t.Cleanup(func() { os.Unsetenv("GOOGLE_SHEETS_NAME") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_SHEETS_NAME=Inscripciones\n"), 0o600))

	cfg, err := ParseFlags([]string{"--env-file", path})
	require.NoError(t, err)
	assert.Equal(t, "Inscripciones", cfg.SheetName)
}

func TestParseFlags_MetaTags(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_ID", "from-env")

	html := `<!doctype html><html><head>
<meta charset="utf-8">
<meta name="google-sheets-api-key" content="key-from-meta">
<meta name="google-sheets-id" content="id-from-meta">
<meta name="google-apps-script-url" content="https://script.google.com/macros/s/abc/exec">
<meta name="description" content="">
</head><body></body></html>`
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(html), 0o600))

	cfg, err := ParseFlags([]string{"--env-file", "", "--meta-file", path})
	require.NoError(t, err)

	// env wins over meta tags
	assert.Equal(t, "from-env", cfg.SheetID)
	assert.Equal(t, "key-from-meta", cfg.SheetsAPIKey)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", cfg.ScriptURL)
	assert.True(t, cfg.SheetsConfigured())
}

func TestParseMetaTags_SkipsEmpty(t *testing.T) {
	tags, err := ParseMetaTags(strings.NewReader(`<meta name="Google-Sheets-Id" content=" x "><meta name="y" content="">`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"google-sheets-id": "x"}, tags)
}

func TestUserTypes(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"--env-file", "", "--user-types", "mep:Sacerdote, jlg:residente"})
	require.NoError(t, err)

	assert.Equal(t, "sacerdote", cfg.UserType("MEP"))
	assert.Equal(t, "sacerdote", cfg.UserType(" mep "))
	assert.Equal(t, "residente", cfg.UserType("XYZ"))
	assert.Equal(t, "JLG:residente,MEP:sacerdote", cfg.UserTypesString())
}

func TestMissingSheetSettings(t *testing.T) {
	cfg := Config{Transport: TransportDirect, SheetID: "id"}
	assert.Equal(t, []string{"GOOGLE_SHEETS_API_KEY", "GOOGLE_APPS_SCRIPT_URL"}, cfg.MissingSheetSettings())

	cfg = Config{Transport: TransportServerless, ServerlessURL: "https://example.vercel.app/api/sheets"}
	assert.Empty(t, cfg.MissingSheetSettings())
	assert.True(t, cfg.SheetsConfigured())
}
