// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/gastongadea/limos-arboleda/models"
)

// Transport names accepted by SHEETS_TRANSPORT
const (
	TransportDirect     = "direct"
	TransportDirectGET  = "direct-get"
	TransportProxy      = "proxy"
	TransportServerless = "serverless"
	TransportAuto       = "auto"
)

// Development fallbacks, only applied when Production is false
const (
	DevDatabaseURL  = "comidas.db"
	DevAdminKeySalt = "dev-admin-salt"
	DevProxyURL     = "http://localhost:3001"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string

	// Google Sheets
	SheetsAPIKey  string
	SheetID       string
	SheetName     string
	ScriptURL     string
	Transport     string
	ProxyURL      string
	ServerlessURL string

	EnvFile    string
	MetaFile   string
	UserTypes  map[string]string
	Production bool

	userTypesRaw string
}

// NewFlagSet binds every configuration flag to cfg. The same set backs
// ParseFlags and the cobra commands.
func NewFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("comidas", pflag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database", "d", "", "Database URL or sqlite file")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.SheetsAPIKey, "api-key", "", "Google Sheets API key (prefer env)")

	fs.StringVar(&cfg.SheetID, "sheet-id", "", "Spreadsheet id")
	fs.StringVar(&cfg.SheetName, "sheet-name", "", "Worksheet name")
	fs.StringVar(&cfg.ScriptURL, "script-url", "", "Apps Script web app URL")
	fs.StringVar(&cfg.Transport, "transport", "", "Write transport: direct, direct-get, proxy, serverless or auto")
	fs.StringVar(&cfg.ProxyURL, "proxy-url", "", "Local proxy base URL")
	fs.StringVar(&cfg.ServerlessURL, "serverless-url", "", "Serverless proxy URL")

	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fs.StringVar(&cfg.MetaFile, "meta-file", "", "HTML file whose <meta> tags provide sheet settings")
	fs.StringVar(&cfg.userTypesRaw, "user-types", "", "Initials to user type, e.g. MEP:sacerdote,JLG:residente")
	fs.BoolVar(&cfg.Production, "production", false, "Disable development fallbacks")

	return fs
}

// ParseFlags parses args and resolves the remaining settings
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := NewFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Resolve(cfg)
}

// Resolve fills whatever the flags left empty. Priority: flags, then the
// environment (after loading the dotenv file), then <meta> tags, then
// development fallbacks.
func Resolve(cfg Config) (Config, error) {
	if cfg.EnvFile != "" {
		// A missing .env is normal outside development
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", cfg.EnvFile, err)
		}
	}

	if !cfg.Production {
		if v := os.Getenv("PRODUCTION"); v != "" {
			prod, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid PRODUCTION env variable")
			}
			cfg.Production = prod
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}

	envFallback(&cfg.DatabaseURL, "DATABASE_URL")
	envFallback(&cfg.DatabaseType, "DATABASE_TYPE")
	envFallback(&cfg.AdminKeySalt, "ADMIN_KEY_SALT")
	envFallback(&cfg.SheetsAPIKey, "GOOGLE_SHEETS_API_KEY")
	envFallback(&cfg.SheetID, "GOOGLE_SHEETS_ID")
	envFallback(&cfg.SheetName, "GOOGLE_SHEETS_NAME")
	envFallback(&cfg.ScriptURL, "GOOGLE_APPS_SCRIPT_URL")
	envFallback(&cfg.Transport, "SHEETS_TRANSPORT")
	envFallback(&cfg.ProxyURL, "PROXY_URL")
	envFallback(&cfg.ServerlessURL, "SERVERLESS_URL")
	envFallback(&cfg.MetaFile, "META_FILE")
	envFallback(&cfg.userTypesRaw, "USER_TYPES")

	// Static hosting has no env injection; read the page's meta tags
	if cfg.MetaFile != "" {
		tags, err := LoadMetaTags(cfg.MetaFile)
		if err != nil {
			return Config{}, err
		}
		applyMetaTags(&cfg, tags)
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if !cfg.Production {
		if cfg.DatabaseURL == "" && cfg.DatabaseType == "sqlite" {
			cfg.DatabaseURL = DevDatabaseURL
		}
		if cfg.AdminKeySalt == "" {
			cfg.AdminKeySalt = DevAdminKeySalt
		}
		if cfg.ProxyURL == "" {
			cfg.ProxyURL = DevProxyURL
		}
		if cfg.Transport == "" {
			cfg.Transport = TransportAuto
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided in production
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.Transport == "" {
		cfg.Transport = TransportDirect
	}
	switch cfg.Transport {
	case TransportDirect, TransportDirectGET, TransportProxy, TransportServerless:
	case TransportAuto:
		if cfg.Production {
			return Config{}, errors.New("transport auto is only available in development")
		}
	default:
		return Config{}, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.Transport == TransportServerless && cfg.ServerlessURL == "" {
		return Config{}, errors.New("SERVERLESS_URL required for the serverless transport")
	}

	userTypes, err := parseUserTypes(cfg.userTypesRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.UserTypes = userTypes

	return cfg, nil
}

// SheetsConfigured reports whether remote sync can run at all
func (c Config) SheetsConfigured() bool {
	return len(c.MissingSheetSettings()) == 0
}

// MissingSheetSettings lists the env names of absent sheet settings.
// The serverless transport keeps credentials server-side, so only the
// proxy URL matters there.
func (c Config) MissingSheetSettings() []string {
	if c.Transport == TransportServerless {
		if c.ServerlessURL == "" {
			return []string{"SERVERLESS_URL"}
		}
		return nil
	}

	var missing []string
	if c.SheetsAPIKey == "" {
		missing = append(missing, "GOOGLE_SHEETS_API_KEY")
	}
	if c.SheetID == "" {
		missing = append(missing, "GOOGLE_SHEETS_ID")
	}
	if c.ScriptURL == "" {
		missing = append(missing, "GOOGLE_APPS_SCRIPT_URL")
	}
	return missing
}

// UserType derives tipoUsuario from initials
func (c Config) UserType(initials string) string {
	if t, ok := c.UserTypes[strings.ToUpper(strings.TrimSpace(initials))]; ok {
		return t
	}
	return models.UserTypeResidente
}

func envFallback(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// parseUserTypes reads "MEP:sacerdote,JLG:residente"
func parseUserTypes(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		initials, userType, ok := strings.Cut(pair, ":")
		initials = strings.ToUpper(strings.TrimSpace(initials))
		userType = strings.ToLower(strings.TrimSpace(userType))
		if !ok || initials == "" || userType == "" {
			return nil, fmt.Errorf("invalid USER_TYPES entry %q", pair)
		}
		out[initials] = userType
	}
	return out, nil
}

// UserTypesString renders UserTypes back into the env format
func (c Config) UserTypesString() string {
	keys := make([]string, 0, len(c.UserTypes))
	for k := range c.UserTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+c.UserTypes[k])
	}
	return strings.Join(parts, ",")
}
