package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/service"
)

type Config struct {
	// Discord application credentials.
	BotToken     string // Required: bot token for guild management and messaging
	ClientID     string // Required: OAuth2 client id
	ClientSecret string // Required: OAuth2 client secret
	RedirectURI  string // Required: OAuth2 redirect URI, must point at /auth

	StateSecret string // Optional: HMAC secret for the OAuth state parameter (random per boot if unset)

	HomeGuildID       string   // Required: guild whose staff roles authorize reviewers
	StaffRoleIDs      []string // Required: role ids allowed to decide applications
	OperatorChannelID string   // Required: channel for review tickets and audit lines

	// Guilds maps platforms to their target guild ids.
	Guilds map[domain.Platform]string

	// Roles is the provisioning table loaded from ROLES_* variables.
	Roles domain.ProvisioningTable

	SessionWindow time.Duration // Optional: questionnaire deadline (default: 35m)
	QuestionCap   time.Duration // Optional: per-question wait cap (default: 5m)
	CodeTTL       time.Duration // Optional: pending code validity (default: 5m)
	DenyCooldown  time.Duration // Optional: reapply block after denial (default: 12h)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./gatekeeper.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		BotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		ClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		ClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("DISCORD_REDIRECT_URI"),
		StateSecret:  os.Getenv("STATE_SECRET"),

		HomeGuildID:       os.Getenv("HOME_GUILD_ID"),
		StaffRoleIDs:      splitIDs(os.Getenv("STAFF_ROLE_IDS")),
		OperatorChannelID: os.Getenv("OPERATOR_CHANNEL_ID"),

		Guilds: loadGuilds(),
		Roles:  loadProvisioningTable(),

		SessionWindow: getEnvDurationOrDefault("SESSION_WINDOW", service.DefaultSessionWindow),
		QuestionCap:   getEnvDurationOrDefault("QUESTION_CAP", service.DefaultQuestionCap),
		CodeTTL:       getEnvDurationOrDefault("CODE_TTL", service.DefaultCodeTTL),
		DenyCooldown:  getEnvDurationOrDefault("DENY_COOLDOWN", service.DefaultDenyCooldown),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "gatekeeper.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

// loadGuilds reads the platform to guild mapping, e.g. GUILD_PS5=123.
func loadGuilds() map[domain.Platform]string {
	guilds := make(map[domain.Platform]string)
	for _, p := range domain.Platforms() {
		if id := os.Getenv("GUILD_" + string(p)); id != "" {
			guilds[p] = id
		}
	}
	return guilds
}

// loadProvisioningTable reads the role packages from variables shaped
// ROLES_<platform>_<department>[_<sub-department>], each holding a
// comma-separated role id list. For example:
//
//	ROLES_PS5_PSO_SASP=111,222
//	ROLES_PS5_CO=333
func loadProvisioningTable() domain.ProvisioningTable {
	table := make(domain.ProvisioningTable)
	for _, p := range domain.Platforms() {
		for _, d := range domain.Departments() {
			subs := domain.SubDepartmentsOf(d)
			if len(subs) == 0 {
				key := "ROLES_" + string(p) + "_" + string(d)
				if ids := splitIDs(os.Getenv(key)); len(ids) > 0 {
					table[domain.ProvisionKey{Platform: p, Department: d, SubDepartment: domain.SubDepartmentNone}] = domain.RolePackage{RoleIDs: ids}
				}
				continue
			}
			for _, sub := range subs {
				key := "ROLES_" + string(p) + "_" + string(d) + "_" + string(sub)
				if ids := splitIDs(os.Getenv(key)); len(ids) > 0 {
					table[domain.ProvisionKey{Platform: p, Department: d, SubDepartment: sub}] = domain.RolePackage{RoleIDs: ids}
				}
			}
		}
	}
	return table
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
