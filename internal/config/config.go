package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"session-attendance-bot/internal/attendance"
)

type BotConfig struct {
	TelegramToken   string
	BaseAdminChatID int64
	DatabaseDriver  string
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        logrus.Level
	PolicyFile      string

	Policy PolicyConfig
}

// PolicyConfig параметры учета, читаются из YAML и переопределяются окружением
type PolicyConfig struct {
	DiscrepancyThresholdMinutes int    `yaml:"discrepancy_threshold_minutes"`
	CompletionPolicy            string `yaml:"completion_policy"`
	NonWorkingWeekdays          string `yaml:"non_working_weekdays"`
	Timezone                    string `yaml:"timezone"`
}

func defaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		DiscrepancyThresholdMinutes: attendance.DefaultDiscrepancyThresholdMinutes,
		CompletionPolicy:            string(attendance.CompletionDualConfirmation),
		NonWorkingWeekdays:          "sunday",
		Timezone:                    "Local",
	}
}

// Load читает .env (если есть), файл политики и переменные окружения
func Load() (*BotConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading env variables: %w", err)
	}

	cfg := &BotConfig{
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "attendance.db"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		PolicyFile:     getEnv("POLICY_FILE", ""),
		Policy:         defaultPolicyConfig(),
	}

	cfg.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", 0)

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("error reading policy file: %w", err)
		}
		if err := parsePolicy(data, &cfg.Policy); err != nil {
			return nil, err
		}
	}

	if v := getEnv("DISCREPANCY_THRESHOLD_MINUTES", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DISCREPANCY_THRESHOLD_MINUTES value: %w", err)
		}
		cfg.Policy.DiscrepancyThresholdMinutes = n
	}
	cfg.Policy.CompletionPolicy = getEnv("COMPLETION_POLICY", cfg.Policy.CompletionPolicy)
	cfg.Policy.NonWorkingWeekdays = getEnv("NON_WORKING_WEEKDAYS", cfg.Policy.NonWorkingWeekdays)
	cfg.Policy.Timezone = getEnv("TIMEZONE", cfg.Policy.Timezone)

	if _, err := cfg.AttendancePolicy(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parsePolicy подставляет ${VAR} из окружения и разбирает YAML
func parsePolicy(data []byte, out *PolicyConfig) error {
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}

	if err := yaml.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("error parsing policy file: %w", err)
	}
	return nil
}

// AttendancePolicy собирает политику учета из настроек
func (c *BotConfig) AttendancePolicy() (attendance.Policy, error) {
	loc, err := time.LoadLocation(c.Policy.Timezone)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid timezone %q: %w", c.Policy.Timezone, err)
	}
	weekdays, err := attendance.ParseWeekdays(c.Policy.NonWorkingWeekdays)
	if err != nil {
		return attendance.Policy{}, err
	}

	policy := attendance.Policy{
		DiscrepancyThresholdMinutes: c.Policy.DiscrepancyThresholdMinutes,
		Completion:                  attendance.CompletionPolicy(c.Policy.CompletionPolicy),
		NonWorkingWeekdays:          weekdays,
		Location:                    loc,
	}
	if err := policy.Validate(); err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return policy, nil
}

// BotEnabled бот запускается только при заданном токене
func (c *BotConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
