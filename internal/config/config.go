package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	ErrorPath  string `yaml:"errorpath"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type BotConfig struct {
	Token          string  `yaml:"token"`
	AdminIDs       []int64 `yaml:"admin_ids"`
	Name           string  `yaml:"name"`
	SupportContact string  `yaml:"support_contact"`
	SupportLink    string  `yaml:"support_link"`
}

type DataConfig struct {
	CSVPath           string `yaml:"csvpath"`
	Dir               string `yaml:"dir"`
	RemoteURL         string `yaml:"remoteurl"`
	ReadOnly          bool   `yaml:"readonly"`
	CSVPollInterval   int    `yaml:"csvpollinterval"`   // seconds
	PollCheckInterval int    `yaml:"pollcheckinterval"` // seconds
}

type WindowConfig struct {
	Days int `yaml:"days"`
}

type StatusConfig struct {
	RunAddress string `yaml:"runaddress"`
}

// Config представляет структуру конфигурации
type Config struct {
	Bot    BotConfig    `yaml:"bot"`
	Data   DataConfig   `yaml:"data"`
	Window WindowConfig `yaml:"editwindow"`
	Status StatusConfig `yaml:"status"`
	Log    LogConfig    `yaml:"logger"`
}

// LoadConfig загружает конфигурацию из файла YAML и применяет переменные
// окружения поверх него. Отсутствующий файл не является ошибкой: на
// Railway-подобных платформах всё задаётся окружением.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
		}
	case os.IsNotExist(err):
		// работаем на значениях по умолчанию и окружении
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Name:           "Muhsaib Charitable Foundation Bot",
			SupportContact: "@werleedattah | +2349039475752",
		},
		Data: DataConfig{
			CSVPath:           "data.csv",
			Dir:               "mcf_data",
			CSVPollInterval:   10,
			PollCheckInterval: 20,
		},
		Window: WindowConfig{
			Days: 7,
		},
		Status: StatusConfig{
			RunAddress: ":8080",
		},
		Log: LogConfig{
			Level:      "info",
			Path:       "mcf_data/logs/actions.log",
			ErrorPath:  "mcf_data/logs/errors.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// applyEnv накладывает переменные окружения на конфигурацию.
func (c *Config) applyEnv() error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := ParseAdminIDs(v)
		if err != nil {
			return fmt.Errorf("failed to parse ADMIN_IDS: %w", err)
		}
		c.Bot.AdminIDs = ids
	}
	if v := os.Getenv("BOT_NAME"); v != "" {
		c.Bot.Name = v
	}
	if v := os.Getenv("SUPPORT_LINK"); v != "" {
		c.Bot.SupportLink = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		c.Data.CSVPath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("CSV_URL"); v != "" {
		c.Data.RemoteURL = v
	}
	if v := os.Getenv("READ_ONLY"); v != "" {
		c.Data.ReadOnly = parseBool(v)
	}
	return nil
}

// ParseAdminIDs разбирает список идентификаторов администраторов,
// разделённых запятыми.
func ParseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// BackupDir возвращает директорию для резервных копий ростера.
func (c *Config) BackupDir() string {
	return filepath.Join(c.Data.Dir, "backups")
}
