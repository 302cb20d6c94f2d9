package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

// AuthConfig — все настройки кодов подтверждения и сессионных токенов.
type AuthConfig struct {
	CodeTTLSeconds     int    `yaml:"code_ttl_seconds"`      // срок жизни кода (180)
	CodeLength         int    `yaml:"code_length"`           // длина кода (6)
	MaxWrongAttempts   int    `yaml:"max_wrong_attempts"`    // после стольких ошибок код блокируется
	ResendFloorSeconds int    `yaml:"resend_floor_seconds"`  // минимум между повторными отправками
	MaxResendsPerWin   int    `yaml:"max_resends_per_window"`
	ResendWindowMin    int    `yaml:"resend_window_minutes"`
	TokenLength        int    `yaml:"token_length"`
	FullTokenDays      int    `yaml:"full_token_days"`
	TempTokenMinutes   int    `yaml:"temp_token_minutes"`
	SessionSecret      string `yaml:"session_secret"` // подпись cookie гостевой корзины
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Files struct {
		RootDir string `yaml:"root_dir"`
	} `yaml:"files"`
	Mobizon  MobizonConfig  `yaml:"mobizon"`
	Telegram TelegramConfig `yaml:"telegram"`
	Auth     AuthConfig     `yaml:"auth"`
}

func LoadConfig() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	a := &c.Auth
	if a.CodeTTLSeconds == 0 {
		a.CodeTTLSeconds = 180
	}
	if a.CodeLength == 0 {
		a.CodeLength = 6
	}
	if a.MaxWrongAttempts == 0 {
		a.MaxWrongAttempts = 5
	}
	if a.ResendFloorSeconds == 0 {
		a.ResendFloorSeconds = 60
	}
	if a.MaxResendsPerWin == 0 {
		a.MaxResendsPerWin = 3
	}
	if a.ResendWindowMin == 0 {
		a.ResendWindowMin = 10
	}
	if a.TokenLength == 0 {
		a.TokenLength = 48
	}
	if a.FullTokenDays == 0 {
		a.FullTokenDays = 30
	}
	if a.TempTokenMinutes == 0 {
		a.TempTokenMinutes = 15
	}
	if a.SessionSecret == "" {
		a.SessionSecret = "dev-session-secret"
	}
}
