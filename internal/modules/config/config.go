package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config — сервисная конфигурация: yaml-файл в configs/ плюс env-оверрайды.
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Market struct {
		WSURL   string `yaml:"ws_url"`   // стрим закрытых свечей
		HTTPURL string `yaml:"http_url"` // снапшоты баров/тика/метаданных
	} `yaml:"market"`

	Executor struct {
		URL string `yaml:"url"` // мост исполнения ордеров
	} `yaml:"executor"`

	Strategy struct {
		Symbol string `yaml:"symbol"`
		Mode   string `yaml:"mode"`    // trend_follow | aggressive
		ZoneTF string `yaml:"zone_tf"` // таймфрейм зон, обычно 1h
		TF     string `yaml:"tf"`      // входной таймфрейм, обычно 1m
		FastTF string `yaml:"fast_tf"` // подтверждающий, обычно 5m

		ZoneLookback int           `yaml:"zone_lookback"` // свечей зонного ТФ
		RedetectGap  time.Duration `yaml:"redetect_gap"`  // период пересканирования зон
	} `yaml:"strategy"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{}
	config.Strategy.Symbol = getenvDefault("SYMBOL", "Volatility 75 Index")
	config.Strategy.Mode = getenvDefault("STRATEGY_MODE", "trend_follow")
	config.Strategy.ZoneTF = getenvDefault("ZONE_TIMEFRAME", "1h")
	config.Strategy.TF = getenvDefault("TIMEFRAME", "1m")
	config.Strategy.FastTF = getenvDefault("FAST_TIMEFRAME", "5m")
	config.Strategy.ZoneLookback = intFromEnv("ZONE_LOOKBACK", 100)
	config.Strategy.RedetectGap = durationFromEnv("ZONE_REDETECT_GAP", "1m")

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
