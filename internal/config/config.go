package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// StoreMemory: значение STORE_DSN для хранилища в памяти процесса.
const StoreMemory = "memory"

// StoreFSPrefix: STORE_DSN вида fs:<dir> выбирает хранилище «файл на ключ».
const StoreFSPrefix = "fs:"

type Config struct {
	// Хранилище
	StoreDSN      string `env:"STORE_DSN"`       // memory | fs:<dir> | postgres://... | путь к sqlite
	StoreMaxBytes int64  `env:"STORE_MAX_BYTES"` // 0 — без ограничения
	DefaultLimit  string `env:"DEFAULT_LIMIT"`   // лимит полки по умолчанию: "100" (MiB) или "1 GiB"

	// Сервер ссылок
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	PageURL     string `env:"PAGE_URL"`

	ServerURL string `env:"-"`
	Debug     bool   `env:"DEBUG"`
	Version   bool   `env:"-"` // показать версию и выйти (только флаг)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "хранилище: memory, fs:<dir>, postgres://... или путь к sqlite")
	flag.Int64Var(&cfg.StoreMaxBytes, "store-max", cfg.StoreMaxBytes, "ёмкость хранилища в байтах (0 — без ограничения)")
	flag.StringVar(&cfg.DefaultLimit, "limit", cfg.DefaultLimit, "лимит полки по умолчанию (число — MiB)")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the share server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "use https scheme in generated links")
	flag.StringVar(&cfg.PageURL, "page-url", cfg.PageURL, "page address used in permanent links")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "development logging")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.PageURL == "" {
		cfg.PageURL = cfg.ServerURL + "/"
	}
	if cfg.DefaultLimit == "" {
		cfg.DefaultLimit = "100"
	}
	if cfg.StoreMaxBytes < 0 {
		cfg.StoreMaxBytes = 0
	}
	if strings.TrimSpace(cfg.StoreDSN) == "" {
		home, _ := os.UserHomeDir()
		cfg.StoreDSN = filepath.Join(home, ".fileshelf.db")
	}

	return cfg
}
