package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Redis   RedisConfig             `mapstructure:"redis"`
	Upload  UploadConfig            `mapstructure:"upload"`
	Engine  EngineConfig            `mapstructure:"engine"`
	Sizing  SizingConfig            `mapstructure:"sizing"`
	Catalog map[string]CatalogShape `mapstructure:"catalog"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// EngineConfig parameterizes the mask/cutline engine.
type EngineConfig struct {
	AlphaThreshold   int           `mapstructure:"alpha_threshold"`
	SealRadiusPx     int           `mapstructure:"seal_radius_px"`
	MaxMaskDim       int           `mapstructure:"max_mask_dim"`
	RDPTolerancePx   float64       `mapstructure:"rdp_tolerance_px"`
	StrokeWidth      float64       `mapstructure:"stroke_width"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	QueueTimeout     int           `mapstructure:"queue_timeout"`
	CleanupTempFiles bool          `mapstructure:"cleanup_temp_files"`
	VariantCacheSize int           `mapstructure:"variant_cache_size"`
	PreviewCacheSize int           `mapstructure:"preview_cache_size"`
	PreviewCacheTTL  time.Duration `mapstructure:"preview_cache_ttl"`
	DPIHardFloor     float64       `mapstructure:"dpi_hard_floor"`
	DPIWarnCeiling   float64       `mapstructure:"dpi_warn_ceiling"`
}

// SizingConfig bounds the physical dimensions a sticker may take.
type SizingConfig struct {
	MinEdgeCM float64 `mapstructure:"min_edge_cm"`
	MaxEdgeCM float64 `mapstructure:"max_edge_cm"`
}

// CatalogShape is one shape family in the size catalog. Sizes are free-text
// labels ("4×6 cm", "Ø 4") parsed and validated at startup.
type CatalogShape struct {
	Sizes  []string `mapstructure:"sizes"`
	Colors []string `mapstructure:"colors"`
}

// Load reads the YAML config file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads config.yaml from the working directory, falling back to
// built-in defaults when the file is missing.
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		return getDefaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 20*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg"})

	v.SetDefault("engine.alpha_threshold", 8)
	v.SetDefault("engine.seal_radius_px", 3)
	v.SetDefault("engine.max_mask_dim", 600)
	v.SetDefault("engine.rdp_tolerance_px", 1.2)
	v.SetDefault("engine.stroke_width", 0.5)
	v.SetDefault("engine.max_concurrent", 3)
	v.SetDefault("engine.queue_timeout", 30)
	v.SetDefault("engine.cleanup_temp_files", true)
	v.SetDefault("engine.variant_cache_size", 12)
	v.SetDefault("engine.preview_cache_size", 128)
	v.SetDefault("engine.preview_cache_ttl", 15*time.Minute)
	v.SetDefault("engine.dpi_hard_floor", 180)
	v.SetDefault("engine.dpi_warn_ceiling", 240)

	v.SetDefault("sizing.min_edge_cm", 4)
	v.SetDefault("sizing.max_edge_cm", 30)

	v.SetDefault("catalog.rect.sizes", []string{
		"4×4 cm", "4×6 cm", "6×6 cm", "6×8 cm", "8×8 cm", "10×10 cm", "10×15 cm", "15×20 cm",
	})
	v.SetDefault("catalog.round.sizes", []string{"Ø 4", "Ø 6", "Ø 8", "Ø 10", "Ø 15"})
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      20 * 1024 * 1024,
			UploadDir:    "./uploads",
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		},
		Engine: EngineConfig{
			AlphaThreshold:   8,
			SealRadiusPx:     3,
			MaxMaskDim:       600,
			RDPTolerancePx:   1.2,
			StrokeWidth:      0.5,
			MaxConcurrent:    3,
			QueueTimeout:     30,
			CleanupTempFiles: true,
			VariantCacheSize: 12,
			PreviewCacheSize: 128,
			PreviewCacheTTL:  15 * time.Minute,
			DPIHardFloor:     180,
			DPIWarnCeiling:   240,
		},
		Sizing: SizingConfig{
			MinEdgeCM: 4,
			MaxEdgeCM: 30,
		},
		Catalog: map[string]CatalogShape{
			"rect": {
				Sizes: []string{"4×4 cm", "4×6 cm", "6×6 cm", "6×8 cm", "8×8 cm", "10×10 cm", "10×15 cm", "15×20 cm"},
			},
			"round": {
				Sizes: []string{"Ø 4", "Ø 6", "Ø 8", "Ø 10", "Ø 15"},
			},
		},
	}
}
