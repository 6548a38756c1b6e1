package config

import (
	"time"

	"github.com/spf13/viper"
)

// Тюнинг движка: таблица дефолтов через viper, каждый параметр можно
// перебить env-переменной (ENGINE_SL_BUFFER и т.д.) или файлом
// configs/engine.yaml. Разбирается один раз при старте, дальше движок
// работает с готовой структурой.
type EngineParams struct {
	ZoneSize     int     `mapstructure:"zone_size"`
	MinProximity float64 `mapstructure:"min_proximity"`
	WickRatio    float64 `mapstructure:"wick_ratio"`
	ClusterSize  int     `mapstructure:"cluster_size"`
	RecentBars   int     `mapstructure:"recent_bars"`
	ATRWindow    int     `mapstructure:"atr_window"`

	SLBuffer      float64 `mapstructure:"sl_buffer"`      // пункты
	TPRatio       float64 `mapstructure:"tp_ratio"`
	CheckRange    float64 `mapstructure:"check_range"`    // пункты
	FallbackMin   float64 `mapstructure:"fallback_min"`   // пункты
	BreakoutMin   float64 `mapstructure:"breakout_min"`   // цены
	LotSize       float64 `mapstructure:"lot_size"`
	ATRMultFast   float64 `mapstructure:"atr_mult_fast"`
	ATRMultStrict float64 `mapstructure:"atr_mult_strict"`
	BaseThreshold int     `mapstructure:"base_threshold"`

	TouchGap time.Duration `mapstructure:"touch_gap"`
}

func LoadEngineParams() (EngineParams, error) {
	v := viper.New()
	v.SetEnvPrefix("ENGINE")
	v.AutomaticEnv()

	v.SetDefault("zone_size", 5)
	v.SetDefault("min_proximity", 15000)
	v.SetDefault("wick_ratio", 1.5)
	v.SetDefault("cluster_size", 2)
	v.SetDefault("recent_bars", 5)
	v.SetDefault("atr_window", 14)

	v.SetDefault("sl_buffer", 15000)
	v.SetDefault("tp_ratio", 2.0)
	v.SetDefault("check_range", 30000)
	v.SetDefault("fallback_min", 500)
	v.SetDefault("breakout_min", 20.0)
	v.SetDefault("lot_size", 0.001)
	v.SetDefault("atr_mult_fast", 2.5)
	v.SetDefault("atr_mult_strict", 2.0)
	v.SetDefault("base_threshold", 3)

	v.SetDefault("touch_gap", "30s")

	v.SetConfigName("engine")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	// файла может не быть — дефолты и env достаточны
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return EngineParams{}, err
		}
	}

	var p EngineParams
	if err := v.Unmarshal(&p); err != nil {
		return EngineParams{}, err
	}
	return p, nil
}
