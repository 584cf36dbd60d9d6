package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// AppConfig 配置文件的结构
type AppConfig struct {
	SelfPath          string `json:"selfpath"`
	Port              string `json:"port"`
	Blocksize         int    `json:"blocksize"`   // 格子像素大小
	SurfaceSize       int    `json:"surfacesize"` // 画布像素大小，格子数 = surfacesize / blocksize
	InitialIntervalMs int    `json:"initial_interval_ms"`
	MinIntervalMs     int    `json:"min_interval_ms"`
	SpeedUpStepMs     int    `json:"speedup_step_ms"`
	SpeedUpThreshold  int    `json:"speedup_threshold"`
	FoodReward        int    `json:"food_reward"`
	OriginX           int    `json:"origin_x"`
	OriginY           int    `json:"origin_y"`
	InitialLength     int    `json:"initial_length"`
	InitialDirection  string `json:"initial_direction"`
	LogLevel          string `json:"log_level"`
	DBPath            string `json:"db_path"`
	StaticDir         string `json:"static_dir"`
}

var (
	instance *AppConfig
	mu       sync.RWMutex
	once     sync.Once
	loadErr  error
)

// Default 返回内置默认配置
func Default() *AppConfig {
	return &AppConfig{
		SelfPath:          "http://localhost:38870", // 默认值
		Port:              "38870",                  // 默认值
		Blocksize:         20,
		SurfaceSize:       400,
		InitialIntervalMs: 150,
		MinIntervalMs:     50,
		SpeedUpStepMs:     10,
		SpeedUpThreshold:  50,
		FoodReward:        10,
		OriginX:           10,
		OriginY:           10,
		InitialLength:     1,
		InitialDirection:  "right",
		LogLevel:          "info",
		DBPath:            "game.db",
		StaticDir:         "./static",
	}
}

// LoadConfig 从 filePath 初始化配置单例，文件不存在时先写入默认配置。
// 只有第一次调用生效
func LoadConfig(filePath string) (*AppConfig, error) {
	once.Do(func() {
		loadErr = Reload(filePath)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return Get(), nil
}

// Reload 重新读取 filePath。解析或校验失败时保留当前配置
func Reload(filePath string) error {
	cfg := Default()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			return err
		}
	} else {
		file, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if cfg, err = Parse(file); err != nil {
			return err
		}
	}

	if _, err := cfg.ToSettings(); err != nil {
		return fmt.Errorf("config %s: %w", filePath, err)
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return nil
}

// Parse 在默认配置之上解析 JSON
func Parse(r io.Reader) (*AppConfig, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// saveConfig 把配置写入文件
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get 返回当前配置的副本，LoadConfig 之前返回默认配置
func Get() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return Default()
	}
	c := *instance
	return &c
}

// GetConfigValue 按键名读取配置值
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "surfacesize":
		return cfg.SurfaceSize
	case "log_level":
		return cfg.LogLevel
	case "db_path":
		return cfg.DBPath
	case "static_dir":
		return cfg.StaticDir
	default:
		return ""
	}
}

// ToSettings 生成校验过的游戏设置
func (c *AppConfig) ToSettings() (snake.Settings, error) {
	if c.Blocksize <= 0 {
		return snake.Settings{}, fmt.Errorf("blocksize must be positive, got %d", c.Blocksize)
	}
	dir, err := structs.ParseDirection(c.InitialDirection)
	if err != nil {
		return snake.Settings{}, fmt.Errorf("initial_direction: %w", err)
	}
	s := snake.Settings{
		GridDimension:     c.SurfaceSize / c.Blocksize,
		CellSize:          c.Blocksize,
		InitialIntervalMs: c.InitialIntervalMs,
		MinIntervalMs:     c.MinIntervalMs,
		SpeedUpStepMs:     c.SpeedUpStepMs,
		SpeedUpThreshold:  c.SpeedUpThreshold,
		FoodReward:        c.FoodReward,
		Origin:            structs.Cell{X: c.OriginX, Y: c.OriginY},
		InitialLength:     c.InitialLength,
		InitialDirection:  dir,
	}
	if err := s.Validate(); err != nil {
		return snake.Settings{}, err
	}
	return s, nil
}
