package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	LINE     LINEConfig
	AI       AIConfig
	Weather  WeatherConfig
	Geocoder GeocoderConfig
	History  HistoryConfig
}

// Load 读取可选的 YAML 配置文件，再用环境变量覆盖。path 为空时只读环境变量。
func Load(path string) (*Config, error) {
	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	server, err := loadServerConfig(file.Server)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(file.AI)
	if err != nil {
		return nil, err
	}

	weather, err := loadWeatherConfig(file.Weather)
	if err != nil {
		return nil, err
	}

	geocoder, err := loadGeocoderConfig(file.Geocoder)
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig(file.History)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		LINE:     loadLINEConfig(file.LINE),
		AI:       ai,
		Weather:  weather,
		Geocoder: geocoder,
		History:  history,
	}, nil
}

// Validate 检查启动所必需的凭证。
func (c *Config) Validate() error {
	var errs []error
	if c.LINE.ChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.LINE.ChannelAccessToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	return errors.Join(errs...)
}

// fileConfig 对应 YAML 配置文件的结构，所有字段都是可选的。
type fileConfig struct {
	Server   fileServer   `yaml:"server"`
	LINE     fileLINE     `yaml:"line"`
	AI       fileAI       `yaml:"ai"`
	Weather  fileWeather  `yaml:"weather"`
	Geocoder fileGeocoder `yaml:"geocoder"`
	History  fileHistory  `yaml:"history"`
}

type fileServer struct {
	Port string `yaml:"port"`
}

type fileLINE struct {
	ChannelSecret      string `yaml:"channel_secret"`
	ChannelAccessToken string `yaml:"channel_access_token"`
}

type fileAI struct {
	APIKey      string   `yaml:"api_key"`
	AccessKey   string   `yaml:"access_key"`
	SecretKey   string   `yaml:"secret_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Region      string   `yaml:"region"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	MaxTokens   *int     `yaml:"max_tokens"`
	Persona     string   `yaml:"persona"`
	Timeout     string   `yaml:"timeout"`
}

type fileWeather struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	DefaultCity string `yaml:"default_city"`
	Timeout     string `yaml:"timeout"`
}

type fileGeocoder struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
}

type fileHistory struct {
	Enabled *bool  `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(file fileServer) (ServerConfig, error) {
	port := getEnvOrDefault("PORT", strings.TrimSpace(file.Port))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LINEConfig 描述 LINE Messaging API 凭证。
type LINEConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

func loadLINEConfig(file fileLINE) LINEConfig {
	return LINEConfig{
		ChannelSecret:      getEnvOrDefault("LINE_CHANNEL_SECRET", file.ChannelSecret),
		ChannelAccessToken: getEnvOrDefault("LINE_CHANNEL_ACCESS_TOKEN", file.ChannelAccessToken),
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Persona     string
	Timeout     time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig(file fileAI) (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE", file.Temperature)
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P", file.TopP)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS", file.MaxTokens)
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", file.Timeout, 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      getEnvOrDefault("ARK_API_KEY", file.APIKey),
		AccessKey:   getEnvOrDefault("ARK_ACCESS_KEY", file.AccessKey),
		SecretKey:   getEnvOrDefault("ARK_SECRET_KEY", file.SecretKey),
		Model:       getEnvOrDefault("Model", file.Model),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", orDefault(file.BaseURL, "https://ark.cn-beijing.volces.com/api/v3")),
		Region:      getEnvOrDefault("ARK_REGION", orDefault(file.Region, "cn-beijing")),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Persona:     getEnvOrDefault("AI_PERSONA_PROMPT", file.Persona),
		Timeout:     timeout,
	}, nil
}

// WeatherConfig 描述中央气象署开放资料接口配置。
type WeatherConfig struct {
	APIKey      string
	BaseURL     string
	DefaultCity string
	Timeout     time.Duration
}

func loadWeatherConfig(file fileWeather) (WeatherConfig, error) {
	timeout, err := parseDurationEnv("WEATHER_TIMEOUT", file.Timeout, 10*time.Second)
	if err != nil {
		return WeatherConfig{}, err
	}

	return WeatherConfig{
		APIKey:      getEnvOrDefault("CWA_API_KEY", file.APIKey),
		BaseURL:     getEnvOrDefault("CWA_BASE_URL", orDefault(file.BaseURL, "https://opendata.cwa.gov.tw")),
		DefaultCity: getEnvOrDefault("DEFAULT_CITY", orDefault(file.DefaultCity, "臺北市")),
		Timeout:     timeout,
	}, nil
}

// GeocoderConfig 描述反向地理编码服务配置。
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func loadGeocoderConfig(file fileGeocoder) (GeocoderConfig, error) {
	timeout, err := parseDurationEnv("GEOCODER_TIMEOUT", file.Timeout, 10*time.Second)
	if err != nil {
		return GeocoderConfig{}, err
	}

	return GeocoderConfig{
		BaseURL:   getEnvOrDefault("GEOCODER_BASE_URL", orDefault(file.BaseURL, "https://nominatim.openstreetmap.org")),
		UserAgent: getEnvOrDefault("GEOCODER_USER_AGENT", orDefault(file.UserAgent, "line-bot-weather")),
		Timeout:   timeout,
	}, nil
}

// HistoryConfig 控制对话记录维护接口是否暴露。
type HistoryConfig struct {
	Enabled bool
	Token   string
}

func loadHistoryConfig(file fileHistory) (HistoryConfig, error) {
	defaultEnabled := false
	if file.Enabled != nil {
		defaultEnabled = *file.Enabled
	}

	enabled, err := parseBoolEnv("HISTORY_ENABLED", defaultEnabled)
	if err != nil {
		return HistoryConfig{}, err
	}

	return HistoryConfig{
		Enabled: enabled,
		Token:   getEnvOrDefault("HISTORY_TOKEN", file.Token),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(defaultValue)
}

func orDefault(value, defaultValue string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key, fileValue string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(key, fileValue)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string, fileValue *float64) (*float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fileValue, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string, fileValue *int) (*int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fileValue, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
