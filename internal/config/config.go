package config

import (
	"os"
	"strconv"

	"xdrip-watch/common/config"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
}

// WatchConfig 手表端服务配置
type WatchConfig struct {
	MQTT config.MQTTConfig

	Watch struct {
		DeviceID     string // 手表标识，用于 MQTT 主题
		TopicPrefix  string // 主题前缀，如 "xdrip"
		HTTPAddr     string // 显示模型 HTTP 监听地址
		SettingsPath string // 设置文件路径，为空则使用默认设置
	}

	Log LogConfig
}

// CompanionConfig 手机端（companion）服务配置
type CompanionConfig struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Companion struct {
		TopicPrefix  string
		HTTPAddr     string
		SettingsPath string

		// 读数来源：nightscout（轮询）或 stream（Redis Streams）
		SourceMode string

		Nightscout struct {
			URL          string
			APISecret    string
			PollInterval int // 秒
			Count        int // 每次拉取条数
		}

		Stream struct {
			Name      string
			Group     string
			Consumer  string
			BatchSize int
		}

		SnapshotKey      string // 快照缓存键
		SnapshotCacheTTL int    // 秒
	}

	Log LogConfig
}

// LoadWatch 加载手表端配置；存在 .env 时先加载
func LoadWatch() (*WatchConfig, error) {
	_ = godotenv.Load()

	cfg := &WatchConfig{}

	cfg.MQTT = defaultMQTT("xdrip-watch")
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Watch.DeviceID = getEnv("WATCH_DEVICE_ID", "watch-1")
	cfg.Watch.TopicPrefix = getEnv("TOPIC_PREFIX", "xdrip")
	cfg.Watch.HTTPAddr = getEnv("WATCH_HTTP_ADDR", ":8081")
	cfg.Watch.SettingsPath = getEnv("SETTINGS_PATH", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// LoadCompanion 加载 companion 配置；存在 .env 时先加载
func LoadCompanion() (*CompanionConfig, error) {
	_ = godotenv.Load()

	cfg := &CompanionConfig{}

	// 默认值，随后由 DB_* / REDIS_* / MQTT_* 环境变量覆盖
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "xdrip",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = defaultMQTT("xdrip-companion")
	cfg.MQTT.LoadFromEnv("MQTT")

	c := &cfg.Companion
	c.TopicPrefix = getEnv("TOPIC_PREFIX", "xdrip")
	c.HTTPAddr = getEnv("COMPANION_HTTP_ADDR", ":8080")
	c.SettingsPath = getEnv("SETTINGS_PATH", "")
	c.SourceMode = getEnv("SOURCE_MODE", "stream")

	c.Nightscout.URL = getEnv("NIGHTSCOUT_URL", "")
	c.Nightscout.APISecret = getEnv("NIGHTSCOUT_API_SECRET", "")
	c.Nightscout.PollInterval = getEnvInt("NIGHTSCOUT_POLL_INTERVAL", 60)
	c.Nightscout.Count = getEnvInt("NIGHTSCOUT_COUNT", 144)

	c.Stream.Name = getEnv("READINGS_STREAM", "glucose:readings:stream")
	c.Stream.Group = getEnv("READINGS_CONSUMER_GROUP", "xdrip-companion-group")
	c.Stream.Consumer = getEnv("READINGS_CONSUMER_NAME", "xdrip-companion-1")
	c.Stream.BatchSize = getEnvInt("READINGS_BATCH_SIZE", 10)

	c.SnapshotKey = getEnv("SNAPSHOT_CACHE_KEY", "xdrip:watch:snapshot")
	c.SnapshotCacheTTL = getEnvInt("SNAPSHOT_CACHE_TTL", 30)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// defaultMQTT 未配置 MQTT_CLIENT_ID 时生成唯一 client id，避免多实例互踢
func defaultMQTT(service string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: service + "-" + uuid.NewString()[:8],
		QoS:      1,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 只接受正整数；为空、解析失败或 <= 0 时使用默认值
// （轮询间隔、TTL、批量大小为 0 都没有合理含义）
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(value)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
