package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Role 进程角色：手表端或手机端
type Role string

const (
	RoleWatch     Role = "watch"
	RoleCompanion Role = "companion"
)

// ServiceName 角色对应的服务名，如 "xdrip-watch"
func (r Role) ServiceName() string {
	return "xdrip-" + string(r)
}

// NewLogger 创建带角色与设备标识的 Logger
// level: "debug", "info", "warn"/"warning", "error"，大小写不敏感 (默认: "info")
// format: "json" 或 "console" (默认: "json")
// deviceID: 手表标识；companion 可传空串，此时不输出 device_id
func NewLogger(level string, format string, role Role, deviceID string) (*zap.Logger, error) {
	zapLevel := parseLevel(level)

	var config zap.Config
	if strings.EqualFold(format, "console") {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	baseLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	return withSystemFields(baseLogger, role, deviceID, hostname), nil
}

// withSystemFields 附加 service_name / role / device_id / hostname，空值跳过
func withSystemFields(l *zap.Logger, role Role, deviceID, hostname string) *zap.Logger {
	fields := make([]zap.Field, 0, 4)
	if role != "" {
		fields = append(fields,
			zap.String("service_name", role.ServiceName()),
			zap.String("role", string(role)),
		)
	}
	if deviceID != "" {
		fields = append(fields, zap.String("device_id", deviceID))
	}
	if hostname != "" {
		fields = append(fields, zap.String("hostname", hostname))
	}
	return l.With(fields...)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
