package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Room   RoomConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	SSLMode  string
	TimeZone string // 連線層時區，影響時間戳欄位的讀寫
}

type AuthConfig struct {
	Secret string // 應用程式層 session token 的簽章密鑰
}

// RoomConfig 線上教室子系統的設定
type RoomConfig struct {
	TokenSecret             string // 房間憑證的簽章密鑰，與應用程式 session 分開
	TokenTTLMinutes         int    // 房間憑證有效期（分鐘），過期後需重新走加入流程取得新憑證
	HeartbeatGraceSeconds   int    // 參與者心跳寬限期（秒），超過即視為靜默斷線
	ChannelHeartbeatSeconds int    // 推播通道心跳間隔（秒）
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	// 未在配置文件中指定時的預設值
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.timezone", "Asia/Taipei")
	viper.SetDefault("room.tokenttlminutes", 10)
	viper.SetDefault("room.heartbeatgraceseconds", 90)
	viper.SetDefault("room.channelheartbeatseconds", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
