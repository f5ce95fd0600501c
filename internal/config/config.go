package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

// Redis is optional: an empty host keeps rooms in process memory.
type Redis struct {
	Host string `yaml:"host" env-default:""`
	Port string `yaml:"port" env-default:"6379"`
}

type Game struct {
	BotMoveDelayMS          int `yaml:"bot-move-delay-ms" env-default:"600"`
	SimulatedJoinDelayMS    int `yaml:"simulated-join-delay-ms" env-default:"3000"`
	SimulatedMoveMinDelayMS int `yaml:"simulated-move-min-delay-ms" env-default:"1000"`
	SimulatedMoveMaxDelayMS int `yaml:"simulated-move-max-delay-ms" env-default:"2000"`
}

// MustLoad - load all configurations from the given file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) BotMoveDelay() time.Duration {
	return time.Duration(that.BotMoveDelayMS) * time.Millisecond
}

func (that *Game) SimulatedJoinDelay() time.Duration {
	return time.Duration(that.SimulatedJoinDelayMS) * time.Millisecond
}

func (that *Game) SimulatedMoveMinDelay() time.Duration {
	return time.Duration(that.SimulatedMoveMinDelayMS) * time.Millisecond
}

func (that *Game) SimulatedMoveMaxDelay() time.Duration {
	return time.Duration(that.SimulatedMoveMaxDelayMS) * time.Millisecond
}
