package config

type LogConfig struct {
	LogLevel   string `env:"LOG_LEVEL" yaml:"level"`
	LogHandler string `env:"LOG_HANDLER" yaml:"handler"`
}

func NewLogConfig() (*LogConfig, error) {
	c := LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
