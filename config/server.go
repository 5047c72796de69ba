package config

type ServerConfig struct {
	Host string `env:"RECALL_HOST" yaml:"host"`
	Port int    `env:"RECALL_PORT" yaml:"port"`
}

func NewServerConfig() (*ServerConfig, error) {
	c := ServerConfig{
		Host: "0.0.0.0",
		Port: 3001,
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
