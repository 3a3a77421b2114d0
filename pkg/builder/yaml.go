package builder

import (
	"github.com/Egham-7/consizen-proxy/internal/config"

	"github.com/gofiber/fiber/v2"
)

// FromYAML starts a builder from a config file, so code can layer extra
// middleware or overrides on top of it.
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}, nil
}
