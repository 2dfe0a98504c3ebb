// blog/config.go
package blog

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Addr        string `toml:"addr"`
	DatabaseURL string `toml:"database_url"`
	// Seed wipes and repopulates the store with fixture data at startup.
	// Off by default; nothing else in the service assumes it has run.
	Seed bool `toml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		DatabaseURL: "postgres://localhost/inkwell",
	}
}

// LoadConfig reads a TOML config file, falling back to defaults when the file
// does not exist. The DATABASE_URL environment variable, when set, wins over
// the file.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// no file, defaults apply
	case err != nil:
		return config, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.DatabaseURL = url
	}
	return config, nil
}
