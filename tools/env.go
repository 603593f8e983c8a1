package tools

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given dotenv files into the environment. Missing files are skipped and
// variables already set are kept.
func LoadEnv(filenames ...string) error {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// FlagOrEnv returns value, or the environment variable key when value is empty.
func FlagOrEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
