package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultFileName         = "/.env"
	defaultOverrideFileName = "/.local.env"
)

// EnvLoader resolves keys from the process environment after .env files have been applied to it.
type EnvLoader struct {
	logger logger
}

// NewEnvFile loads configFolder/.env, then configFolder/.<APP_ENV>.env (or .local.env when APP_ENV is
// unset) and finally configFolder/config.yaml, which only fills keys no .env file set. Values already
// present in the process environment always win over file values.
func NewEnvFile(configFolder string, logger logger) Config {
	conf := &EnvLoader{logger: logger}
	conf.read(configFolder)

	return conf
}

func (e *EnvLoader) read(folder string) {
	var (
		defaultFile  = folder + defaultFileName
		overrideFile = folder + defaultOverrideFileName
		env          = e.Get("APP_ENV")
	)

	initialEnv := e.captureInitialEnv()

	err := godotenv.Overload(defaultFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Errorf("Failed to load config from file: %v, Err: %v", defaultFile, err)
		} else {
			e.logger.Debugf("Failed to load config from file: %v, Err: %v", defaultFile, err)
		}
	} else {
		e.logger.Infof("Loaded config from file: %v", defaultFile)
	}

	if env != "" {
		overrideFile = filepath.Join(folder, "."+env+".env")
	}

	err = godotenv.Overload(overrideFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Errorf("Failed to load config from file: %v, Err: %v", overrideFile, err)
		} else {
			e.logger.Debugf("Failed to load config from file: %v, Err: %v", overrideFile, err)
		}
	} else {
		e.logger.Infof("Loaded config from file: %v", overrideFile)
	}

	yamlFile := filepath.Join(folder, defaultYAMLFileName)

	values, err := readYAML(yamlFile)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		e.logger.Debugf("Failed to load config from file: %v, Err: %v", yamlFile, err)
	case err != nil:
		e.logger.Errorf("Failed to load config from file: %v, Err: %v", yamlFile, err)
	default:
		for k, v := range values {
			if _, ok := os.LookupEnv(k); ok {
				continue
			}

			_ = os.Setenv(k, v)
		}

		e.logger.Infof("Loaded config from file: %v", yamlFile)
	}

	// Reset the initial environment so system values take precedence over files.
	for key, envVar := range initialEnv {
		_ = os.Setenv(key, envVar)
	}
}

func (*EnvLoader) captureInitialEnv() map[string]string {
	initialEnv := make(map[string]string)

	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found {
			initialEnv[key] = value
		}
	}

	return initialEnv
}

func (*EnvLoader) Get(key string) string {
	return os.Getenv(key)
}

func (*EnvLoader) GetOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return defaultValue
}
