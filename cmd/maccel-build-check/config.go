package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

const defaultConfigFile = "/etc/maccel-build/maccel-build.toml"

type registryConfig struct {
	Host  string `toml:"host"`
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
}

type upstreamConfig struct {
	Owner        string `toml:"owner"`
	Repo         string `toml:"repo"`
	Branch       string `toml:"branch"`
	ManifestPath string `toml:"manifest_path"`
}

type apiConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryMax       int    `toml:"retry_max"`
	RetryWaitMin   int    `toml:"retry_wait_min_seconds"`
	RetryWaitMax   int    `toml:"retry_wait_max_seconds"`
}

type checkConfig struct {
	Registry registryConfig `toml:"registry"`
	Upstream upstreamConfig `toml:"upstream"`
	API      apiConfig      `toml:"api"`
}

// Secrets come from the environment, never from the config file.
type envConfig struct {
	GitHubToken  string `env:"GITHUB_TOKEN"`
	GitHubAPIURL string `env:"GITHUB_API_URL"`
}

func parseConfig(file string) (*checkConfig, error) {
	// set defaults
	config := checkConfig{
		Registry: registryConfig{
			Host:  "github.com",
			Owner: "maccel-fedora",
			Repo:  "rpm-builder",
		},
		Upstream: upstreamConfig{
			Owner:        "Gnarus-G",
			Repo:         "maccel",
			Branch:       "main",
			ManifestPath: "Cargo.toml",
		},
		API: apiConfig{
			TimeoutSeconds: 30,
			RetryMax:       3,
			RetryWaitMin:   1,
			RetryWaitMax:   10,
		},
	}

	_, err := toml.DecodeFile(file, &config)
	if err != nil {
		// Return error only when we failed to decode the file.
		// A non-existing config isn't an error, use defaults in this case.
		if !os.IsNotExist(err) {
			return nil, err
		}

		logrus.Debug("Configuration file not found, using defaults")
	}

	if config.API.RetryMax < 0 {
		return nil, fmt.Errorf("invalid retry_max: %d", config.API.RetryMax)
	}

	return &config, nil
}

func (c *apiConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *apiConfig) retryWaitMin() time.Duration {
	return time.Duration(c.RetryWaitMin) * time.Second
}

func (c *apiConfig) retryWaitMax() time.Duration {
	return time.Duration(c.RetryWaitMax) * time.Second
}

// loadConfigFromEnv fills string fields from the environment variables named
// by their env tags. Unset variables leave fields untouched.
func loadConfigFromEnv(intf interface{}) error {
	t := reflect.TypeOf(intf).Elem()
	v := reflect.ValueOf(intf).Elem()

	for i := 0; i < v.NumField(); i++ {
		fieldT := t.Field(i)
		fieldV := v.Field(i)
		key, ok := fieldT.Tag.Lookup("env")
		if !ok {
			return fmt.Errorf("no env tag in config field %s", fieldT.Name)
		}
		if fieldV.Kind() != reflect.String {
			return fmt.Errorf("unsupported type for %s", fieldT.Name)
		}

		if confV, ok := os.LookupEnv(key); ok {
			fieldV.SetString(confV)
		}
	}
	return nil
}
