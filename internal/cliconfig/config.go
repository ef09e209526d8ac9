// Package cliconfig loads the cipsolve CLI's bootstrap configuration: the
// handful of settings needed before the parameter store (pkg/params) even
// exists, such as where its .set file lives. The file is YAML, decoded
// generically and then mapped onto a typed struct with mapstructure, the
// same two-step decode the teacher's config loaders use for untyped
// manifests.
package cliconfig

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the bootstrap configuration for the cipsolve binary.
type Config struct {
	LogLevel      string `mapstructure:"logLevel"`
	ParameterFile string `mapstructure:"parameterFile"`
	ProblemFile   string `mapstructure:"problemFile"`
	SolutionFile  string `mapstructure:"solutionFile"`
	MetricsAddr   string `mapstructure:"metricsAddr"`
}

// Default returns the zero-value configuration with sane defaults filled in.
func Default() Config {
	return Config{
		LogLevel: "info",
	}
}

// Load reads a YAML document from path and decodes it onto a copy of
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "cliconfig: reading %s", path)
	}

	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return cfg, errors.Wrapf(err, "cliconfig: parsing %s", path)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, errors.Wrap(err, "cliconfig: building decoder")
	}
	if err := decoder.Decode(generic); err != nil {
		return cfg, errors.Wrapf(err, "cliconfig: decoding %s", path)
	}
	return cfg, nil
}
