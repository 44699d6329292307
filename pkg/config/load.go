// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/component-runtime/pkg/backoff"
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/env"
)

// Load reads the configuration file at path, applies environment overrides
// and validates the result. A missing file is a transient error; a file that
// cannot be parsed or validated is a permanent one.
func Load(path string) (FullConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FullConfig{}, backoff.NewTransientError(fmt.Errorf("config file %s not found: %w", path, err))
		}

		return FullConfig{}, backoff.NewTransientError(fmt.Errorf("reading config file %s: %w", path, err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return FullConfig{}, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes, completes and validates a configuration document.
func Parse(data []byte) (FullConfig, error) {
	var cfg FullConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FullConfig{}, backoff.NewPermanentError(fmt.Errorf("parsing config: %w", err))
	}

	if err := applyEnvironment(&cfg); err != nil {
		return FullConfig{}, backoff.NewPermanentError(err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return FullConfig{}, backoff.NewPermanentError(err)
	}

	return cfg, nil
}

// Marshal encodes the config as YAML.
func Marshal(cfg FullConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyEnvironment(cfg *FullConfig) error {
	var err error

	if cfg.Agent.MetricsPort, err = env.Int(constants.EnvMetricsPort, cfg.Agent.MetricsPort); err != nil {
		return err
	}
	if cfg.Agent.APIPort, err = env.Int(constants.EnvAPIPort, cfg.Agent.APIPort); err != nil {
		return err
	}
	if cfg.Agent.DefaultRate, err = env.Float(constants.EnvDefaultRate, cfg.Agent.DefaultRate); err != nil {
		return err
	}

	return nil
}

func applyDefaults(cfg *FullConfig) {
	if cfg.Agent.MetricsPort == 0 {
		cfg.Agent.MetricsPort = constants.DefaultMetricsPort
	}
	if cfg.Agent.APIPort == 0 {
		cfg.Agent.APIPort = constants.DefaultAPIPort
	}
	if cfg.Agent.DefaultRate == 0 {
		cfg.Agent.DefaultRate = constants.DefaultRate
	}

	for i := range cfg.ExecutionContexts {
		ec := &cfg.ExecutionContexts[i]
		if ec.Properties == nil {
			ec.Properties = make(map[string]string)
		}
		if _, ok := ec.Properties[constants.PropRate]; !ok {
			ec.Properties[constants.PropRate] = strconv.FormatFloat(cfg.Agent.DefaultRate, 'f', -1, 64)
		}
	}
}
