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

package constants

import "time"

const (
	// DefaultConfigPath is where the runtime looks for its configuration file.
	DefaultConfigPath = "/data/config.yaml"

	// DefaultMetricsPort serves /metrics.
	DefaultMetricsPort = 8080

	// DefaultAPIPort serves the admin API.
	DefaultAPIPort = 8081

	// DefaultAppVersion is the version reported by development builds.
	DefaultAppVersion = "0.0.0-dev"

	// DefaultDevelopmentEnvironment is the sentry environment of prerelease builds.
	DefaultDevelopmentEnvironment = "development"

	// DefaultProductionEnvironment is the sentry environment of release builds.
	DefaultProductionEnvironment = "production"

	// ConfigLoadTimeout bounds how long startup waits for the configuration file to appear.
	ConfigLoadTimeout = 30 * time.Second

	// ShutdownTimeout bounds the graceful shutdown of contexts and HTTP servers.
	ShutdownTimeout = 3 * time.Second
)

// Environment variables.
const (
	EnvConfigPath  = "EC_CONFIG_PATH"
	EnvDefaultRate = "EC_DEFAULT_RATE"
	EnvMetricsPort = "METRICS_PORT"
	EnvAPIPort     = "API_PORT"
	EnvSentryDSN   = "SENTRY_DSN"
	EnvAPIDebug    = "API_DEBUG"
)
