// Copyright 2025 Nhat-Nguyen Nguyen
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


package telemetry

import "time"

const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

type Config struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"foodlog-api"`
	ServiceVersion string `env:"SERVICE_VERSION"   envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT"       envDefault:"local"`

	// Either "http://otel-collector:4318" or a bare "otel-collector:4318".
	// Empty leaves it to the exporter's own OTEL_EXPORTER_OTLP_* lookup.
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	MetricsEndpoint string `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	Protocol        string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf"`
	Insecure        bool   `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// 0..1: 0 never, 1 always, otherwise parent based with this ratio.
	SamplerRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`

	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT"  envDefault:"5s"`
	MetricInterval time.Duration `env:"OTEL_METRIC_INTERVAL"  envDefault:"1m"`
	DisableMetrics bool          `env:"OTEL_METRICS_DISABLED" envDefault:"false"`

	// Disabled skips provider setup entirely; instruments stay no-op.
	Disabled bool `env:"OTEL_SDK_DISABLED" envDefault:"false"`

	ResourceAttrs map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envSeparator:"," envKeyValSeparator:"="`
}
