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

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disabled: true})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInit_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no service name", Config{}},
		{"unknown protocol", Config{ServiceName: "foodlog-api", Protocol: "thrift"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Init(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestBuildResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=staging")

	res, err := buildResource(context.Background(), Config{
		ServiceName:   "foodlog-api",
		Environment:   "local",
		ResourceAttrs: map[string]string{"team": "reviews"},
	})
	if err != nil {
		t.Fatalf("buildResource: %v", err)
	}

	want := map[attribute.Key]string{
		semconv.ServiceNameKey:           "foodlog-api",
		semconv.ServiceNamespaceKey:      ServiceNamespace,
		semconv.DeploymentEnvironmentKey: "staging",
		"team":                           "reviews",
	}
	set := res.Set()
	for k, v := range want {
		got, ok := set.Value(k)
		if !ok || got.AsString() != v {
			t.Errorf("%s = %q, want %q", k, got.AsString(), v)
		}
	}
}

func TestBuildSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, sdktrace.NeverSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.25, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		if got := buildSampler(tt.ratio).Description(); got != tt.want {
			t.Errorf("ratio %v: got %q, want %q", tt.ratio, got, tt.want)
		}
	}
}

func TestDomainMetrics_NilRecordsNothing(t *testing.T) {
	var m *DomainMetrics
	ctx := context.Background()
	m.RecordRecompute(ctx, OutcomeSuccess)
	m.RecordProvision(ctx, OutcomeExisting)
	m.RecordCache(ctx, OutcomeFailure)
	m.RecordReconcile(ctx, OutcomeSuccess)
	m.RecordRateLimit(ctx, "default", false)
}

func TestDomainMetrics_RateLimitDecisions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m, err := NewDomainMetrics("foodlog-test")
	if err != nil {
		t.Fatalf("NewDomainMetrics: %v", err)
	}
	ctx := context.Background()
	scope := "POST /api/restaurants/{id}/reviews"
	m.RecordRateLimit(ctx, scope, true)
	m.RecordRateLimit(ctx, scope, false)
	m.RecordRateLimit(ctx, scope, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "foodlog_ratelimit_decisions_total" {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("data = %T", met.Data)
			}
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	if counts["allowed"] != 1 || counts["limited"] != 2 {
		t.Fatalf("counts = %v", counts)
	}
}
