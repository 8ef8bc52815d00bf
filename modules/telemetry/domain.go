// Copyright 2025 Nguyen Nhat Nguyen
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	// OutcomeExisting: the profile was already there, nothing written.
	OutcomeExisting = "existing"
)

// DomainMetrics counts business events. A nil *DomainMetrics records nothing.
type DomainMetrics struct {
	recompute metric.Int64Counter
	provision metric.Int64Counter
	cache     metric.Int64Counter
	reconcile metric.Int64Counter
	ratelimit metric.Int64Counter
}

func NewDomainMetrics(serviceName string) (*DomainMetrics, error) {
	meter := otel.Meter(serviceName)

	m := &DomainMetrics{}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.recompute, "foodlog_rating_recompute_total", "Restaurant rating recomputations by outcome"},
		{&m.provision, "foodlog_profile_provision_total", "Profile provisioning attempts by outcome"},
		{&m.cache, "foodlog_listing_cache_total", "Listing cache lookups by outcome"},
		{&m.reconcile, "foodlog_rating_reconcile_runs_total", "Rating reconciliation runs by outcome"},
		{&m.ratelimit, "foodlog_ratelimit_decisions_total", "Rate limit decisions by scope and outcome"},
	} {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("{event}"))
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}
	return m, nil
}

func (m *DomainMetrics) RecordRecompute(ctx context.Context, outcome string) {
	if m != nil {
		add(ctx, m.recompute, outcome)
	}
}

func (m *DomainMetrics) RecordProvision(ctx context.Context, outcome string) {
	if m != nil {
		add(ctx, m.provision, outcome)
	}
}

func (m *DomainMetrics) RecordCache(ctx context.Context, outcome string) {
	if m != nil {
		add(ctx, m.cache, outcome)
	}
}

func (m *DomainMetrics) RecordReconcile(ctx context.Context, outcome string) {
	if m != nil {
		add(ctx, m.reconcile, outcome)
	}
}

func (m *DomainMetrics) RecordRateLimit(ctx context.Context, scope string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.ratelimit.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func add(ctx context.Context, c metric.Int64Counter, outcome string) {
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// TraceID returns the hex trace id of the active span, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
