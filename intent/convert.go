// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/distribution/reference"
	"github.com/jecoz/queueworker"
)

func (b *serviceBlock) options() (queueworker.Options, error) {
	o := queueworker.Options{
		ID:                   b.ID,
		Cluster:              b.Cluster,
		Image:                b.Image,
		MemoryLimitMiB:       b.MemoryLimitMiB,
		MemoryReservationMiB: b.MemoryReservationMiB,
		CPU:                  b.CPU,
		GPUCount:             b.GPUCount,
		Command:              b.Command,
		Environment:          b.Environment,
		ContainerName:        str(b.ContainerName),
		EnableLogging:        b.EnableLogging,
		DesiredTaskCount:     b.DesiredTaskCount,
		MinHealthyPercent:    b.MinHealthyPercent,
		MaxHealthyPercent:    b.MaxHealthyPercent,
		ServiceName:          str(b.ServiceName),
		Family:               str(b.Family),
		MinScalingCapacity:   b.MinScalingCapacity,
		MaxScalingCapacity:   b.MaxScalingCapacity,
	}
	if _, err := reference.ParseNormalizedNamed(b.Image); err != nil {
		return o, queueworker.NewConfigError(
			queueworker.CodeInvalidReference,
			fmt.Sprintf("image %q is not a valid reference: %v", b.Image, err),
			queueworker.WithField("image"),
		)
	}
	if q := b.Queue; q != nil {
		o.Queue = &queueworker.ExistingQueue{
			LogicalID: str(q.LogicalID),
			Name:      str(q.Name),
			Arn:       str(q.Arn),
		}
	}
	if b.MaxReceiveCount != nil {
		if *b.MaxReceiveCount < 1 {
			return o, queueworker.NewConfigError(
				queueworker.CodeInvalidBounds,
				fmt.Sprintf("max_receive_count must be at least 1, got %d", *b.MaxReceiveCount),
				queueworker.WithField("maxReceiveCount"),
			)
		}
		o.MaxReceiveCount = *b.MaxReceiveCount
	}
	if b.CircuitBreaker != nil {
		o.CircuitBreaker = &queueworker.CircuitBreaker{Rollback: b.CircuitBreaker.Rollback != nil && *b.CircuitBreaker.Rollback}
	}
	if b.TargetBacklogPerTask != nil {
		o.TargetBacklogPerTask = *b.TargetBacklogPerTask
	}

	var err error
	if b.RetentionPeriod != nil {
		if o.RetentionPeriod, err = parseDuration("retention_period", *b.RetentionPeriod); err != nil {
			return o, err
		}
		if o.RetentionPeriod <= 0 {
			return o, queueworker.NewConfigError(
				queueworker.CodeInvalidBounds,
				fmt.Sprintf("retention_period must be positive, got %q", *b.RetentionPeriod),
				queueworker.WithField("retentionPeriod"),
			)
		}
	}
	durations := []struct {
		field string
		src   *string
		dst   **time.Duration
	}{
		{"visibility_timeout", b.VisibilityTimeout, &o.VisibilityTimeout},
		{"scale_in_cooldown", b.ScaleInCooldown, &o.ScaleInCooldown},
		{"scale_out_cooldown", b.ScaleOutCooldown, &o.ScaleOutCooldown},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := parseDuration(d.field, *d.src)
		if err != nil {
			return o, err
		}
		*d.dst = queueworker.Duration(v)
	}

	o.LaunchStrategy, err = b.launchStrategy()
	return o, err
}

func (b *serviceBlock) launchStrategy() (queueworker.LaunchStrategy, error) {
	if b.LaunchType != nil && len(b.CapacityProviderStrategies) > 0 {
		return nil, queueworker.NewConfigError(
			queueworker.CodeLaunchStrategy,
			"launch_type and capacity_provider_strategy are mutually exclusive",
			queueworker.WithField("launchStrategy"),
		)
	}
	if b.LaunchType != nil {
		return queueworker.LaunchType(strings.ToUpper(*b.LaunchType)), nil
	}
	if len(b.CapacityProviderStrategies) == 0 {
		return nil, nil
	}
	cps := make(queueworker.CapacityProviderStrategies, len(b.CapacityProviderStrategies))
	for i, v := range b.CapacityProviderStrategies {
		cps[i] = queueworker.CapacityProviderStrategy{
			CapacityProvider: v.CapacityProvider,
			Weight:           v.Weight,
			Base:             v.Base,
		}
	}
	return cps, nil
}

// parseDuration accepts Go durations plus a "d" suffix for whole days.
func parseDuration(field, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days := strings.TrimSuffix(s, "d"); days != s {
		n, err := strconv.Atoi(days)
		if err == nil {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, queueworker.NewConfigError(
			queueworker.CodeInvalidBounds,
			fmt.Sprintf("%s: %q is not a duration", field, s),
			queueworker.WithField(field),
		)
	}
	return d, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
