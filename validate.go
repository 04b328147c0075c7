// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"strings"
	"time"
)

// Validate runs every cross field rule against o, in order, and
// returns the first violation as a *ConfigError.
func (o *Options) Validate() error {
	checks := []func() *ConfigError{
		o.validateDesiredCount,
		o.validateRequired,
		o.validateQueue,
		o.validateContainer,
		o.validateEnvironment,
		o.validateLaunchStrategy,
		o.validateDeployment,
		o.validateScaling,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Options) validateDesiredCount() *ConfigError {
	if o.DesiredTaskCount == nil {
		return nil
	}
	if *o.DesiredTaskCount < 0 {
		return configErrorf(CodeInvalidBounds, "desiredTaskCount", "desiredTaskCount must not be negative, got %d", *o.DesiredTaskCount)
	}
	if *o.DesiredTaskCount == 0 && (o.MaxScalingCapacity == nil || *o.MaxScalingCapacity <= 0) {
		return NewConfigError(
			CodeDesiredCountCapacity,
			"maxScalingCapacity must be set and greater than 0 if desiredCount is 0",
			WithField("maxScalingCapacity"),
		)
	}
	return nil
}

func (o *Options) validateRequired() *ConfigError {
	if strings.TrimSpace(o.Cluster) == "" {
		return configErrorf(CodeRequiredField, "cluster", "cluster must be set")
	}
	if strings.TrimSpace(o.Image) == "" {
		return configErrorf(CodeRequiredField, "image", "image must be set")
	}
	switch n := len(sanitize(o.id())); {
	case n == 0:
		return configErrorf(CodeRequiredField, "id", "id %q has no alphanumeric characters", o.ID)
	case n > MaxIDLength:
		return configErrorf(CodeInvalidBounds, "id", "id %q has more than %d alphanumeric characters", o.ID, MaxIDLength)
	}
	return nil
}

func (o *Options) validateQueue() *ConfigError {
	if q := o.Queue; q != nil && q.Name == "" && q.Arn == "" {
		return configErrorf(CodeRequiredField, "queue", "existing queue needs a name or an arn")
	}
	if o.RetentionPeriod != 0 && (o.RetentionPeriod < MinRetentionPeriod || o.RetentionPeriod > MaxRetentionPeriod) {
		return configErrorf(CodeInvalidBounds, "retentionPeriod", "retentionPeriod must be between %v and %v, got %v", MinRetentionPeriod, MaxRetentionPeriod, o.RetentionPeriod)
	}
	if err := wholeSeconds("retentionPeriod", &o.RetentionPeriod); err != nil {
		return err
	}
	if v := o.VisibilityTimeout; v != nil && (*v < 0 || *v > MaxVisibilityTimeout) {
		return configErrorf(CodeInvalidBounds, "visibilityTimeout", "visibilityTimeout must be between 0s and %v, got %v", MaxVisibilityTimeout, *v)
	}
	if err := wholeSeconds("visibilityTimeout", o.VisibilityTimeout); err != nil {
		return err
	}
	if o.MaxReceiveCount < 0 {
		return configErrorf(CodeInvalidBounds, "maxReceiveCount", "maxReceiveCount must be at least 1, got %d", o.MaxReceiveCount)
	}
	return nil
}

func (o *Options) validateContainer() *ConfigError {
	if o.MemoryLimitMiB <= 0 {
		return configErrorf(CodeInvalidBounds, "memoryLimitMiB", "memoryLimitMiB must be greater than 0, got %d", o.MemoryLimitMiB)
	}
	if r := o.MemoryReservationMiB; r != nil && (*r <= 0 || *r > o.MemoryLimitMiB) {
		return configErrorf(CodeInvalidBounds, "memoryReservationMiB", "memoryReservationMiB must be in (0, %d], got %d", o.MemoryLimitMiB, *r)
	}
	if o.CPU != nil && *o.CPU < 0 {
		return configErrorf(CodeInvalidBounds, "cpu", "cpu must not be negative, got %d", *o.CPU)
	}
	if o.GPUCount != nil && *o.GPUCount < 0 {
		return configErrorf(CodeInvalidBounds, "gpuCount", "gpuCount must not be negative, got %d", *o.GPUCount)
	}
	return nil
}

func (o *Options) validateEnvironment() *ConfigError {
	if _, ok := o.Environment[QueueNameEnv]; ok {
		return configErrorf(CodeReservedEnvironment, "environment", "environment variable %s is reserved for the processing queue", QueueNameEnv)
	}
	for k := range o.Environment {
		if k == "" {
			return configErrorf(CodeRequiredField, "environment", "environment variable names must not be empty")
		}
	}
	return nil
}

func (o *Options) validateLaunchStrategy() *ConfigError {
	switch ls := o.launchStrategy().(type) {
	case LaunchType:
		if ls != LaunchTypeEC2 && ls != LaunchTypeFargate {
			return configErrorf(CodeLaunchStrategy, "launchStrategy", "unknown launch type %q", string(ls))
		}
	case CapacityProviderStrategies:
		if len(ls) == 0 {
			return configErrorf(CodeLaunchStrategy, "launchStrategy", "capacity provider strategies must not be empty")
		}
		for i, s := range ls {
			if s.CapacityProvider == "" {
				return configErrorf(CodeLaunchStrategy, "launchStrategy", "capacity provider strategy %d has no capacity provider", i)
			}
			if s.Weight != nil && *s.Weight < 0 || s.Base != nil && *s.Base < 0 {
				return configErrorf(CodeLaunchStrategy, "launchStrategy", "capacity provider strategy %d has a negative weight or base", i)
			}
		}
	default:
		return configErrorf(CodeLaunchStrategy, "launchStrategy", "unsupported launch strategy %T", ls)
	}
	return nil
}

func (o *Options) validateDeployment() *ConfigError {
	lo, hi := o.minHealthyPercent(), o.maxHealthyPercent()
	if lo < 0 {
		return configErrorf(CodeInvalidBounds, "minHealthyPercent", "minHealthyPercent must not be negative, got %d", lo)
	}
	if hi <= 0 {
		return configErrorf(CodeInvalidBounds, "maxHealthyPercent", "maxHealthyPercent must be greater than 0, got %d", hi)
	}
	if lo > hi {
		return configErrorf(CodeInvalidBounds, "minHealthyPercent", "minHealthyPercent (%d) must not exceed maxHealthyPercent (%d)", lo, hi)
	}
	return nil
}

func (o *Options) validateScaling() *ConfigError {
	lo := o.minScalingCapacity()
	if lo < 0 {
		return configErrorf(CodeInvalidBounds, "minScalingCapacity", "minScalingCapacity must not be negative, got %d", lo)
	}
	if o.TargetBacklogPerTask < 0 {
		return configErrorf(CodeInvalidBounds, "targetBacklogPerTask", "targetBacklogPerTask must be greater than 0, got %v", o.TargetBacklogPerTask)
	}
	if o.MaxScalingCapacity == nil {
		return nil
	}
	if hi := *o.MaxScalingCapacity; hi < lo {
		return configErrorf(CodeInvalidBounds, "maxScalingCapacity", "maxScalingCapacity (%d) must not be lower than minScalingCapacity (%d)", hi, lo)
	}
	cooldowns := []struct {
		field string
		d     *time.Duration
	}{
		{"scaleInCooldown", o.ScaleInCooldown},
		{"scaleOutCooldown", o.ScaleOutCooldown},
	}
	for _, c := range cooldowns {
		if err := nonNegative(c.field, c.d); err != nil {
			return err
		}
		if err := wholeSeconds(c.field, c.d); err != nil {
			return err
		}
	}
	return nil
}

func nonNegative(field string, d *time.Duration) *ConfigError {
	if d != nil && *d < 0 {
		return configErrorf(CodeInvalidBounds, field, "%s must not be negative, got %v", field, *d)
	}
	return nil
}

// wholeSeconds rejects durations the providers cannot express, they
// all count in seconds.
func wholeSeconds(field string, d *time.Duration) *ConfigError {
	if d != nil && *d%time.Second != 0 {
		return configErrorf(CodeInvalidBounds, field, "%s must be a whole number of seconds, got %v", field, *d)
	}
	return nil
}
