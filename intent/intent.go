// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package intent reads composition intents from HCL files.
//
// A file holds one or more service blocks:
//
//	service "Worker" {
//	  cluster          = "tooling"
//	  image            = "registry.example.com/worker:1.2"
//	  memory_limit_mib = 512
//	  environment      = { REGION = env.AWS_REGION }
//
//	  retention_period  = "7d"
//	  max_receive_count = 5
//
//	  capacity_provider_strategy {
//	    capacity_provider = "spot"
//	    weight            = 2
//	  }
//	}
//
// Environment variables of the loading process are available as env.NAME.
package intent

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/jecoz/queueworker"
	"github.com/zclconf/go-cty/cty"
)

type fileRoot struct {
	Services []*serviceBlock `hcl:"service,block"`
}

type queueBlock struct {
	LogicalID *string `hcl:"logical_id"`
	Name      *string `hcl:"name"`
	Arn       *string `hcl:"arn"`
}

type circuitBreakerBlock struct {
	Rollback *bool `hcl:"rollback"`
}

type capacityProviderBlock struct {
	CapacityProvider string `hcl:"capacity_provider"`
	Weight           *int64 `hcl:"weight"`
	Base             *int64 `hcl:"base"`
}

type serviceBlock struct {
	ID      string `hcl:"id,label"`
	Cluster string `hcl:"cluster"`

	Queue             *queueBlock `hcl:"queue,block"`
	RetentionPeriod   *string     `hcl:"retention_period"`
	VisibilityTimeout *string     `hcl:"visibility_timeout"`
	MaxReceiveCount   *int        `hcl:"max_receive_count"`

	Image                string            `hcl:"image"`
	MemoryLimitMiB       int64             `hcl:"memory_limit_mib"`
	MemoryReservationMiB *int64            `hcl:"memory_reservation_mib"`
	CPU                  *int64            `hcl:"cpu"`
	GPUCount             *int64            `hcl:"gpu_count"`
	Command              []string          `hcl:"command,optional"`
	Environment          map[string]string `hcl:"environment,optional"`
	ContainerName        *string           `hcl:"container_name"`
	EnableLogging        *bool             `hcl:"enable_logging"`

	DesiredTaskCount           *int64                   `hcl:"desired_task_count"`
	MinHealthyPercent          *int64                   `hcl:"min_healthy_percent"`
	MaxHealthyPercent          *int64                   `hcl:"max_healthy_percent"`
	CircuitBreaker             *circuitBreakerBlock     `hcl:"circuit_breaker,block"`
	ServiceName                *string                  `hcl:"service_name"`
	Family                     *string                  `hcl:"family"`
	LaunchType                 *string                  `hcl:"launch_type"`
	CapacityProviderStrategies []*capacityProviderBlock `hcl:"capacity_provider_strategy,block"`

	MinScalingCapacity   *int64   `hcl:"min_scaling_capacity"`
	MaxScalingCapacity   *int64   `hcl:"max_scaling_capacity"`
	TargetBacklogPerTask *float64 `hcl:"target_backlog_per_task"`
	ScaleInCooldown      *string  `hcl:"scale_in_cooldown"`
	ScaleOutCooldown     *string  `hcl:"scale_out_cooldown"`
}

// Loader parses intent files. Env is exposed to expressions as the env
// object, nil means the environment of the process.
type Loader struct {
	Env map[string]string
}

// LoadFile reads the intents stored at path.
func LoadFile(path string) ([]queueworker.Options, error) {
	var l Loader
	return l.LoadFile(path)
}

func (l *Loader) LoadFile(path string) ([]queueworker.Options, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent: %w", err)
	}
	return l.Parse(src, path)
}

// Parse decodes src, which is reported as filename in diagnostics.
func (l *Loader) Parse(src []byte, filename string) ([]queueworker.Options, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, l.evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}

	seen := make(map[string]bool, len(root.Services))
	opts := make([]queueworker.Options, 0, len(root.Services))
	for _, b := range root.Services {
		if seen[b.ID] {
			return nil, fmt.Errorf("%s: service %q declared twice", filename, b.ID)
		}
		seen[b.ID] = true
		o, err := b.options()
		if err != nil {
			return nil, fmt.Errorf("%s: service %q: %w", filename, b.ID, err)
		}
		opts = append(opts, o)
	}
	return opts, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	env := l.Env
	if env == nil {
		env = environ()
	}
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
