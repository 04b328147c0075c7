// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultID                   = "Service"
	DefaultRetentionPeriod      = 14 * 24 * time.Hour
	DefaultMaxReceiveCount      = 3
	DefaultContainerName        = "QueueProcessingContainer"
	DefaultDesiredCount         = 1
	DefaultMinHealthyPercent    = 100
	DefaultMaxHealthyPercent    = 200
	DefaultMinScalingCapacity   = 1
	DefaultTargetBacklogPerTask = 100
	QueueNameEnv                = "QUEUE_NAME"
)

// Limits accepted by the queue provider.
const (
	MinRetentionPeriod   = time.Minute
	MaxRetentionPeriod   = 14 * 24 * time.Hour
	MaxVisibilityTimeout = 12 * time.Hour
)

// MaxIDLength bounds the alphanumeric characters of Options.ID so that
// the longest derived queue name fits the 80 characters allowed by the
// queue provider.
const MaxIDLength = maxQueueNameLength - len(pathDeadLetter) - logicalIDSuffixLength

// ExistingQueue references a queue owned by the caller. At least one
// of Name and Arn must be set.
type ExistingQueue struct {
	LogicalID string `json:"logicalId,omitempty"`
	Name      string `json:"name,omitempty"`
	Arn       string `json:"arn,omitempty"`
}

// Options is the sparse intent a Graph is derived from. Every field
// but Cluster, Image and MemoryLimitMiB is optional, zero or nil values
// select the documented default.
type Options struct {
	// ID is the logical name of the service. It prefixes every logical
	// ID and is the log stream prefix. Defaults to DefaultID.
	ID string `json:"id"`
	// Cluster is the identity of the cluster the service runs on.
	Cluster string `json:"cluster"`

	// Queue, when set, is used as the processing queue and no dead
	// letter queue is derived.
	Queue *ExistingQueue `json:"queue,omitempty"`
	// RetentionPeriod defaults to DefaultRetentionPeriod.
	RetentionPeriod time.Duration `json:"retentionPeriod,omitempty"`
	// VisibilityTimeout is left to the provider when nil.
	VisibilityTimeout *time.Duration `json:"visibilityTimeout,omitempty"`
	// MaxReceiveCount defaults to DefaultMaxReceiveCount.
	MaxReceiveCount int `json:"maxReceiveCount,omitempty"`

	Image                string            `json:"image"`
	MemoryLimitMiB       int64             `json:"memoryLimitMiB"`
	MemoryReservationMiB *int64            `json:"memoryReservationMiB,omitempty"`
	CPU                  *int64            `json:"cpu,omitempty"`
	GPUCount             *int64            `json:"gpuCount,omitempty"`
	Command              []string          `json:"command,omitempty"`
	Environment          map[string]string `json:"environment,omitempty"`
	// ContainerName defaults to DefaultContainerName.
	ContainerName string `json:"containerName,omitempty"`
	// EnableLogging defaults to true.
	EnableLogging *bool `json:"enableLogging,omitempty"`

	DesiredTaskCount  *int64          `json:"desiredTaskCount,omitempty"`
	MinHealthyPercent *int64          `json:"minHealthyPercent,omitempty"`
	MaxHealthyPercent *int64          `json:"maxHealthyPercent,omitempty"`
	CircuitBreaker    *CircuitBreaker `json:"circuitBreaker,omitempty"`
	// ServiceName and Family default to the logical IDs of the service
	// and of its task definition.
	ServiceName string `json:"serviceName,omitempty"`
	Family      string `json:"family,omitempty"`
	// LaunchStrategy defaults to LaunchTypeEC2.
	LaunchStrategy LaunchStrategy `json:"launchStrategy,omitempty"`

	// MinScalingCapacity defaults to DefaultMinScalingCapacity.
	MinScalingCapacity *int64 `json:"minScalingCapacity,omitempty"`
	// MaxScalingCapacity enables autoscaling. It is mandatory when
	// DesiredTaskCount is 0.
	MaxScalingCapacity *int64 `json:"maxScalingCapacity,omitempty"`
	// TargetBacklogPerTask defaults to DefaultTargetBacklogPerTask.
	TargetBacklogPerTask float64        `json:"targetBacklogPerTask,omitempty"`
	ScaleInCooldown      *time.Duration `json:"scaleInCooldown,omitempty"`
	ScaleOutCooldown     *time.Duration `json:"scaleOutCooldown,omitempty"`

	// RemoveDefaultDesiredCount selects the mode in which an omitted
	// DesiredTaskCount is left unset instead of defaulting to 1.
	RemoveDefaultDesiredCount bool `json:"removeDefaultDesiredCount,omitempty"`
}

// UnmarshalJSON decodes o from the encoding produced by json.Marshal.
// The launch strategy is a launch type string or a list of capacity
// provider strategies. Durations are nanoseconds.
func (o *Options) UnmarshalJSON(b []byte) error {
	type options Options
	aux := struct {
		*options
		LaunchStrategy json.RawMessage `json:"launchStrategy,omitempty"`
	}{options: (*options)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	ls, err := decodeLaunchStrategy(aux.LaunchStrategy)
	if err != nil {
		return err
	}
	o.LaunchStrategy = ls
	return nil
}

func decodeLaunchStrategy(raw json.RawMessage) (LaunchStrategy, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var lt LaunchType
		if err := json.Unmarshal(raw, &lt); err != nil {
			return nil, err
		}
		return lt, nil
	case '[':
		var cps CapacityProviderStrategies
		if err := json.Unmarshal(raw, &cps); err != nil {
			return nil, err
		}
		return cps, nil
	default:
		return nil, fmt.Errorf("launchStrategy: want a launch type or a list of capacity provider strategies, got %s", raw)
	}
}

func (o *Options) id() string {
	if o.ID == "" {
		return DefaultID
	}
	return o.ID
}

func (o *Options) retention() time.Duration {
	if o.RetentionPeriod == 0 {
		return DefaultRetentionPeriod
	}
	return o.RetentionPeriod
}

func (o *Options) maxReceiveCount() int {
	if o.MaxReceiveCount == 0 {
		return DefaultMaxReceiveCount
	}
	return o.MaxReceiveCount
}

func (o *Options) containerName() string {
	if o.ContainerName == "" {
		return DefaultContainerName
	}
	return o.ContainerName
}

func (o *Options) loggingEnabled() bool {
	return o.EnableLogging == nil || *o.EnableLogging
}

func (o *Options) launchStrategy() LaunchStrategy {
	if o.LaunchStrategy == nil {
		return LaunchTypeEC2
	}
	return o.LaunchStrategy
}

func (o *Options) minHealthyPercent() int64 {
	if o.MinHealthyPercent == nil {
		return DefaultMinHealthyPercent
	}
	return *o.MinHealthyPercent
}

func (o *Options) maxHealthyPercent() int64 {
	if o.MaxHealthyPercent == nil {
		return DefaultMaxHealthyPercent
	}
	return *o.MaxHealthyPercent
}

func (o *Options) minScalingCapacity() int64 {
	if o.MinScalingCapacity == nil {
		return DefaultMinScalingCapacity
	}
	return *o.MinScalingCapacity
}

func (o *Options) targetBacklogPerTask() float64 {
	if o.TargetBacklogPerTask == 0 {
		return DefaultTargetBacklogPerTask
	}
	return o.TargetBacklogPerTask
}

func Int64(v int64) *int64 { return &v }

func Bool(v bool) *bool { return &v }

func Duration(d time.Duration) *time.Duration { return &d }
