// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"encoding/json"
	"time"
)

// Attributes a Ref may point at.
const (
	AttrQueueName = "QueueName"
	AttrArn       = "Arn"
	AttrName      = "Name"
)

// RegionRef points at the region the graph is eventually rendered in.
var RegionRef = Ref{LogicalID: "AWS::Region"}

// Ref is a deferred reference to an attribute of another resource of
// the graph. It is resolved by the rendering layer, never at
// composition time. An empty Attr refers to the resource itself.
type Ref struct {
	LogicalID string `json:"ref"`
	Attr      string `json:"attr,omitempty"`
}

func (r Ref) String() string {
	if r.Attr == "" {
		return r.LogicalID
	}
	return r.LogicalID + "." + r.Attr
}

// Value is either a literal string or a Ref.
type Value struct {
	Literal string
	Ref     *Ref
}

func Literal(s string) Value { return Value{Literal: s} }

func RefValue(r Ref) Value { return Value{Ref: &r} }

func (v Value) IsRef() bool { return v.Ref != nil }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Ref != nil {
		return json.Marshal(v.Ref)
	}
	return json.Marshal(v.Literal)
}

type RedrivePolicy struct {
	DeadLetterTarget Ref `json:"deadLetterTarget"`
	MaxReceiveCount  int `json:"maxReceiveCount"`
}

// QueueSpec describes the queue the service consumes from. Imported
// queues were supplied by the caller and are never created.
type QueueSpec struct {
	LogicalID         string         `json:"logicalId"`
	Name              string         `json:"name,omitempty"`
	Arn               string         `json:"arn,omitempty"`
	Imported          bool           `json:"imported"`
	RetentionPeriod   time.Duration  `json:"retentionPeriod,omitempty"`
	VisibilityTimeout *time.Duration `json:"visibilityTimeout,omitempty"`
	Redrive           *RedrivePolicy `json:"redrive,omitempty"`
}

func (q QueueSpec) NameRef() Ref { return Ref{LogicalID: q.LogicalID, Attr: AttrQueueName} }
func (q QueueSpec) ArnRef() Ref { return Ref{LogicalID: q.LogicalID, Attr: AttrArn} }

func (q QueueSpec) RetentionSeconds() int64 { return int64(q.RetentionPeriod / time.Second) }

// VisibilitySeconds returns the visibility timeout in seconds and
// whether it is set at all.
func (q QueueSpec) VisibilitySeconds() (int64, bool) {
	if q.VisibilityTimeout == nil {
		return 0, false
	}
	return int64(*q.VisibilityTimeout / time.Second), true
}

type DeadLetterSpec struct {
	LogicalID       string        `json:"logicalId"`
	RetentionPeriod time.Duration `json:"retentionPeriod"`
}

func (d DeadLetterSpec) ArnRef() Ref { return Ref{LogicalID: d.LogicalID, Attr: AttrArn} }

func (d DeadLetterSpec) RetentionSeconds() int64 { return int64(d.RetentionPeriod / time.Second) }

type LogGroupSpec struct {
	LogicalID string `json:"logicalId"`
	Name      string `json:"name,omitempty"`
	Imported  bool   `json:"imported"`
}

func (l LogGroupSpec) Ref() Ref { return Ref{LogicalID: l.LogicalID} }

const LogDriverAWSLogs = "awslogs"

type LogConfig struct {
	Enabled      bool   `json:"enabled"`
	Driver       string `json:"driver,omitempty"`
	LogGroup     Ref    `json:"logGroup"`
	StreamPrefix string `json:"streamPrefix,omitempty"`
	Region       Ref    `json:"region"`
}

type EnvVar struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

const ResourceTypeGPU = "GPU"

type ResourceRequirement struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type ContainerSpec struct {
	Name                 string                `json:"name"`
	Image                string                `json:"image"`
	MemoryLimitMiB       int64                 `json:"memoryLimitMiB"`
	MemoryReservationMiB *int64                `json:"memoryReservationMiB,omitempty"`
	CPU                  *int64                `json:"cpu,omitempty"`
	Command              []string              `json:"command,omitempty"`
	Environment          []EnvVar              `json:"environment"`
	ResourceRequirements []ResourceRequirement `json:"resourceRequirements,omitempty"`
	Logging              LogConfig             `json:"logging"`
	Essential            bool                  `json:"essential"`
}

// Env returns the value bound to name and whether it is present.
func (c ContainerSpec) Env(name string) (Value, bool) {
	for _, v := range c.Environment {
		if v.Name == name {
			return v.Value, true
		}
	}
	return Value{}, false
}

// LaunchStrategy is either a LaunchType or a list of capacity provider
// strategies. Having both is not representable.
type LaunchStrategy interface {
	launchStrategy()
}

type LaunchType string

const (
	LaunchTypeEC2     LaunchType = "EC2"
	LaunchTypeFargate LaunchType = "FARGATE"
)

func (LaunchType) launchStrategy() {}

type CapacityProviderStrategy struct {
	CapacityProvider string `json:"capacityProvider"`
	Weight           *int64 `json:"weight,omitempty"`
	Base             *int64 `json:"base,omitempty"`
}

type CapacityProviderStrategies []CapacityProviderStrategy

func (CapacityProviderStrategies) launchStrategy() {}

type CircuitBreaker struct {
	Rollback bool `json:"rollback"`
}

const DeploymentControllerECS = "ECS"

type DeploymentConfig struct {
	MinHealthyPercent int64           `json:"minHealthyPercent"`
	MaxHealthyPercent int64           `json:"maxHealthyPercent"`
	CircuitBreaker    *CircuitBreaker `json:"circuitBreaker,omitempty"`
	// Controller is empty unless a circuit breaker is configured.
	Controller string `json:"controller,omitempty"`
}

type ServiceSpec struct {
	LogicalID      string `json:"logicalId"`
	Cluster        string `json:"cluster"`
	ServiceName    string `json:"serviceName"`
	Family         string `json:"family"`
	TaskDefinition string `json:"taskDefinition"`
	// DesiredCount is nil when the service is created without an
	// explicit desired count.
	DesiredCount *int64           `json:"desiredCount,omitempty"`
	Deployment   DeploymentConfig `json:"deployment"`
	Launch       LaunchStrategy   `json:"launch"`
}

func (s ServiceSpec) NameRef() Ref { return Ref{LogicalID: s.LogicalID, Attr: AttrName} }

// LaunchType returns the launch type, if the service uses one.
func (s ServiceSpec) LaunchType() (LaunchType, bool) {
	lt, ok := s.Launch.(LaunchType)
	return lt, ok
}

// CapacityProviderStrategies returns the strategies, if the service
// uses them.
func (s ServiceSpec) CapacityProviderStrategies() (CapacityProviderStrategies, bool) {
	cps, ok := s.Launch.(CapacityProviderStrategies)
	return cps, ok
}

// BacklogMetric is the number of visible messages on Queue divided by
// the number of running tasks of Service.
type BacklogMetric struct {
	Queue      Ref    `json:"queue"`
	Cluster    string `json:"cluster"`
	Service    Ref    `json:"service"`
	Expression string `json:"expression"`
}

type ScalingPolicy struct {
	LogicalID        string         `json:"logicalId"`
	TargetLogicalID  string         `json:"targetLogicalId"`
	Cluster          string         `json:"cluster"`
	Service          Ref            `json:"service"`
	MinCapacity      int64          `json:"minCapacity"`
	MaxCapacity      int64          `json:"maxCapacity"`
	TargetValue      float64        `json:"targetValue"`
	Metric           BacklogMetric  `json:"metric"`
	ScaleInCooldown  *time.Duration `json:"scaleInCooldown,omitempty"`
	ScaleOutCooldown *time.Duration `json:"scaleOutCooldown,omitempty"`
}

// Graph is the complete set of resources derived by one composition.
// It must be treated as read only.
type Graph struct {
	ID         string          `json:"id"`
	Queue      QueueSpec       `json:"queue"`
	DeadLetter *DeadLetterSpec `json:"deadLetter,omitempty"`
	LogGroup   *LogGroupSpec   `json:"logGroup,omitempty"`
	Container  ContainerSpec   `json:"container"`
	Service    ServiceSpec     `json:"service"`
	Scaling    *ScalingPolicy  `json:"scaling,omitempty"`
}
