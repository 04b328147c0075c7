// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"sort"
	"strconv"
)

// LogGroupProvider hands out the log group a container writes to.
// logicalID is the identity the core would give the log group, the
// provider may use it or point at a group it owns.
type LogGroupProvider interface {
	LogGroup(logicalID, streamPrefix string) LogGroupSpec
}

// LogGroupFunc adapts ordinary functions to LogGroupProvider.
type LogGroupFunc func(logicalID, streamPrefix string) LogGroupSpec

func (f LogGroupFunc) LogGroup(logicalID, streamPrefix string) LogGroupSpec {
	return f(logicalID, streamPrefix)
}

// DerivedLogGroups is the default LogGroupProvider: a new log group
// named after its logical ID for each container.
var DerivedLogGroups = LogGroupFunc(func(logicalID, _ string) LogGroupSpec {
	return LogGroupSpec{LogicalID: logicalID}
})

// ExistingLogGroup returns a provider that always points at the group
// called name.
func ExistingLogGroup(name string) LogGroupProvider {
	return LogGroupFunc(func(logicalID, _ string) LogGroupSpec {
		return LogGroupSpec{LogicalID: logicalID, Name: name, Imported: true}
	})
}

// BuildContainer derives the container of the task definition. The
// queue name is bound as a reference to queue, never as a literal.
// The returned log group is nil when logging is disabled.
func BuildContainer(o *Options, queue QueueSpec, logs LogGroupProvider) (ContainerSpec, *LogGroupSpec) {
	c := ContainerSpec{
		Name:           o.containerName(),
		Image:          o.Image,
		MemoryLimitMiB: o.MemoryLimitMiB,
		Command:        append([]string(nil), o.Command...),
		Environment:    environment(o.Environment, queue),
		Essential:      true,
	}
	if o.MemoryReservationMiB != nil {
		c.MemoryReservationMiB = Int64(*o.MemoryReservationMiB)
	}
	if o.CPU != nil {
		c.CPU = Int64(*o.CPU)
	}
	if o.GPUCount != nil && *o.GPUCount > 0 {
		c.ResourceRequirements = []ResourceRequirement{{
			Type:  ResourceTypeGPU,
			Value: strconv.FormatInt(*o.GPUCount, 10),
		}}
	}

	if !o.loggingEnabled() {
		return c, nil
	}
	if logs == nil {
		logs = DerivedLogGroups
	}
	prefix := o.id()
	group := logs.LogGroup(LogicalID(prefix, pathLogGroup), prefix)
	c.Logging = LogConfig{
		Enabled:      true,
		Driver:       LogDriverAWSLogs,
		LogGroup:     group.Ref(),
		StreamPrefix: prefix,
		Region:       RegionRef,
	}
	return c, &group
}

func environment(env map[string]string, queue QueueSpec) []EnvVar {
	names := make([]string, 0, len(env))
	for k := range env {
		if k == QueueNameEnv {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	vars := make([]EnvVar, 0, len(names)+1)
	for _, k := range names {
		vars = append(vars, EnvVar{Name: k, Value: Literal(env[k])})
	}
	return append(vars, EnvVar{Name: QueueNameEnv, Value: RefValue(queue.NameRef())})
}
