// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

// BacklogExpression divides the visible messages by the running tasks.
const BacklogExpression = "visible / running"

// BuildScalingPolicy derives the target tracking policy keeping the
// backlog per task of service around the target value. It returns nil
// when no maximum scaling capacity was supplied.
func BuildScalingPolicy(o *Options, queue QueueSpec, service ServiceSpec) *ScalingPolicy {
	if o.MaxScalingCapacity == nil {
		return nil
	}
	id := o.id()
	p := &ScalingPolicy{
		LogicalID:       LogicalID(id, pathScalingPolicy),
		TargetLogicalID: LogicalID(id, pathScalableTarget),
		Cluster:         service.Cluster,
		Service:         service.NameRef(),
		MinCapacity:     o.minScalingCapacity(),
		MaxCapacity:     *o.MaxScalingCapacity,
		TargetValue:     o.targetBacklogPerTask(),
		Metric: BacklogMetric{
			Queue:      queue.NameRef(),
			Cluster:    service.Cluster,
			Service:    service.NameRef(),
			Expression: BacklogExpression,
		},
	}
	if o.ScaleInCooldown != nil {
		p.ScaleInCooldown = Duration(*o.ScaleInCooldown)
	}
	if o.ScaleOutCooldown != nil {
		p.ScaleOutCooldown = Duration(*o.ScaleOutCooldown)
	}
	return p
}
