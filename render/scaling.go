// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/applicationautoscaling"
	"github.com/jecoz/queueworker"
)

// ResourceID returns the scalable resource identifier of a service.
func ResourceID(cluster, service string) string {
	return fmt.Sprintf("service/%s/%s", cluster, service)
}

func (r *Renderer) scaling(p *queueworker.ScalingPolicy) (*applicationautoscaling.RegisterScalableTargetInput, *applicationautoscaling.PutScalingPolicyInput, error) {
	service, err := r.Resolver.Resolve(p.Service)
	if err != nil {
		return nil, nil, err
	}
	queue, err := r.Resolver.Resolve(p.Metric.Queue)
	if err != nil {
		return nil, nil, err
	}
	metricService, err := r.Resolver.Resolve(p.Metric.Service)
	if err != nil {
		return nil, nil, err
	}

	resourceID := ResourceID(p.Cluster, service)
	target := &applicationautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  aws.String(applicationautoscaling.ServiceNamespaceEcs),
		ResourceId:        aws.String(resourceID),
		ScalableDimension: aws.String(applicationautoscaling.ScalableDimensionEcsServiceDesiredCount),
		MinCapacity:       aws.Int64(p.MinCapacity),
		MaxCapacity:       aws.Int64(p.MaxCapacity),
	}

	cfg := &applicationautoscaling.TargetTrackingScalingPolicyConfiguration{
		TargetValue: aws.Float64(p.TargetValue),
		CustomizedMetricSpecification: &applicationautoscaling.CustomizedMetricSpecification{
			Metrics: []*applicationautoscaling.TargetTrackingMetricDataQuery{
				metricQuery("visible", "AWS/SQS", "ApproximateNumberOfMessagesVisible", "Sum", map[string]string{
					"QueueName": queue,
				}),
				metricQuery("running", "ECS/ContainerInsights", "RunningTaskCount", "Average", map[string]string{
					"ClusterName": p.Metric.Cluster,
					"ServiceName": metricService,
				}),
				{
					Id:         aws.String("backlog"),
					Label:      aws.String("Backlog per task"),
					Expression: aws.String(p.Metric.Expression),
					ReturnData: aws.Bool(true),
				},
			},
		},
	}
	if d := p.ScaleInCooldown; d != nil {
		cfg.ScaleInCooldown = aws.Int64(int64(*d / time.Second))
	}
	if d := p.ScaleOutCooldown; d != nil {
		cfg.ScaleOutCooldown = aws.Int64(int64(*d / time.Second))
	}

	policy := &applicationautoscaling.PutScalingPolicyInput{
		PolicyName:                               aws.String(p.LogicalID),
		PolicyType:                               aws.String(applicationautoscaling.PolicyTypeTargetTrackingScaling),
		ServiceNamespace:                         target.ServiceNamespace,
		ResourceId:                               target.ResourceId,
		ScalableDimension:                        target.ScalableDimension,
		TargetTrackingScalingPolicyConfiguration: cfg,
	}
	return target, policy, nil
}

func metricQuery(id, namespace, name, stat string, dimensions map[string]string) *applicationautoscaling.TargetTrackingMetricDataQuery {
	metric := &applicationautoscaling.TargetTrackingMetric{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(name),
	}
	for _, k := range sortedKeys(dimensions) {
		metric.Dimensions = append(metric.Dimensions, &applicationautoscaling.TargetTrackingMetricDimension{
			Name:  aws.String(k),
			Value: aws.String(dimensions[k]),
		})
	}
	return &applicationautoscaling.TargetTrackingMetricDataQuery{
		Id:         aws.String(id),
		ReturnData: aws.Bool(false),
		MetricStat: &applicationautoscaling.TargetTrackingMetricStat{
			Metric: metric,
			Stat:   aws.String(stat),
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
