// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns a composed graph into the API inputs that
// create its resources.
package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/jecoz/queueworker"
)

// Inputs holds one input per resource to create. Imported resources
// have no input.
type Inputs struct {
	DeadLetterQueue *sqs.CreateQueueInput                               `json:"deadLetterQueue,omitempty"`
	Queue           *sqs.CreateQueueInput                               `json:"queue,omitempty"`
	LogGroup        *cloudwatchlogs.CreateLogGroupInput                 `json:"logGroup,omitempty"`
	TaskDefinition  *ecs.RegisterTaskDefinitionInput                    `json:"taskDefinition"`
	Service         *ecs.CreateServiceInput                             `json:"service"`
	ScalableTarget  *applicationautoscaling.RegisterScalableTargetInput `json:"scalableTarget,omitempty"`
	ScalingPolicy   *applicationautoscaling.PutScalingPolicyInput       `json:"scalingPolicy,omitempty"`
}

// Network is handed to services whose tasks need their own network
// interface.
type Network struct {
	Subnets        []string `json:"subnets"`
	SecurityGroups []string `json:"security_groups"`
	AssignPublicIP bool     `json:"assign_public_ip"`
}

type Renderer struct {
	Resolver Resolver
	// Network is optional for EC2 and capacity provider services. When
	// it has subnets, tasks run in awsvpc mode. Fargate services must
	// have one.
	Network *Network
}

func (r *Renderer) awsvpc() bool {
	return r.Network != nil && len(r.Network.Subnets) > 0
}

// checkFargate reports the settings Fargate requires and g lacks.
func (r *Renderer) checkFargate(g *queueworker.Graph) error {
	if lt, ok := g.Service.LaunchType(); !ok || lt != queueworker.LaunchTypeFargate {
		return nil
	}
	if !r.awsvpc() {
		return queueworker.NewConfigError(
			queueworker.CodeRequiredField,
			"fargate services need a network with at least one subnet",
			queueworker.WithField("network"),
		)
	}
	if g.Container.CPU == nil {
		return queueworker.NewConfigError(
			queueworker.CodeRequiredField,
			"fargate services need cpu to be set",
			queueworker.WithField("cpu"),
		)
	}
	return nil
}

// Render renders g deployed in region under account.
func Render(g *queueworker.Graph, region, account string) (*Inputs, error) {
	r := &Renderer{Resolver: NewStack(g, region, account)}
	return r.Render(g)
}

type validator interface {
	Validate() error
}

func (r *Renderer) Render(g *queueworker.Graph) (*Inputs, error) {
	if err := r.checkFargate(g); err != nil {
		return nil, err
	}
	in := new(Inputs)
	var err error
	if g.DeadLetter != nil {
		in.DeadLetterQueue, err = r.deadLetterQueue(g.DeadLetter)
		if err != nil {
			return nil, fmt.Errorf("render dead letter queue: %w", err)
		}
	}
	if !g.Queue.Imported {
		if in.Queue, err = r.queue(g.Queue); err != nil {
			return nil, fmt.Errorf("render queue: %w", err)
		}
	}
	if g.LogGroup != nil && !g.LogGroup.Imported {
		name, err := r.Resolver.Resolve(g.LogGroup.Ref())
		if err != nil {
			return nil, fmt.Errorf("render log group: %w", err)
		}
		in.LogGroup = &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(name)}
	}
	if in.TaskDefinition, err = r.taskDefinition(g); err != nil {
		return nil, fmt.Errorf("render task definition: %w", err)
	}
	in.Service = r.service(g.Service)
	if p := g.Scaling; p != nil {
		if in.ScalableTarget, in.ScalingPolicy, err = r.scaling(p); err != nil {
			return nil, fmt.Errorf("render scaling policy: %w", err)
		}
	}

	for _, v := range in.validators() {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in *Inputs) validators() []validator {
	var vs []validator
	if in.DeadLetterQueue != nil {
		vs = append(vs, in.DeadLetterQueue)
	}
	if in.Queue != nil {
		vs = append(vs, in.Queue)
	}
	if in.LogGroup != nil {
		vs = append(vs, in.LogGroup)
	}
	vs = append(vs, in.TaskDefinition, in.Service)
	if in.ScalableTarget != nil {
		vs = append(vs, in.ScalableTarget, in.ScalingPolicy)
	}
	return vs
}

func seconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}

func (r *Renderer) deadLetterQueue(d *queueworker.DeadLetterSpec) (*sqs.CreateQueueInput, error) {
	name, err := r.Resolver.Resolve(queueworker.Ref{LogicalID: d.LogicalID, Attr: queueworker.AttrQueueName})
	if err != nil {
		return nil, err
	}
	return &sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]*string{
			sqs.QueueAttributeNameMessageRetentionPeriod: aws.String(seconds(d.RetentionPeriod)),
		},
	}, nil
}

type redrivePolicy struct {
	DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	MaxReceiveCount     int    `json:"maxReceiveCount"`
}

func (r *Renderer) queue(q queueworker.QueueSpec) (*sqs.CreateQueueInput, error) {
	name, err := r.Resolver.Resolve(q.NameRef())
	if err != nil {
		return nil, err
	}
	attrs := map[string]*string{
		sqs.QueueAttributeNameMessageRetentionPeriod: aws.String(seconds(q.RetentionPeriod)),
	}
	if q.VisibilityTimeout != nil {
		attrs[sqs.QueueAttributeNameVisibilityTimeout] = aws.String(seconds(*q.VisibilityTimeout))
	}
	if q.Redrive != nil {
		arn, err := r.Resolver.Resolve(q.Redrive.DeadLetterTarget)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(&redrivePolicy{
			DeadLetterTargetArn: arn,
			MaxReceiveCount:     q.Redrive.MaxReceiveCount,
		})
		if err != nil {
			return nil, fmt.Errorf("encode redrive policy: %w", err)
		}
		attrs[sqs.QueueAttributeNameRedrivePolicy] = aws.String(string(b))
	}
	return &sqs.CreateQueueInput{QueueName: aws.String(name), Attributes: attrs}, nil
}

func (r *Renderer) value(v queueworker.Value) (string, error) {
	if v.Ref == nil {
		return v.Literal, nil
	}
	return r.Resolver.Resolve(*v.Ref)
}

func (r *Renderer) taskDefinition(g *queueworker.Graph) (*ecs.RegisterTaskDefinitionInput, error) {
	c := g.Container
	def := &ecs.ContainerDefinition{
		Name:              aws.String(c.Name),
		Image:             aws.String(c.Image),
		Memory:            aws.Int64(c.MemoryLimitMiB),
		MemoryReservation: c.MemoryReservationMiB,
		Cpu:               c.CPU,
		Essential:         aws.Bool(c.Essential),
	}
	if len(c.Command) > 0 {
		def.Command = aws.StringSlice(c.Command)
	}
	for _, v := range c.Environment {
		value, err := r.value(v.Value)
		if err != nil {
			return nil, fmt.Errorf("environment %s: %w", v.Name, err)
		}
		def.Environment = append(def.Environment, &ecs.KeyValuePair{
			Name:  aws.String(v.Name),
			Value: aws.String(value),
		})
	}
	for _, req := range c.ResourceRequirements {
		def.ResourceRequirements = append(def.ResourceRequirements, &ecs.ResourceRequirement{
			Type:  aws.String(req.Type),
			Value: aws.String(req.Value),
		})
	}
	if l := c.Logging; l.Enabled {
		group, err := r.Resolver.Resolve(l.LogGroup)
		if err != nil {
			return nil, fmt.Errorf("log group: %w", err)
		}
		region, err := r.Resolver.Resolve(l.Region)
		if err != nil {
			return nil, fmt.Errorf("log region: %w", err)
		}
		def.LogConfiguration = &ecs.LogConfiguration{
			LogDriver: aws.String(l.Driver),
			Options: map[string]*string{
				"awslogs-group":         aws.String(group),
				"awslogs-stream-prefix": aws.String(l.StreamPrefix),
				"awslogs-region":        aws.String(region),
			},
		}
	}

	input := &ecs.RegisterTaskDefinitionInput{
		Family:               aws.String(g.Service.Family),
		ContainerDefinitions: []*ecs.ContainerDefinition{def},
	}
	if r.awsvpc() {
		input.NetworkMode = aws.String(ecs.NetworkModeAwsvpc)
	}
	if lt, ok := g.Service.LaunchType(); ok {
		input.RequiresCompatibilities = aws.StringSlice([]string{string(lt)})
		if lt == queueworker.LaunchTypeFargate {
			input.Memory = aws.String(strconv.FormatInt(c.MemoryLimitMiB, 10))
			input.Cpu = aws.String(strconv.FormatInt(*c.CPU, 10))
		}
	}
	return input, nil
}

func (r *Renderer) service(s queueworker.ServiceSpec) *ecs.CreateServiceInput {
	input := &ecs.CreateServiceInput{
		Cluster:        aws.String(s.Cluster),
		ServiceName:    aws.String(s.ServiceName),
		TaskDefinition: aws.String(s.Family),
		DesiredCount:   s.DesiredCount,
		DeploymentConfiguration: &ecs.DeploymentConfiguration{
			MinimumHealthyPercent: aws.Int64(s.Deployment.MinHealthyPercent),
			MaximumPercent:        aws.Int64(s.Deployment.MaxHealthyPercent),
		},
	}
	if cb := s.Deployment.CircuitBreaker; cb != nil {
		input.DeploymentConfiguration.DeploymentCircuitBreaker = &ecs.DeploymentCircuitBreaker{
			Enable:   aws.Bool(true),
			Rollback: aws.Bool(cb.Rollback),
		}
	}
	if s.Deployment.Controller != "" {
		input.DeploymentController = &ecs.DeploymentController{Type: aws.String(s.Deployment.Controller)}
	}
	if lt, ok := s.LaunchType(); ok {
		input.LaunchType = aws.String(string(lt))
	}
	if cps, ok := s.CapacityProviderStrategies(); ok {
		for _, v := range cps {
			input.CapacityProviderStrategy = append(input.CapacityProviderStrategy, &ecs.CapacityProviderStrategyItem{
				CapacityProvider: aws.String(v.CapacityProvider),
				Weight:           v.Weight,
				Base:             v.Base,
			})
		}
	}
	if r.awsvpc() {
		n := r.Network
		assign := ecs.AssignPublicIpDisabled
		if n.AssignPublicIP {
			assign = ecs.AssignPublicIpEnabled
		}
		input.NetworkConfiguration = &ecs.NetworkConfiguration{
			AwsvpcConfiguration: &ecs.AwsVpcConfiguration{
				AssignPublicIp: aws.String(assign),
				Subnets:        aws.StringSlice(n.Subnets),
				SecurityGroups: aws.StringSlice(n.SecurityGroups),
			},
		}
	}
	return input
}
