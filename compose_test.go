// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func requiredOptions() Options {
	return Options{
		Cluster:        "tooling",
		MemoryLimitMiB: 512,
		Image:          "test",
	}
}

func TestCompose_RequiredOnly(t *testing.T) {
	g, err := Compose(requiredOptions())
	require.NoError(t, err)

	require.NotNil(t, g.Service.DesiredCount)
	assert.EqualValues(t, 1, *g.Service.DesiredCount)
	lt, ok := g.Service.LaunchType()
	require.True(t, ok)
	assert.Equal(t, LaunchTypeEC2, lt)

	require.NotNil(t, g.DeadLetter)
	require.NotNil(t, g.Queue.Redrive)
	assert.False(t, g.Queue.Imported)
	assert.Equal(t, g.DeadLetter.ArnRef(), g.Queue.Redrive.DeadLetterTarget)
	assert.Equal(t, 3, g.Queue.Redrive.MaxReceiveCount)
	assert.EqualValues(t, 1209600, g.Queue.RetentionSeconds())
	assert.EqualValues(t, 1209600, g.DeadLetter.RetentionSeconds())
	_, ok = g.Queue.VisibilitySeconds()
	assert.False(t, ok)

	c := g.Container
	assert.Equal(t, "test", c.Image)
	assert.EqualValues(t, 512, c.MemoryLimitMiB)
	assert.True(t, c.Essential)
	assert.Equal(t, DefaultContainerName, c.Name)
	assert.Equal(t, []EnvVar{{Name: QueueNameEnv, Value: RefValue(g.Queue.NameRef())}}, c.Environment)

	require.NotNil(t, g.LogGroup)
	assert.True(t, c.Logging.Enabled)
	assert.Equal(t, LogDriverAWSLogs, c.Logging.Driver)
	assert.Equal(t, "Service", c.Logging.StreamPrefix)
	assert.Equal(t, g.LogGroup.Ref(), c.Logging.LogGroup)
	assert.Equal(t, RegionRef, c.Logging.Region)

	assert.Equal(t, g.Service.TaskDefinition, g.Service.Family)
	assert.Contains(t, g.Service.Family, "ServiceQueueProcessingTaskDef")
	assert.Nil(t, g.Scaling)
}

func TestCompose_RemoveDefaultDesiredCount(t *testing.T) {
	o := requiredOptions()
	o.RemoveDefaultDesiredCount = true

	g, err := Compose(o)
	require.NoError(t, err)
	assert.Nil(t, g.Service.DesiredCount)
	lt, _ := g.Service.LaunchType()
	assert.Equal(t, LaunchTypeEC2, lt)

	o.DesiredTaskCount = Int64(4)
	g, err = Compose(o)
	require.NoError(t, err)
	require.NotNil(t, g.Service.DesiredCount)
	assert.EqualValues(t, 4, *g.Service.DesiredCount)
}

func TestCompose_QueueOverrides(t *testing.T) {
	o := requiredOptions()
	o.MaxReceiveCount = 42
	o.RetentionPeriod = 7 * 24 * time.Hour
	o.VisibilityTimeout = Duration(5 * time.Minute)

	g, err := Compose(o)
	require.NoError(t, err)
	assert.Equal(t, 42, g.Queue.Redrive.MaxReceiveCount)
	assert.EqualValues(t, 604800, g.Queue.RetentionSeconds())
	assert.EqualValues(t, 604800, g.DeadLetter.RetentionSeconds())
	v, ok := g.Queue.VisibilitySeconds()
	require.True(t, ok)
	assert.EqualValues(t, 300, v)
}

func TestCompose_AllOptionalProps(t *testing.T) {
	o := Options{
		Cluster:        "tooling",
		MemoryLimitMiB: 1024,
		Image:          "test",
		Command:        []string{"-c", "4", "amazon.com"},
		EnableLogging:  Bool(false),
		Environment: map[string]string{
			"TEST_ENVIRONMENT_VARIABLE2": "test environment variable 2 value",
			"TEST_ENVIRONMENT_VARIABLE1": "test environment variable 1 value",
		},
		Queue:              &ExistingQueue{LogicalID: "ecstestqueueD1FDA34B", Name: "ecs-test-sqs-queue"},
		DesiredTaskCount:   Int64(2),
		MaxScalingCapacity: Int64(5),
		MinHealthyPercent:  Int64(60),
		MaxHealthyPercent:  Int64(150),
		ServiceName:        "ecs-test-service",
		Family:             "ecs-task-family",
		CircuitBreaker:     &CircuitBreaker{Rollback: true},
		GPUCount:           Int64(256),
	}

	g, err := Compose(o)
	require.NoError(t, err)

	s := g.Service
	assert.EqualValues(t, 2, *s.DesiredCount)
	assert.Equal(t, DeploymentConfig{
		MinHealthyPercent: 60,
		MaxHealthyPercent: 150,
		CircuitBreaker:    &CircuitBreaker{Rollback: true},
		Controller:        DeploymentControllerECS,
	}, s.Deployment)
	assert.Equal(t, "ecs-test-service", s.ServiceName)
	assert.Equal(t, "ecs-task-family", s.Family)

	assert.True(t, g.Queue.Imported)
	assert.Equal(t, "ecs-test-sqs-queue", g.Queue.Name)
	assert.Nil(t, g.DeadLetter)
	assert.Nil(t, g.Queue.Redrive)

	c := g.Container
	assert.Equal(t, []string{"-c", "4", "amazon.com"}, c.Command)
	assert.Equal(t, []EnvVar{
		{Name: "TEST_ENVIRONMENT_VARIABLE1", Value: Literal("test environment variable 1 value")},
		{Name: "TEST_ENVIRONMENT_VARIABLE2", Value: Literal("test environment variable 2 value")},
		{Name: QueueNameEnv, Value: RefValue(Ref{LogicalID: "ecstestqueueD1FDA34B", Attr: AttrQueueName})},
	}, c.Environment)
	assert.Equal(t, []ResourceRequirement{{Type: ResourceTypeGPU, Value: "256"}}, c.ResourceRequirements)
	_, gpuInEnv := c.Env("GPU")
	assert.False(t, gpuInEnv)
	assert.False(t, c.Logging.Enabled)
	assert.Nil(t, g.LogGroup)

	require.NotNil(t, g.Scaling)
	assert.EqualValues(t, 1, g.Scaling.MinCapacity)
	assert.EqualValues(t, 5, g.Scaling.MaxCapacity)
}

func TestCompose_DesiredCountZero(t *testing.T) {
	o := requiredOptions()
	o.DesiredTaskCount = Int64(0)
	o.MaxScalingCapacity = Int64(2)

	g, err := Compose(o)
	require.NoError(t, err)
	require.NotNil(t, g.Service.DesiredCount)
	assert.EqualValues(t, 0, *g.Service.DesiredCount)
	require.NotNil(t, g.Scaling)
	assert.EqualValues(t, 2, g.Scaling.MaxCapacity)
}

func TestCompose_DesiredCountZeroWithoutCapacity(t *testing.T) {
	for name, capacity := range map[string]*int64{
		"unset":    nil,
		"zero":     Int64(0),
		"negative": Int64(-1),
	} {
		t.Run(name, func(t *testing.T) {
			o := requiredOptions()
			o.DesiredTaskCount = Int64(0)
			o.MaxScalingCapacity = capacity

			g, err := Compose(o)
			assert.Nil(t, g)
			require.Error(t, err)
			assert.Regexp(t, "maxScalingCapacity must be set and greater than 0 if desiredCount is 0", err.Error())
			assert.Equal(t, CodeDesiredCountCapacity, ErrorCodeOf(err))
		})
	}
}

func TestCompose_ContainerName(t *testing.T) {
	o := requiredOptions()
	o.ContainerName = "my-container"

	g, err := Compose(o)
	require.NoError(t, err)
	assert.Equal(t, "my-container", g.Container.Name)
}

func TestCompose_CapacityProviderStrategies(t *testing.T) {
	o := requiredOptions()
	o.LaunchStrategy = CapacityProviderStrategies{{CapacityProvider: "provider"}}

	g, err := Compose(o)
	require.NoError(t, err)
	_, ok := g.Service.LaunchType()
	assert.False(t, ok)
	cps, ok := g.Service.CapacityProviderStrategies()
	require.True(t, ok)
	assert.Equal(t, CapacityProviderStrategies{{CapacityProvider: "provider"}}, cps)
}

func TestCompose_ExactlyOneQueue(t *testing.T) {
	for name, q := range map[string]*ExistingQueue{
		"derived":  nil,
		"imported": {Name: "jobs"},
	} {
		t.Run(name, func(t *testing.T) {
			o := requiredOptions()
			o.Queue = q

			g, err := Compose(o)
			require.NoError(t, err)
			assert.Equal(t, q != nil, g.Queue.Imported)
			assert.Equal(t, q == nil, g.DeadLetter != nil)
			assert.NotEmpty(t, g.Queue.LogicalID)

			refs := 0
			for _, v := range g.Container.Environment {
				if v.Name != QueueNameEnv {
					continue
				}
				refs++
				require.True(t, v.Value.IsRef())
				assert.Equal(t, g.Queue.NameRef(), *v.Value.Ref)
				assert.Empty(t, v.Value.Literal)
			}
			assert.Equal(t, 1, refs)
		})
	}
}

func TestCompose_Deterministic(t *testing.T) {
	o := requiredOptions()
	o.Environment = map[string]string{"B": "2", "A": "1", "C": "3"}
	o.MaxScalingCapacity = Int64(10)
	o.LaunchStrategy = CapacityProviderStrategies{{CapacityProvider: "spot", Weight: Int64(2)}}

	a, err := Compose(o)
	require.NoError(t, err)
	b, err := Compose(o)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompose_DoesNotAliasInput(t *testing.T) {
	o := requiredOptions()
	o.Command = []string{"run"}
	o.LaunchStrategy = CapacityProviderStrategies{{CapacityProvider: "spot", Weight: Int64(2)}}

	g, err := Compose(o)
	require.NoError(t, err)

	o.Command[0] = "changed"
	*o.LaunchStrategy.(CapacityProviderStrategies)[0].Weight = 9
	assert.Equal(t, []string{"run"}, g.Container.Command)
	cps, _ := g.Service.CapacityProviderStrategies()
	assert.EqualValues(t, 2, *cps[0].Weight)
}

func TestCompose_CustomLogGroups(t *testing.T) {
	c := Composer{LogGroups: ExistingLogGroup("/ecs/workers")}
	g, err := c.Compose(requiredOptions())
	require.NoError(t, err)
	require.NotNil(t, g.LogGroup)
	assert.True(t, g.LogGroup.Imported)
	assert.Equal(t, "/ecs/workers", g.LogGroup.Name)
	assert.Equal(t, g.LogGroup.Ref(), g.Container.Logging.LogGroup)
}

func TestCompose_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := Composer{Log: zap.New(core)}

	_, err := c.Compose(requiredOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, logs.FilterMessageSnippet("derived").Len())

	o := requiredOptions()
	o.MaxScalingCapacity = Int64(3)
	_, err = c.Compose(o)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("scaling policy derived").Len())

	o.MemoryLimitMiB = 0
	_, err = c.Compose(o)
	require.Error(t, err)
	rejected := logs.FilterMessage("composition rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, string(CodeInvalidBounds), rejected[0].ContextMap()["code"])
}
