// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package intent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jecoz/queueworker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const full = `
service "Service" {
  cluster          = "tooling"
  image            = "test"
  memory_limit_mib = 1024
  command          = ["-c", "4", "amazon.com"]
  enable_logging   = false
  gpu_count        = 256
  environment = {
    TEST_ENVIRONMENT_VARIABLE1 = "test environment variable 1 value"
    REGION                     = env.AWS_REGION
  }

  queue {
    name = "ecs-test-sqs-queue"
  }

  desired_task_count   = 2
  max_scaling_capacity = 5
  min_healthy_percent  = 60
  max_healthy_percent  = 150
  service_name         = "ecs-test-service"
  family               = "ecs-task-family"

  circuit_breaker {
    rollback = true
  }
}

service "Spot" {
  cluster            = "tooling"
  image              = "registry.example.com/team/worker:1.2"
  memory_limit_mib   = 512
  retention_period   = "7d"
  visibility_timeout = "5m"
  max_receive_count  = 42
  scale_in_cooldown  = "90s"

  capacity_provider_strategy {
    capacity_provider = "spot"
    weight            = 2
  }
  capacity_provider_strategy {
    capacity_provider = "on-demand"
    base              = 1
  }
}
`

func TestParse(t *testing.T) {
	l := Loader{Env: map[string]string{"AWS_REGION": "eu-west-1"}}
	opts, err := l.Parse([]byte(full), "full.hcl")
	require.NoError(t, err)
	require.Len(t, opts, 2)

	o := opts[0]
	assert.Equal(t, "Service", o.ID)
	assert.Equal(t, "tooling", o.Cluster)
	assert.Equal(t, "test", o.Image)
	assert.EqualValues(t, 1024, o.MemoryLimitMiB)
	assert.Equal(t, []string{"-c", "4", "amazon.com"}, o.Command)
	assert.Equal(t, map[string]string{
		"TEST_ENVIRONMENT_VARIABLE1": "test environment variable 1 value",
		"REGION":                     "eu-west-1",
	}, o.Environment)
	assert.False(t, *o.EnableLogging)
	assert.EqualValues(t, 256, *o.GPUCount)
	assert.Equal(t, &queueworker.ExistingQueue{Name: "ecs-test-sqs-queue"}, o.Queue)
	assert.EqualValues(t, 2, *o.DesiredTaskCount)
	assert.EqualValues(t, 5, *o.MaxScalingCapacity)
	assert.EqualValues(t, 60, *o.MinHealthyPercent)
	assert.EqualValues(t, 150, *o.MaxHealthyPercent)
	assert.Equal(t, "ecs-test-service", o.ServiceName)
	assert.Equal(t, "ecs-task-family", o.Family)
	assert.Equal(t, &queueworker.CircuitBreaker{Rollback: true}, o.CircuitBreaker)
	assert.Nil(t, o.LaunchStrategy)

	spot := opts[1]
	assert.Equal(t, 7*24*time.Hour, spot.RetentionPeriod)
	assert.Equal(t, 5*time.Minute, *spot.VisibilityTimeout)
	assert.Equal(t, 42, spot.MaxReceiveCount)
	assert.Equal(t, 90*time.Second, *spot.ScaleInCooldown)
	assert.Nil(t, spot.ScaleOutCooldown)
	assert.Nil(t, spot.EnableLogging)
	assert.Equal(t, queueworker.CapacityProviderStrategies{
		{CapacityProvider: "spot", Weight: queueworker.Int64(2)},
		{CapacityProvider: "on-demand", Base: queueworker.Int64(1)},
	}, spot.LaunchStrategy)

	for _, o := range opts {
		_, err := queueworker.Compose(o)
		assert.NoError(t, err, o.ID)
	}
}

func TestParse_Errors(t *testing.T) {
	tt := []struct {
		name string
		src  string
		code queueworker.ErrorCode
	}{
		{
			name: "both launch strategies",
			src: `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  launch_type = "EC2"
  capacity_provider_strategy {
    capacity_provider = "p"
  }
}`,
			code: queueworker.CodeLaunchStrategy,
		},
		{
			name: "bad image",
			src: `service "S" {
  cluster = "c"
  image = "Not A Reference"
  memory_limit_mib = 512
}`,
			code: queueworker.CodeInvalidReference,
		},
		{
			name: "bad duration",
			src: `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  retention_period = "a week"
}`,
			code: queueworker.CodeInvalidBounds,
		},
		{
			name: "zero retention",
			src: `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  retention_period = "0s"
}`,
			code: queueworker.CodeInvalidBounds,
		},
		{
			name: "negative retention",
			src: `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  retention_period = "-1d"
}`,
			code: queueworker.CodeInvalidBounds,
		},
		{
			name: "zero receive count",
			src: `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  max_receive_count = 0
}`,
			code: queueworker.CodeInvalidBounds,
		},
	}
	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {
			l := Loader{Env: map[string]string{}}
			_, err := l.Parse([]byte(v.src), "bad.hcl")
			require.Error(t, err)
			assert.Equal(t, v.code, queueworker.ErrorCodeOf(err))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	l := Loader{Env: map[string]string{}}

	_, err := l.Parse([]byte(`service "S" {`), "broken.hcl")
	assert.Error(t, err)

	_, err = l.Parse([]byte(`service "S" { image = "test" }`), "missing.hcl")
	assert.Error(t, err)
	assert.False(t, queueworker.IsConfigError(err))

	dup := `service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
}
service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
}`
	_, err = l.Parse([]byte(dup), "dup.hcl")
	assert.ErrorContains(t, err, "declared twice")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intent.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`service "S" {
  cluster = "c"
  image = "test"
  memory_limit_mib = 512
  launch_type = "fargate"
}`), 0o644))

	opts, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, queueworker.LaunchTypeFargate, opts[0].LaunchStrategy)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tt := map[string]time.Duration{
		"14d":   14 * 24 * time.Hour,
		"5m":    5 * time.Minute,
		" 1h ":  time.Hour,
		"0s":    0,
		"1h30m": 90 * time.Minute,
	}
	for in, want := range tt {
		have, err := parseDuration("f", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, have, in)
	}
}
