// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"go.uber.org/zap"
)

// Composer derives resource graphs. The zero value is ready to use.
type Composer struct {
	// Log receives one debug entry per derivation stage. Nil
	// disables logging.
	Log *zap.Logger
	// LogGroups defaults to DerivedLogGroups.
	LogGroups LogGroupProvider
}

func (c *Composer) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Compose validates o and derives the resource graph from it, queue
// first, then container, service and scaling policy. Either a complete
// graph or a *ConfigError is returned, never both.
func (c *Composer) Compose(o Options) (*Graph, error) {
	log := c.log().With(zap.String("id", o.id()))
	if err := o.Validate(); err != nil {
		log.Debug("composition rejected",
			zap.String("code", string(ErrorCodeOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	queue, dlq := BuildQueue(&o)
	log.Debug("queue derived",
		zap.String("queue", queue.LogicalID),
		zap.Bool("imported", queue.Imported),
	)

	container, group := BuildContainer(&o, queue, c.LogGroups)
	log.Debug("container derived",
		zap.String("container", container.Name),
		zap.Bool("logging", container.Logging.Enabled),
	)

	service := BuildService(&o)
	log.Debug("service derived",
		zap.String("service", service.LogicalID),
		zap.Bool("desired_count_set", service.DesiredCount != nil),
	)

	scaling := BuildScalingPolicy(&o, queue, service)
	if scaling != nil {
		log.Debug("scaling policy derived",
			zap.Int64("min", scaling.MinCapacity),
			zap.Int64("max", scaling.MaxCapacity),
		)
	}

	return &Graph{
		ID:         o.id(),
		Queue:      queue,
		DeadLetter: dlq,
		LogGroup:   group,
		Container:  container,
		Service:    service,
		Scaling:    scaling,
	}, nil
}

// Compose is a shorthand for composing with a zero Composer.
func Compose(o Options) (*Graph, error) {
	var c Composer
	return c.Compose(o)
}
