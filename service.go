// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

// BuildService derives the long running service. It expects o to have
// passed Validate, in particular the desired count / scaling capacity
// rule.
func BuildService(o *Options) ServiceSpec {
	id := o.id()
	s := ServiceSpec{
		LogicalID:      LogicalID(id, pathService),
		Cluster:        o.Cluster,
		ServiceName:    o.ServiceName,
		Family:         o.Family,
		TaskDefinition: LogicalID(id, pathTaskDefinition),
		DesiredCount:   desiredCount(o),
		Deployment: DeploymentConfig{
			MinHealthyPercent: o.minHealthyPercent(),
			MaxHealthyPercent: o.maxHealthyPercent(),
		},
		Launch: launchStrategy(o.launchStrategy()),
	}
	if s.ServiceName == "" {
		s.ServiceName = s.LogicalID
	}
	if s.Family == "" {
		s.Family = s.TaskDefinition
	}
	if cb := o.CircuitBreaker; cb != nil {
		s.Deployment.CircuitBreaker = &CircuitBreaker{Rollback: cb.Rollback}
		s.Deployment.Controller = DeploymentControllerECS
	}
	return s
}

func desiredCount(o *Options) *int64 {
	switch {
	case o.DesiredTaskCount != nil:
		return Int64(*o.DesiredTaskCount)
	case o.RemoveDefaultDesiredCount:
		return nil
	default:
		return Int64(DefaultDesiredCount)
	}
}

func launchStrategy(ls LaunchStrategy) LaunchStrategy {
	cps, ok := ls.(CapacityProviderStrategies)
	if !ok {
		return ls
	}
	dst := make(CapacityProviderStrategies, len(cps))
	for i, s := range cps {
		dst[i] = CapacityProviderStrategy{CapacityProvider: s.CapacityProvider}
		if s.Weight != nil {
			dst[i].Weight = Int64(*s.Weight)
		}
		if s.Base != nil {
			dst[i].Base = Int64(*s.Base)
		}
	}
	return dst
}
