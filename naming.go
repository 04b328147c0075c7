// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Logical paths of the derived resources, relative to the service ID.
const (
	pathQueue          = "EcsProcessingQueue"
	pathDeadLetter     = "EcsProcessingDeadLetterQueue"
	pathImportedQueue  = "ImportedQueue"
	pathTaskDefinition = "QueueProcessingTaskDef"
	pathLogGroup       = "QueueProcessingTaskDefQueueProcessingContainerLogGroup"
	pathService        = "QueueProcessingService"
	pathScalableTarget = "QueueProcessingServiceTaskCountTarget"
	pathScalingPolicy  = "QueueProcessingServiceTaskCountTargetBacklogPerTaskScaling"
)

const (
	maxQueueNameLength    = 80
	logicalIDSuffixLength = 8
)

var logicalIDSpace = uuid.MustParse("3c1b6f0e-8d4a-5b2e-9f17-6a0d2c4e8b53")

// LogicalID returns the logical ID of the resource found at path under
// the service id. The same id and path always produce the same result.
func LogicalID(id, path string) string {
	sum := uuid.NewSHA1(logicalIDSpace, []byte(id+"/"+path))
	suffix := strings.ToUpper(fmt.Sprintf("%x", sum[:4]))
	return sanitize(id) + path + suffix
}

func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
