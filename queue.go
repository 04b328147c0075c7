// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

// BuildQueue derives the processing queue and, unless the caller
// supplied an existing queue, its dead letter queue. The caller owns
// the redrive policy of an existing queue.
func BuildQueue(o *Options) (QueueSpec, *DeadLetterSpec) {
	id := o.id()
	if q := o.Queue; q != nil {
		logicalID := q.LogicalID
		if logicalID == "" {
			logicalID = LogicalID(id, pathImportedQueue)
		}
		return QueueSpec{
			LogicalID: logicalID,
			Name:      q.Name,
			Arn:       q.Arn,
			Imported:  true,
		}, nil
	}

	retention := o.retention()
	dlq := &DeadLetterSpec{
		LogicalID:       LogicalID(id, pathDeadLetter),
		RetentionPeriod: retention,
	}
	queue := QueueSpec{
		LogicalID:       LogicalID(id, pathQueue),
		RetentionPeriod: retention,
		Redrive: &RedrivePolicy{
			DeadLetterTarget: dlq.ArnRef(),
			MaxReceiveCount:  o.maxReceiveCount(),
		},
	}
	if o.VisibilityTimeout != nil {
		queue.VisibilityTimeout = Duration(*o.VisibilityTimeout)
	}
	return queue, dlq
}
