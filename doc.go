// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package queueworker derives the complete set of resources needed to
// run a container that consumes messages from a queue: the queue and
// its dead letter queue, the container, the service running it and the
// policy scaling the service on the queue backlog.
//
// Composition is synchronous and has no side effects. Identical
// Options always produce identical graphs. Values that only exist once
// a resource is created, such as the name of a generated queue, are
// carried as Refs and resolved when the graph is rendered.
package queueworker
