// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"strings"

	"github.com/jecoz/queueworker"
)

// Resolver turns deferred references into the values the provider
// expects.
type Resolver interface {
	Resolve(queueworker.Ref) (string, error)
}

// Stack resolves the references of a single graph deployed in Region
// under Account. Generated resources are named after their logical ID.
type Stack struct {
	Region  string
	Account string

	attrs map[queueworker.Ref]string
}

func NewStack(g *queueworker.Graph, region, account string) *Stack {
	s := &Stack{Region: region, Account: account, attrs: map[queueworker.Ref]string{}}
	s.attrs[queueworker.RegionRef] = region

	q := g.Queue
	name := q.Name
	if name == "" && q.Arn != "" {
		name = q.Arn[strings.LastIndex(q.Arn, ":")+1:]
	}
	if name == "" {
		name = q.LogicalID
	}
	arn := q.Arn
	if arn == "" {
		arn = s.queueArn(name)
	}
	s.attrs[q.NameRef()] = name
	s.attrs[q.ArnRef()] = arn

	if d := g.DeadLetter; d != nil {
		s.attrs[queueworker.Ref{LogicalID: d.LogicalID, Attr: queueworker.AttrQueueName}] = d.LogicalID
		s.attrs[d.ArnRef()] = s.queueArn(d.LogicalID)
	}
	if l := g.LogGroup; l != nil {
		name := l.Name
		if name == "" {
			name = l.LogicalID
		}
		s.attrs[l.Ref()] = name
	}
	s.attrs[g.Service.NameRef()] = g.Service.ServiceName
	return s
}

func (s *Stack) queueArn(name string) string {
	return fmt.Sprintf("arn:aws:sqs:%s:%s:%s", s.Region, s.Account, name)
}

func (s *Stack) Resolve(ref queueworker.Ref) (string, error) {
	v, ok := s.attrs[ref]
	if !ok {
		return "", fmt.Errorf("resolve %v: unknown reference", ref)
	}
	return v, nil
}
