// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/jecoz/queueworker"
	"github.com/jecoz/queueworker/intent"
	"github.com/jecoz/queueworker/render"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rendered struct {
	ID     string         `json:"id"`
	Inputs *render.Inputs `json:"inputs"`
}

func (a *app) composeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print the resource graph of every service in an intent file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			graphs, err := a.composeFile(file)
			if err != nil {
				return err
			}
			return write(a.stdout, a.cfg.Format, graphs)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "intent file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the API inputs creating every service in an intent file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			graphs, err := a.composeFile(file)
			if err != nil {
				return err
			}
			out := make([]rendered, 0, len(graphs))
			for _, g := range graphs {
				r := &render.Renderer{
					Resolver: render.NewStack(g, a.cfg.Region, a.cfg.Account),
					Network:  a.network(),
				}
				in, err := r.Render(g)
				if err != nil {
					return fmt.Errorf("render %s: %w", g.ID, err)
				}
				out = append(out, rendered{ID: g.ID, Inputs: in})
			}
			return write(a.stdout, a.cfg.Format, out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "intent file")
	f.String("region", "us-east-1", "region the stack is deployed in")
	f.String("account", "000000000000", "account the stack is deployed in")
	f.StringSlice("subnet", nil, "subnet of the service network configuration, repeatable")
	f.StringSlice("security-group", nil, "security group of the service network configuration, repeatable")
	f.Bool("assign-public-ip", false, "assign a public ip to awsvpc tasks")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) network() *render.Network {
	if len(a.cfg.Subnets) == 0 {
		return nil
	}
	return &render.Network{
		Subnets:        a.cfg.Subnets,
		SecurityGroups: a.cfg.SecurityGroups,
		AssignPublicIP: a.cfg.AssignPublicIP,
	}
}

// composeFile composes every intent of path. Graphs are returned in
// declaration order.
func (a *app) composeFile(path string) ([]*queueworker.Graph, error) {
	opts, err := intent.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug("intents loaded", zap.String("path", path), zap.Int("services", len(opts)))

	c := &queueworker.Composer{Log: a.log}
	return iter.MapErr(opts, func(o *queueworker.Options) (*queueworker.Graph, error) {
		if a.cfg.RemoveDefaultDesiredCount {
			o.RemoveDefaultDesiredCount = true
		}
		g, err := c.Compose(*o)
		if err != nil {
			return nil, fmt.Errorf("compose %s: %w", o.ID, err)
		}
		return g, nil
	})
}
