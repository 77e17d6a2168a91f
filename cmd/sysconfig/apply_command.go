/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carverauto/sysconfig/pkg/metrics"
	"github.com/carverauto/sysconfig/pkg/models"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Render and apply the declared boot configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			rt, err := ctx.buildRuntime(cmd.Context(), metrics.New())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if err := rt.engine.ApplyAll(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied configuration from %s\n", ctx.configPath())

			return printRebootHint(cmd, rt)
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the managed boot configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			rt, err := ctx.buildRuntime(cmd.Context(), metrics.New())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if err := rt.engine.RemoveAll(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Removed managed boot configuration")

			return printRebootHint(cmd, rt)
		},
	}
}

// printRebootHint reads status after a mutating pass and tells the operator
// whether a reboot is still owed.
func printRebootHint(cmd *cobra.Command, rt *runtime) error {
	st, err := rt.engine.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	printRebootLine(cmd, st)

	return nil
}

func printRebootLine(cmd *cobra.Command, st *models.Status) {
	if st.RebootRequired {
		fmt.Fprintf(cmd.OutOrStdout(), "Reboot required to activate: %s\n",
			strings.Join(st.ChangedDomains, ", "))
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "No reboot required.")
}
