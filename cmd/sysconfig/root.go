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
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "/etc/sysconfig/config.json"
	defaultStateDir   = "/var/lib/sysconfig"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	var stateDirFlag string

	ctx := newCommandContext(&configFlag, &stateDirFlag)

	rootCmd := &cobra.Command{
		Use:           "sysconfig",
		Short:         "Declarative boot configuration for kernel, grub and systemd",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&stateDirFlag, "state-dir", defaultStateDir, "Directory for the process lock")

	rootCmd.AddCommand(newApplyCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
