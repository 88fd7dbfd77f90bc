package main

import "github.com/spf13/cobra"

var nodeCmd = &cobra.Command{Use: "node", Short: "Node introspection commands"}

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query node.status() (spec §6.1): identity, peer count, log cursor, uptime",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/node/status")
	},
}

func init() {
	nodeCmd.AddCommand(nodeStatusCmd)
}
