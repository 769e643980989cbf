package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of convert-relay",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("convert-relay %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
