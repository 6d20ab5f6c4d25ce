package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formprobe/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		props := buildinfo.Get()
		fmt.Printf("formprobe %s\n", props.Version)
		fmt.Printf("Built:  %s\n", props.BuildTime)
		fmt.Printf("Commit: %s\n", props.GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
