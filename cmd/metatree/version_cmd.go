package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of metatree",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("metatree %s\n", version)
		},
	}
}
