package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenote"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of voicenote",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "voicenote version %s\n", strings.TrimSpace(voicenote.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
