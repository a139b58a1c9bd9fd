package cmd

import (
	"fmt"

	"github.com/els0r/alertpcap/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of alertpcap",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("alertpcap\n%s", version.Version())
		},
	}
}
