package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Inspect the capability surface",
}

var capabilitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List everything the assistant can do right now",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		container.Assistant().Bootstrap(ctx)

		fmt.Println(container.Assistant().StatusReport())
		return nil
	},
}

var capabilitiesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-run remote capability discovery",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		fmt.Println(container.Assistant().RefreshCapabilities(ctx))
		return nil
	},
}

func init() {
	capabilitiesCmd.AddCommand(capabilitiesListCmd)
	capabilitiesCmd.AddCommand(capabilitiesRefreshCmd)
}
