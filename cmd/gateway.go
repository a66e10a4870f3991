package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emberhq/valet/internal/config"
)

var gatewayPort int

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the WebSocket event feed and run the reminder scheduler",
	Args:  cobra.NoArgs,
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().IntVarP(&gatewayPort, "port", "p", 0, "Feed port (default from config)")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}
	container, err := buildContainer()
	if err != nil {
		return err
	}

	port := gatewayPort
	if port == 0 {
		port = cfg.Gateway.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenForSignals(cancel)

	container.Assistant().Bootstrap(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.Scheduler().Start(ctx) })
	g.Go(func() error { return container.Feed().Run(ctx, port) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
