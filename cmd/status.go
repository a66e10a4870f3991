package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhq/valet/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory, reminder, and capability status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	fmt.Printf("%s valet %s\n", logo, version)
	fmt.Printf("Data dir: %s\n\n", config.DataDir())

	st := container.Memory().Stats()
	fmt.Printf("Memory: session %s, %d turns this session, %d turns in history\n",
		st.SessionID, st.SessionTurns, container.Memory().HistoryLen())
	if st.LastInteraction != "" {
		fmt.Printf("Last interaction: %s\n", st.LastInteraction)
	}

	active, err := container.Reminders().Active()
	if err != nil {
		fmt.Printf("Reminders: unreadable (%v)\n", err)
	} else {
		fmt.Printf("Reminders: %d pending\n", len(active))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if container.Remote().HealthCheck(ctx) {
		fmt.Println("Remote capability server: reachable")
	} else {
		fmt.Println("Remote capability server: unreachable")
	}
	return nil
}
