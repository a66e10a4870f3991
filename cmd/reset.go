package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all remembered context and learned preferences",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip confirmation")
}

func runReset(_ *cobra.Command, _ []string) error {
	if !resetYes {
		fmt.Print("This erases all conversation memory and preferences. Type 'yes' to continue: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	container, err := buildContainer()
	if err != nil {
		return err
	}
	if err := container.Memory().ResetAll(); err != nil {
		return err
	}
	fmt.Println("Memory reset. The assistant starts cold on the next run.")
	return nil
}
