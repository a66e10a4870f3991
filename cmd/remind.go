package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var remindDescription string

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage reminders",
}

var remindAddCmd = &cobra.Command{
	Use:   "add <task> <when>",
	Short: `Add a reminder, e.g. valet remind add "stand up" "in 25 minutes"`,
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}
		r, err := container.Reminders().Add(args[0], remindDescription, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Reminder #%d set: %q at %s\n", r.ID, r.Task, r.FireAt)
		return nil
	},
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reminders",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}
		active, err := container.Reminders().Active()
		if err != nil {
			return err
		}
		if len(active) == 0 {
			fmt.Println("No pending reminders.")
			return nil
		}
		for _, r := range active {
			line := fmt.Sprintf("#%d  %s  %s", r.ID, r.FireAt, r.Task)
			if r.Description != "" {
				line += "  (" + r.Description + ")"
			}
			fmt.Println(strings.TrimSpace(line))
		}
		return nil
	},
}

var remindDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a reminder as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad reminder id %q", args[0])
		}
		container, err := buildContainer()
		if err != nil {
			return err
		}
		ok, err := container.Reminders().Complete(id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("No reminder with id %d.\n", id)
			return nil
		}
		fmt.Printf("Reminder #%d marked done.\n", id)
		return nil
	},
}

func init() {
	remindAddCmd.Flags().StringVarP(&remindDescription, "description", "d", "", "Extra details")
	remindCmd.AddCommand(remindAddCmd)
	remindCmd.AddCommand(remindListCmd)
	remindCmd.AddCommand(remindDoneCmd)
}
