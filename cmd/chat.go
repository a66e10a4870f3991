package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emberhq/valet/internal/dependency"
)

var chatMessage string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	if chatMessage != "" {
		return runSingleMessage(container)
	}
	return runInteractive(container)
}

// runSingleMessage sends one message and prints the reply.
func runSingleMessage(container *dependency.Container) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container.Assistant().Bootstrap(ctx)
	reply, err := container.Assistant().Respond(ctx, chatMessage)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

// runInteractive starts the REPL: the scheduler runs in the background and
// fired reminders are printed between prompts.
func runInteractive(container *dependency.Container) error {
	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", logo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenForSignals(cancel)

	container.Assistant().Bootstrap(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.Scheduler().Start(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case n := <-container.Events().Notifications:
				fmt.Printf("\n🔔 Reminder: %s", n.Task)
				if n.Description != "" {
					fmt.Printf(" (%s)", n.Description)
				}
				fmt.Print("\nYou: ")
			}
		}
	})

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			break
		}

		reply, err := container.Assistant().Respond(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("Valet: %s\n\n", reply)
	}

	if err := container.Memory().Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save context: %v\n", err)
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// listenForSignals cancels the context on SIGINT or SIGTERM.
func listenForSignals(cancel context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		fmt.Println("\nGoodbye!")
		cancel()
	}()
}
