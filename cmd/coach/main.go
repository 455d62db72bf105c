package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath     string
		demoCompletion string
	)

	root := &cobra.Command{
		Use:   "coach",
		Short: "Proactive sales assistant widget",
		Long: "Coach hosts the proactive assistant widget in the terminal:\n" +
			"server-ranked suggestions, usage stats, and assistant settings,\n" +
			"kept in sync with the remote store in the background.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWidget(configPath, demoCompletion)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default "+config.DefaultPath()+")")
	root.Flags().StringVar(&demoCompletion, "demo-completion", "",
		"open a completion prompt of the given type on startup (for manual checks)")
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", color.CyanString("coach"), version)
		},
	}
}

func runWidget(configPath, demoCompletion string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	container, err := buildContainer(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container.Engine.Start(ctx)
	defer container.Shutdown()

	p := tea.NewProgram(newWidgetModel(ctx, container), tea.WithAltScreen())
	if demoCompletion != "" {
		go p.Send(completionMsg{
			completionType: coach.CompletionType(demoCompletion),
			context:        map[string]any{"source": "demo"},
		})
	}

	_, err = p.Run()
	return err
}
