package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [game-name...]",
	Short: "Watch saves and back them up automatically on change",
	Long: `Watch monitors discovered save directories and creates a backup
each time a save settles after changing. Without arguments every
discovered save is watched; with arguments, only saves whose names
contain one of the given texts.`,
	Example: `  saveguardian watch
  saveguardian watch "Stardew Valley" Witcher`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	steam, nonSteam, err := appClient.ScanAll()
	if err != nil && len(steam) == 0 && len(nonSteam) == 0 {
		return err
	}

	all := append(steam, nonSteam...)
	watcher, err := appClient.NewWatcher()
	if err != nil {
		return err
	}

	watched := 0
	for i := range all {
		if len(args) > 0 && !nameMatchesAny(all[i].Name, args) {
			continue
		}
		if err := watcher.Add(&all[i]); err != nil {
			printWarning("Cannot watch %s: %v", all[i].Name, err)
			continue
		}
		watched++
	}

	if watched == 0 {
		printWarning("Nothing to watch")
		return nil
	}

	printSuccess("Watching %d saves, press Ctrl-C to stop", watched)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		printWarning("\nStopping watch...")
		cancel()
	}()

	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func nameMatchesAny(name string, queries []string) bool {
	lowered := strings.ToLower(name)
	for _, q := range queries {
		if strings.Contains(lowered, strings.ToLower(q)) {
			return true
		}
	}
	return false
}
