package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/campaignmesh/config"
	"github.com/hupe1980/campaignmesh/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored conversations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		titles, err := loadTitles(cmd, cfg)
		if err != nil {
			return err
		}

		if len(titles) == 0 {
			cmd.Println("No stored conversations.")
			return nil
		}

		for _, id := range titles.IDs() {
			title := color.New(color.Faint).Sprint("(untitled)")
			if t := titles[id]; t != nil {
				title = *t
			}
			cmd.Printf("%s  %s\n", color.CyanString(id), title)
		}

		return nil
	},
}

// loadTitles reads the index straight from the store; no model is needed.
func loadTitles(cmd *cobra.Command, cfg *config.Config) (session.Titles, error) {
	store, err := openStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	titles, err := store.LoadIndex(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	return titles, nil
}
