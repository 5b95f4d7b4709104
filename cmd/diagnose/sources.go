package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"threatfeed/internal/config"
	"threatfeed/internal/domain/entity"
)

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured feed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			asJSON, _ := cmd.Flags().GetBool("json")

			sources, err := config.LoadFeeds(path)
			if err != nil {
				return err
			}
			return printSources(cmd.OutOrStdout(), sources, asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func printSources(w io.Writer, sources []entity.FeedSource, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sources)
	}

	fmt.Fprintf(w, "%d feed sources configured:\n", len(sources))
	for i, s := range sources {
		fmt.Fprintf(w, "  %2d. %-24s %s\n", i+1, s.Name, s.URL)
	}
	return nil
}
