package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"audiogate-backend/lib/serviceutil"
)

var searchPage *int

func init() {
	searchPage = searchCmd.Flags().Int("page", 0, "The results page to fetch.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query> [--page <n>]",
	Short: "Searches for audio tracks and prints the results page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		engine := createEngine(cmd.Context(), cfg)

		key, items, err := engine.Search(cmd.Context(), args[0], *searchPage)
		if err != nil {
			serviceutil.Fatal("search failed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Artist", "Title", "Duration", "Id"})
		for i, item := range items {
			duration := (time.Duration(item.Duration) * time.Second).String()
			t.AppendRow(table.Row{i, item.Artist, item.Title, duration, item.Id})
		}
		t.Render()

		fmt.Println("result key:", key)
	},
}
