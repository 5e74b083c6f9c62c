/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/seaward-capture/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously captured reports",
	Long: `Show the capture history recorded in the local database:
when each report was downloaded, from which meter, and where the CSV file
was saved.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.Open(viper.GetString("capture.history-db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		captures, err := store.Recent(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}

		if len(captures) == 0 {
			fmt.Println("No captures recorded yet")
			return
		}

		renderHistoryTable(captures)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of captures to show")
}

// renderHistoryTable renders the capture list in a styled static table format
func renderHistoryTable(captures []history.Capture) {
	fmt.Printf("Showing %d capture(s):\n\n", len(captures))

	timeWidth := 20
	serialWidth := 12
	readingsWidth := 9
	pathWidth := 40

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		timeWidth, "Captured",
		serialWidth, "Meter",
		readingsWidth, "Readings",
		pathWidth, "File")
	fmt.Println(headerStyle.Render(header))

	for _, c := range captures {
		row := fmt.Sprintf("%-*s %-*s %-*d %-*s",
			timeWidth, c.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			serialWidth, c.MeterSerial,
			readingsWidth, c.Readings,
			pathWidth, c.Path)
		fmt.Println(cellStyle.Render(row))
	}
}
