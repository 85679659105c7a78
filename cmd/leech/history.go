package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/diffgen"
	"github.com/untoldecay/leech/internal/termui"
)

var (
	historyFrom string
	historyTo   string
)

var historyCmd = &cobra.Command{
	Use:   "history <primary-key>",
	Short: "Show every insert/update/delete recorded for a primary key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		from, err := parseWhen(historyFrom, 0)
		if err != nil {
			return fmt.Errorf("history: parsing --from: %w", err)
		}
		to, err := parseWhen(historyTo, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("history: parsing --to: %w", err)
		}

		entries, err := diffgen.History(store, args[0], from, to)
		if err != nil {
			return err
		}
		printHistory(entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "only show entries at or after this time (natural language or unix seconds)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "only show entries at or before this time (natural language or unix seconds)")
	rootCmd.AddCommand(historyCmd)
}

// parseWhen resolves s to a unix timestamp, accepting a plain integer or a
// natural-language phrase ("3 days ago"). An empty s yields fallback.
func parseWhen(s string, fallback int64) (int64, error) {
	if s == "" {
		return fallback, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, time.Now())
	if err != nil {
		return 0, err
	}
	if r == nil {
		return 0, fmt.Errorf("could not understand %q as a time", s)
	}
	return r.Time.Unix(), nil
}

func historyStyles() (header, cell lipgloss.Style) {
	header = lipgloss.NewStyle().Padding(0, 1)
	cell = lipgloss.NewStyle().Padding(0, 1)
	if termui.ShouldUseColor() {
		header = header.Bold(true)
	}
	return header, cell
}

func printHistory(entries []diffgen.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Println("no history found")
		return
	}
	header, cell := historyStyles()
	valueWidth := termui.Width() - 48
	if valueWidth < 8 {
		valueWidth = 8
	}
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
		header.Render("TIMESTAMP"),
		header.Render("TABLE"),
		header.Render("OP"),
		header.Render("BLOCK"),
		header.Width(valueWidth).Render("VALUE"),
	))
	for _, e := range entries {
		ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
		val := e.Value
		if len(val) > valueWidth && valueWidth > 1 {
			val = val[:valueWidth-1] + "…"
		}
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			cell.Render(ts),
			cell.Render(e.TableID),
			cell.Render(e.Op),
			cell.Render(e.BlockID[:12]),
			cell.Render(val),
		))
	}
}
