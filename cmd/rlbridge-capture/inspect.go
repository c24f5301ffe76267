// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/rlbridge/capture"
	"github.com/bureau-foundation/rlbridge/lib/logging"
)

func runInspect(args []string) error {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: rlbridge-capture inspect FILE")
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	summary, err := capture.Summarize(file)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	writeSummary(os.Stdout, args[0], summary, logging.IsTerminal(os.Stdout))
	return nil
}

// summaryRows returns the label/value pairs shown by inspect.
func summaryRows(summary capture.Summary) [][2]string {
	var codecs []string
	for _, compression := range []capture.Compression{capture.CompressionNone, capture.CompressionLZ4, capture.CompressionZstd} {
		if count := summary.Compressed[compression]; count > 0 {
			codecs = append(codecs, fmt.Sprintf("%s=%d", compression, count))
		}
	}
	if len(codecs) == 0 {
		codecs = append(codecs, "-")
	}

	return [][2]string{
		{"format", summary.Header.Format},
		{"run", summary.Header.RunID},
		{"address", summary.Header.Address},
		{"created", summary.Header.CreatedAt.UTC().Format("2006-01-02 15:04:05Z")},
		{"records", fmt.Sprintf("%d (%d duplicate frames)", summary.Records, summary.DuplicateFrames)},
		{"frame", fmt.Sprintf("%dx%d", summary.Width, summary.Height)},
		{"bytes", fmt.Sprintf("%d raw, %d stored, ratio %.2f", summary.RawBytes, summary.StoredBytes, summary.Ratio())},
		{"codecs", strings.Join(codecs, " ")},
		{"experience", fmt.Sprintf("%d -> %d", summary.First.TotalExperience, summary.Last.TotalExperience)},
		{"levels", fmt.Sprintf("%d -> %d", summary.First.TotalLevels, summary.Last.TotalLevels)},
		{"reward", fmt.Sprintf("%.2f", summary.TotalReward)},
	}
}

// writeSummary prints the summary as aligned label/value lines, styled
// when styled is set.
func writeSummary(w io.Writer, path string, summary capture.Summary, styled bool) {
	rows := summaryRows(summary)
	if !styled {
		fmt.Fprintf(w, "%s\n", path)
		for _, row := range rows {
			fmt.Fprintf(w, "  %-11s %s\n", row[0], row[1])
		}
		return
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle := lipgloss.NewStyle().Width(11).Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle()
	rewardStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	lines := []string{titleStyle.Render(path)}
	for _, row := range rows {
		style := valueStyle
		if row[0] == "reward" {
			style = rewardStyle
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), " ", style.Render(row[1])))
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	fmt.Fprintln(w, box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
