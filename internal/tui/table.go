package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppds/orchdash/internal/models"
)

type column struct {
	title string
	width int
	value func(r *models.SessionRecord) string
}

var columns = []column{
	{"ID", 14, func(r *models.SessionRecord) string { return r.ID }},
	{"ISSUE", 7, func(r *models.SessionRecord) string { return fmt.Sprintf("#%d", r.IssueNumber) }},
	{"STATUS", 11, func(r *models.SessionRecord) string { return r.Status }},
	{"BRANCH", 22, func(r *models.SessionRecord) string { return r.Branch }},
	{"CHANGES", 14, worktreeSummary},
	{"HEARTBEAT", 22, func(r *models.SessionRecord) string { return r.LastHeartbeat }},
	{"TITLE", 40, func(r *models.SessionRecord) string { return r.IssueTitle }},
}

func worktreeSummary(r *models.SessionRecord) string {
	ws := r.WorktreeStatus
	if ws == nil {
		return "-"
	}
	summary := fmt.Sprintf("%df +%d -%d", ws.FilesChanged, ws.Insertions, ws.Deletions)
	if ws.TestsPassing != nil {
		if *ws.TestsPassing {
			summary += " ✓"
		} else {
			summary += " ✗"
		}
	}
	return summary
}

// SortSessions orders records by issue number, then id.
func SortSessions(records []*models.SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IssueNumber != records[j].IssueNumber {
			return records[i].IssueNumber < records[j].IssueNumber
		}
		return records[i].ID < records[j].ID
	})
}

// RenderSessionTable renders records as a fixed-width table.
func RenderSessionTable(records []*models.SessionRecord) string {
	if len(records) == 0 {
		return MutedStyle.Render("No sessions.")
	}

	var b strings.Builder

	header := make([]string, 0, len(columns))
	for _, col := range columns {
		header = append(header, ColumnHeaderStyle.Width(col.width).Render(col.title))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")

	for _, r := range records {
		cells := make([]string, 0, len(columns))
		for _, col := range columns {
			value := truncate(col.value(r), col.width-1)
			style := lipgloss.NewStyle()
			if col.title == "STATUS" {
				style = StatusStyle(r.Status)
			}
			cells = append(cells, style.Width(col.width).Render(value))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")

		if r.StuckReason != nil && *r.StuckReason != "" {
			b.WriteString(ErrorStyle.Render("  ↳ stuck: " + *r.StuckReason))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
