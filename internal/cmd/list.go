package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/sessions"
	"github.com/ppds/orchdash/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "📄 List current sessions",
	Long: `# 📄 List Sessions

**Print a snapshot of every valid session record.**

A table is printed on a terminal. When stdout is redirected, or with **--json**, the records are written as a JSON array.`,
	RunE: runList,
}

var listJSON bool

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Write records as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	configureLogging(cmd.ErrOrStderr())

	records := sessions.LoadAll(cfg.SessionsDir)
	asJSON := listJSON || !isTerminal(cmd.OutOrStdout())
	return writeSessions(cmd.OutOrStdout(), records, asJSON)
}

func writeSessions(out io.Writer, records []*models.SessionRecord, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	tui.SortSessions(records)
	_, err := fmt.Fprintln(out, tui.RenderSessionTable(records))
	return err
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
