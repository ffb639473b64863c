package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/pkg/session"
)

// sessionsCommand creates the sessions command.
func (c *CLI) sessionsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List sessions, most recent activity first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			list := ws.repo.Sessions()
			if asJSON {
				return writeJSONTo(os.Stdout, list)
			}
			if len(list) == 0 {
				printInfo("No sessions yet")
				printNextStep("Start one", "blurt start <title>")
				return nil
			}
			fmt.Println(sessionTable(list, time.Now()))
			if ws.repo.OfflineReadOnly() {
				printWarning("Offline: showing cached sessions")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print sessions as JSON")

	cmd.AddCommand(c.sessionsShowCommand())
	return cmd
}

// sessionsShowCommand creates the "sessions show" subcommand.
func (c *CLI) sessionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session and its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			sess, err := ws.repo.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(sess.Title))
			if sess.Prompt != "" {
				printKeyValue("Prompt", sess.Prompt)
			}
			printKeyValue("Status", sessionStatus(*sess))
			printKeyValue("Started", time.UnixMilli(sess.StartedAtMs).Format("Jan 2, 2006 15:04"))
			printKeyValue("Duration", (time.Duration(sess.DurationSec) * time.Second).String())
			printKeyValue("Remaining", sess.FormatRemaining(time.Now()))
			printSummary(sess.Summary())
			for _, n := range sess.Notes {
				printDetail("%s", n.Text)
			}
			return nil
		},
	}
}

// sessionTable renders sessions as a bordered table.
func sessionTable(list []session.Session, now time.Time) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.ID,
			s.Title,
			strconv.Itoa(len(s.Notes)),
			formatRelativeTime(time.UnixMilli(s.SortKey()), now),
			sessionStatus(s),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Notes", "Active", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// formatRelativeTime renders t relative to now.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
