package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/pkg/session"
)

// templatesCommand creates the templates command.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage session templates",
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesSaveCommand())
	cmd.AddCommand(c.templatesDeleteCommand())

	return cmd
}

// templatesListCommand creates the "templates list" subcommand.
func (c *CLI) templatesListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			list := ws.repo.Templates()
			if asJSON {
				return writeJSONTo(os.Stdout, list)
			}
			if len(list) == 0 {
				printInfo("No templates yet")
				printNextStep("Create one", `blurt templates save "Daily pages" --title "Morning pages" --duration 10m`)
				return nil
			}
			fmt.Println(templateTable(list))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")
	return cmd
}

// templatesSaveCommand creates the "templates save" subcommand.
func (c *CLI) templatesSaveCommand() *cobra.Command {
	var (
		id       string
		title    string
		prompt   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or update a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			t := session.Template{
				ID:                 id,
				Name:               args[0],
				TitleDefault:       orDefault(title, args[0]),
				PromptDefault:      prompt,
				DurationSecDefault: int(duration / time.Second),
			}
			saved, err := ws.repo.SaveTemplate(cmd.Context(), t)
			if err != nil {
				return err
			}
			printSuccess("Saved template %s", StyleValue.Render(saved.Name))
			printDetail("id %s", saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "update the template with this id")
	cmd.Flags().StringVar(&title, "title", "", "default session title (defaults to the name)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "default prompt")
	cmd.Flags().DurationVar(&duration, "duration", 0, "default session length (default 5m)")
	return cmd
}

// templatesDeleteCommand creates the "templates delete" subcommand.
func (c *CLI) templatesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.repo.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted template %s", args[0])
			return nil
		},
	}
}

// templateTable renders templates as a bordered table.
func templateTable(list []session.Template) string {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{
			t.ID,
			t.Name,
			t.TitleDefault,
			(time.Duration(t.DurationSecDefault) * time.Second).String(),
			strconv.Quote(t.PromptDefault),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Title", "Duration", "Prompt").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 || col == 4 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// writeJSONTo writes v as indented JSON.
func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
