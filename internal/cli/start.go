package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/session"
)

// saveDrainTimeout bounds how long quitting waits for pending saves.
const saveDrainTimeout = 5 * time.Second

type startOptions struct {
	prompt   string
	duration time.Duration
	template string
	resume   string
	latest   bool
	reduced  bool
}

// startCommand creates the start command.
func (c *CLI) startCommand() *cobra.Command {
	var opts startOptions

	cmd := &cobra.Command{
		Use:   "start [title]",
		Short: "Start a timed blurt session on the terminal board",
		Long: `Start a timed free-writing session.

Type a thought and press enter to throw it onto the board. Drag notes with
the mouse; when the timer runs out the board is packed into a grid and the
session summary is shown. Use --resume or --latest to reopen a session.`,
		Example: `  blurt start "Product ideas" --prompt "What would delight users?" --duration 10m
  blurt start --template retro
  blurt start --latest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			return c.runStart(cmd, title, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "prompt shown above the board")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "session length (default from config, 5m)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "start from a template id or name")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "reopen the session with this id")
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "reopen the most recently active session")
	cmd.Flags().BoolVar(&opts.reduced, "reduced-motion", false, "apply changes without animation")
	cmd.MarkFlagsMutuallyExclusive("resume", "latest", "template")

	return cmd
}

func (c *CLI) runStart(cmd *cobra.Command, title string, opts startOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	sess, err := c.resolveSession(cmd, ws.repo, title, opts)
	if err != nil {
		return err
	}

	saver := session.NewSaver(ws.repo.SaveSession, session.WithSaverLogger(logger))
	model, err := newBoardModel(ctx, *sess, boardModelOptions{
		ReducedMotion: opts.reduced || c.cfg.Board.ReducedMotion,
		Save:          saver.Save,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	model.board.SetCanvasSize(c.cfg.Canvas())

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	_, runErr := p.Run()
	if err := saver.Close(saveDrainTimeout); err != nil {
		logger.Warn("some changes were not saved", "err", err)
	}
	if runErr != nil {
		return runErr
	}

	final := model.board.Session()
	printSuccess("%s %s", StyleValue.Render(final.Title), sessionStatus(final))
	printSummary(final.Summary())
	printDetail("id %s", final.ID)
	if final.IsFinished() {
		printNextStep("Export the board", fmt.Sprintf("blurt export %s --format png", final.ID))
	} else {
		printNextStep("Continue later", fmt.Sprintf("blurt start --resume %s", final.ID))
	}
	return nil
}

// resolveSession picks the session to open: an existing one for --resume
// and --latest, otherwise a new session seeded from flags, a template and
// the config defaults.
func (c *CLI) resolveSession(cmd *cobra.Command, repo *session.Repository, title string, opts startOptions) (*session.Session, error) {
	ctx := cmd.Context()

	switch {
	case opts.resume != "":
		return repo.GetSession(ctx, opts.resume)
	case opts.latest:
		latest, ok := repo.Latest()
		if !ok {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "no sessions yet; run blurt start <title>")
		}
		return &latest, nil
	}

	prompt := opts.prompt
	durationSec := int(opts.duration / time.Second)
	if opts.template != "" {
		t, err := findTemplate(repo.Templates(), opts.template)
		if err != nil {
			return nil, err
		}
		title = orDefault(title, t.TitleDefault)
		prompt = orDefault(prompt, t.PromptDefault)
		if durationSec == 0 {
			durationSec = t.DurationSecDefault
		}
	}
	if durationSec == 0 {
		durationSec = c.cfg.Board.DefaultDurationSec
	}
	if strings.TrimSpace(title) == "" {
		title = "Blurt " + time.Now().Format("Jan 2 15:04")
	}

	sess, err := repo.StartSession(ctx, title, prompt, durationSec)
	if err != nil && sess != nil {
		// The session runs; later saves may still succeed.
		loggerFromContext(ctx).Warn("session not saved yet", "err", err)
		return sess, nil
	}
	return sess, err
}

// findTemplate matches a template by id, then by case-insensitive name.
func findTemplate(templates []session.Template, ref string) (session.Template, error) {
	for _, t := range templates {
		if t.ID == ref {
			return t, nil
		}
	}
	for _, t := range templates {
		if strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return session.Template{}, errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", ref)
}

// orDefault returns a if it is not blank, else b.
func orDefault(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
