package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/glebglazov/vibe-coding-done-right/internal/config"
	"github.com/glebglazov/vibe-coding-done-right/internal/match"
	"github.com/glebglazov/vibe-coding-done-right/internal/model"
	"github.com/glebglazov/vibe-coding-done-right/internal/procs"
)

var flagSession string

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	assistantStyle = cellStyle.Foreground(lipgloss.Color("#7fd88f"))
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#484848"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List panes and mark the ones running the assistant",
	Long: `List terminal multiplexer panes with their title, shell PID and focus.

Panes whose title or process tree matches an assistant name are marked.
Restrict the listing to one session with --session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := getMultiplexer(cfg)
		if err != nil {
			return err
		}

		panes, err := m.ListPanes(cmd.Context(), flagSession)
		if err != nil {
			return fmt.Errorf("failed to list panes: %w", err)
		}
		if len(panes) == 0 {
			fmt.Println("no panes")
			return nil
		}

		marks := assistantMarks(cmd.Context(), cfg, panes)
		fmt.Println(paneTable(panes, marks))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&flagSession, "session", "", "only list panes of this session")
	rootCmd.AddCommand(listCmd)
}

// assistantMarks returns the match signal for every pane that runs the
// assistant, keyed by target.
func assistantMarks(ctx context.Context, cfg *config.Config, panes []model.Pane) map[string]model.MatchKind {
	matcher := match.New(cfg.AssistantNames, selfName())
	tbl, err := procs.PS{}.Snapshot(ctx)
	if err != nil {
		slog.Warn("process listing failed, marking by title only", "err", err)
	}

	marks := make(map[string]model.MatchKind)
	for _, p := range panes {
		switch {
		case matcher.Title(p.Title):
			marks[p.Target] = model.MatchTitle
		case matcher.Command(p.Command):
			marks[p.Target] = model.MatchProcess
		case tbl != nil:
			if _, ok := tbl.Find(p.PID, cfg.ProcessDepth, matcher.Command); ok {
				marks[p.Target] = model.MatchProcess
			}
		}
	}
	return marks
}

func paneTable(panes []model.Pane, marks map[string]model.MatchKind) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("TARGET", "PID", "COMMAND", "TITLE", "ACTIVE", "ASSISTANT")

	for _, p := range panes {
		active := ""
		if p.Active {
			active = "*"
		}
		t.Row(p.Target, strconv.Itoa(p.PID), p.Command, p.Title, active, string(marks[p.Target]))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row >= 0 && row < len(panes) && marks[panes[row].Target] != "":
			return assistantStyle
		default:
			return cellStyle
		}
	})
	return t.Render()
}
