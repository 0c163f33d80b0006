package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <text...>",
	Short: "Type text into the Claude Code pane",
	Long: `Resolve the Claude Code pane and type the given text into it.

Arguments are joined with single spaces. The text is sent literally, so key
names such as "Enter" are typed as words.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := getMultiplexer(cfg)
		if err != nil {
			return err
		}
		r, err := newRelay(cfg, m, nil, nil)
		if err != nil {
			return err
		}

		d, err := r.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("sent %d chars to %s\n", len(d.Text), d.Session)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
