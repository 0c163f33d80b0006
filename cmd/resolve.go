package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which pane would receive dictated text",
	Long: `Resolve the Claude Code pane in the most recently used tmux session.

Prints the pane target and how it was identified. Exits non-zero when no
assistant pane is found.`,
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

		res, err := newResolver(cfg, m, nil).Resolve(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Println(res)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&flagJSON, "json", false, "print the resolution as JSON")
	rootCmd.AddCommand(resolveCmd)
}
