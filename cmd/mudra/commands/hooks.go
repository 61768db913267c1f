package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/hook"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "List hooks discovered in the hook directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, func(cmd *cobra.Command, c *config.Config) {
				setString(cmd.Flags(), "hooks", &c.HookDir)
			})
			if err != nil {
				return err
			}

			m := hook.NewManager(cfg.HookDir)
			if err := m.Discover(); err != nil {
				return fmt.Errorf("discover hooks in %s: %w", cfg.HookDir, err)
			}

			out := cmd.OutOrStdout()
			hooks := m.List()
			if len(hooks) == 0 {
				fmt.Fprintf(out, "No hooks in %s.\n", cfg.HookDir)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tEVENTS\tDESCRIPTION")
			for _, h := range hooks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					h.Manifest.Name, h.Manifest.Version, strings.Join(h.Manifest.Gestures, ","), h.Manifest.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("hooks", "", "Hook directory")
	return cmd
}
