package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/logging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracker state at a glance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ctx.openStore(logging.NewNop())
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.LoadState(cmd.Context())
			if err != nil {
				return err
			}

			resolved, sentinels := 0, 0
			for _, person := range st.Persons {
				if person.Resolved() {
					resolved++
				} else {
					sentinels++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Backend", "Persons", "Unmatched", "Upcoming", "Released", "Email", "Notion"},
				[][]string{{
					cfg.State.Backend,
					fmt.Sprint(resolved),
					fmt.Sprint(sentinels),
					fmt.Sprint(len(st.Upcoming)),
					fmt.Sprint(len(st.Released)),
					yesNo(cfg.Email.Enabled),
					yesNo(cfg.Notion.Enabled),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
