package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/logging"
)

func newPeopleCommand(ctx *commandContext) *cobra.Command {
	peopleCmd := &cobra.Command{
		Use:   "people",
		Short: "Inspect tracked directors and actors",
	}
	peopleCmd.AddCommand(newPeopleListCommand(ctx))
	return peopleCmd
}

func newPeopleListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tracked person",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(logging.NewNop())
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.LoadState(cmd.Context())
			if err != nil {
				return err
			}

			if len(st.Persons) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tracked persons yet; run `marquee run` first.")
				return nil
			}

			rows := make([][]string, 0, len(st.Persons))
			for _, person := range sortedPersons(st.Persons) {
				rows = append(rows, []string{
					person.Name,
					roleLabel(person),
					orDash(person.TMDBID),
					orDash(person.IMDBID),
					fmt.Sprint(len(person.Projects)),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Roles", "TMDB", "IMDB", "Projects"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}
