package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/logging"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect tracked film projects",
	}
	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	var released bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming projects (or released ones with --released)",
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

			source := st.Upcoming
			label := "upcoming"
			if released {
				source = st.Released
				label = "released"
			}
			if len(source) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s projects tracked.\n", label)
				return nil
			}

			rows := make([][]string, 0, len(source))
			for _, project := range sortedProjects(source) {
				names := make([]string, 0, len(project.AssociatedPeople))
				for _, key := range project.AssociatedPeople {
					if person, ok := st.Persons[key]; ok {
						names = append(names, person.Name)
					} else {
						names = append(names, key)
					}
				}
				rows = append(rows, []string{
					project.TMDBID,
					project.Title,
					orDash(project.ReleaseDate),
					fmt.Sprintf("%.1f", project.Popularity),
					strings.Join(names, ", "),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Release", "Popularity", "People"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&released, "released", false, "List released projects instead of upcoming ones")
	return cmd
}
