package notion

import (
	"context"

	"marquee/internal/logging"
	"marquee/internal/reconcile"
)

// Publish mirrors one run's delta into the databases: missing persons
// are created, newly added projects land in the upcoming database, and
// graduated projects are recreated in the released database before
// their upcoming page is archived. Individual page failures are logged
// and counted, not fatal; the databases are a projection of local state
// and the next run converges them.
func (c *Client) Publish(ctx context.Context, result *reconcile.Result) (failures int, err error) {
	existingPersons, err := c.ListPersons(ctx)
	if err != nil {
		return 0, err
	}
	knownPersons := make(map[string]struct{}, len(existingPersons))
	for _, person := range existingPersons {
		if person.TMDBID != "" {
			knownPersons[person.TMDBID] = struct{}{}
		}
	}

	for _, person := range result.UpdatedPersons {
		if _, ok := knownPersons[person.TMDBID]; ok || !person.Resolved() {
			continue
		}
		if err := c.AddPerson(ctx, person); err != nil {
			failures++
			c.logger.Warn("failed to add person page",
				logging.String(logging.FieldPerson, person.Name),
				logging.Error(err))
			continue
		}
		knownPersons[person.TMDBID] = struct{}{}
	}

	for _, project := range result.NewlyAdded {
		if err := c.AddProject(ctx, DatabaseUpcoming, project); err != nil {
			failures++
			c.logger.Warn("failed to add upcoming project page",
				logging.String(logging.FieldProjectID, project.TMDBID),
				logging.String("title", project.Title),
				logging.Error(err))
		}
	}

	if len(result.NewlyReleased) == 0 {
		return failures, nil
	}

	upcomingPages, err := c.ListProjects(ctx, DatabaseUpcoming)
	if err != nil {
		return failures, err
	}
	pageByTMDBID := make(map[string]string, len(upcomingPages))
	for _, page := range upcomingPages {
		pageByTMDBID[page.TMDBID] = page.PageID
	}

	for _, project := range result.NewlyReleased {
		if err := c.AddProject(ctx, DatabaseReleased, project); err != nil {
			failures++
			c.logger.Warn("failed to add released project page",
				logging.String(logging.FieldProjectID, project.TMDBID),
				logging.String("title", project.Title),
				logging.Error(err))
			continue
		}
		pageID, ok := pageByTMDBID[project.TMDBID]
		if !ok {
			continue
		}
		if err := c.ArchivePage(ctx, pageID); err != nil {
			failures++
			c.logger.Warn("failed to archive graduated project page",
				logging.String(logging.FieldProjectID, project.TMDBID),
				logging.Error(err))
		}
	}
	return failures, nil
}
