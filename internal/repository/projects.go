package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/pg"
	"github.com/qalam-studio/qalam/svc/redo"
)

var runCountColumns = map[redo.Tab]string{
	redo.TabResearch: "research_run_count",
	redo.TabScripts:  "scripts_run_count",
	redo.TabBroll:    "broll_run_count",
	redo.TabPrompts:  "prompts_run_count",
	redo.TabArticle:  "article_run_count",
	redo.TabSimplify: "simplify_run_count",
}

func runCountColumn(tab redo.Tab) (string, error) {
	col, ok := runCountColumns[tab]
	if !ok {
		return "", fmt.Errorf("%w: %q", redo.ErrUnknownTab, tab)
	}
	return col, nil
}

// Projects implements redo.Store.
type Projects struct {
	base
}

func (r *Projects) GetRunCount(ctx context.Context, projectID uuid.UUID, tab redo.Tab) (redo.ProjectRuns, error) {
	col, err := runCountColumn(tab)
	if err != nil {
		return redo.ProjectRuns{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var runs redo.ProjectRuns
	err = r.db.QueryRow(ctx, `SELECT user_id, `+col+` FROM projects WHERE id = $1`, projectID).
		Scan(&runs.UserID, &runs.Count)
	if pg.IsNotFoundError(err) {
		return redo.ProjectRuns{}, redo.ErrProjectNotFound
	}
	if err != nil {
		return redo.ProjectRuns{}, fmt.Errorf("get %s: %w", col, err)
	}
	return runs, nil
}

func (r *Projects) IncrementRunCount(ctx context.Context, projectID uuid.UUID, tab redo.Tab) (int, error) {
	col, err := runCountColumn(tab)
	if err != nil {
		return 0, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var count int
	err = r.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE projects SET %[1]s = %[1]s + 1 WHERE id = $1 RETURNING %[1]s`, col),
		projectID).Scan(&count)
	if pg.IsNotFoundError(err) {
		return 0, redo.ErrProjectNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", col, err)
	}
	return count, nil
}
