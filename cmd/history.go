package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shzx/internal/formatter"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/repositories"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a recorded run.
type runView struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Error     string        `json:"error,omitempty"`
	Report    models.Report `json:"report"`
}

func newRunView(run *models.Run) runView {
	return runView{ID: run.ID, CreatedAt: run.CreatedAt, Error: run.Error, Report: run.Report}
}

// ledger opens the run ledger, failing when persistence is disabled.
func (r *Runner) ledger() (*sql.DB, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%w: database.path is empty", shared.ErrMissingConfig)
	}
	return db, nil
}

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.ledger()
	if err != nil {
		return err
	}

	runs, err := repositories.NewRunRepository(db).List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}
	return r.writeBytes(formatter.RunsToText(runs, time.Now()))
}

// HistoryShow prints the full report of one run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := r.ledger()
	if err != nil {
		return err
	}

	run, err := repositories.NewRunRepository(db).Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: no run with id %s", shared.ErrInvalidArgument, id)
	} else if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newRunView(run), true)
	}
	if cmd.Bool("markdown") {
		return r.writeBytes(formatter.ReportToMarkdown(&run.Report))
	}

	r.writePlainHeader(fmt.Sprintf("Run %s", run.ID))
	r.writePlain("Recorded: %s\n", run.CreatedAt.Local().Format(time.DateTime))
	if run.Error != "" {
		r.writePlain("Error: %s\n", run.Error)
	}
	r.writePlain("\n")
	return r.writeBytes(formatter.ReportToText(&run.Report))
}

// HistoryDelete removes a recorded run.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := r.ledger()
	if err != nil {
		return err
	}

	err = repositories.NewRunRepository(db).Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: no run with id %s", shared.ErrInvalidArgument, id)
	} else if err != nil {
		return err
	}

	r.logger.Info("deleted run", "id", id)
	return r.writePlain("✓ Deleted run %s\n", id)
}
