package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/app"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

// Repairs the persisted rollup columns that the rollup audit only
// reports on: milestone actual_cost is re-derived from weekly updates,
// project budget_spent from milestone costs plus standalone expenses.

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var projects idList
	var dryRun bool
	var limit int
	flag.Var(&projects, "project", "project_id to backfill (repeatable; default all)")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned repairs without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of projects processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	var rows []*types.Project
	if len(projects) > 0 {
		ids := make([]uuid.UUID, 0, len(projects))
		for _, s := range projects {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid project_id values provided")
			return
		}
		rows, err = application.Repos.Projects.GetByIDs(dbc, ids)
	} else {
		rows, err = application.Repos.Projects.ListForAudit(dbc, limit)
	}
	if err != nil {
		fmt.Printf("load projects: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	milestonesFixed := 0
	projectsFixed := 0
	for _, project := range rows {
		if project == nil || project.ID == uuid.Nil {
			continue
		}
		milestones, err := application.Repos.Milestones.ListByProject(dbc, project.ID)
		if err != nil {
			fmt.Printf("project %s: load milestones: %v\n", project.ID, err)
			continue
		}

		var milestoneSum float64
		for _, m := range milestones {
			derived, err := application.Repos.WeeklyUpdates.SumTotalByMilestone(dbc, m.ID)
			if err != nil {
				fmt.Printf("milestone %s: sum weekly updates: %v\n", m.ID, err)
				continue
			}
			milestoneSum += derived
			if math.Abs(derived-m.ActualCost) <= 0.01 {
				continue
			}
			fmt.Printf("milestone %s: actual_cost %.2f -> %.2f\n", m.ID, m.ActualCost, derived)
			milestonesFixed++
			if dryRun {
				continue
			}
			if err := application.Repos.Milestones.UpdateFields(dbc, m.ID, map[string]interface{}{
				"actual_cost": derived,
			}); err != nil {
				fmt.Printf("milestone %s: write actual_cost: %v\n", m.ID, err)
			}
		}

		expenses, err := application.Repos.Expenses.SumByProject(dbc, project.ID)
		if err != nil {
			fmt.Printf("project %s: sum expenses: %v\n", project.ID, err)
			continue
		}
		derivedSpent := math.Round((milestoneSum+expenses)*100) / 100
		if math.Abs(derivedSpent-project.BudgetSpent) <= 0.01 {
			continue
		}
		fmt.Printf("project %s: budget_spent %.2f -> %.2f\n", project.ID, project.BudgetSpent, derivedSpent)
		projectsFixed++
		if dryRun {
			continue
		}
		if err := application.Repos.Projects.UpdateFields(dbc, project.ID, map[string]interface{}{
			"budget_spent": derivedSpent,
		}); err != nil {
			fmt.Printf("project %s: write budget_spent: %v\n", project.ID, err)
		}
	}

	mode := "repaired"
	if dryRun {
		mode = "would repair"
	}
	fmt.Printf("%s %d milestone(s), %d project(s) across %d project(s) scanned\n",
		mode, milestonesFixed, projectsFixed, len(rows))
}
