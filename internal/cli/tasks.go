package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/model"
)

func (a *App) taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Track advance and show-day tasks"}

	var t model.Task
	var priority, tourRef, showRef string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Title = args[0]
			t.Priority = model.TaskPriority(priority)
			if showRef != "" {
				tour, sh, err := a.findShow(showRef)
				if err != nil {
					return err
				}
				t.TourID, t.ShowID = tour.ID, sh.ID
			} else if tourRef != "" {
				id, err := a.tourID(tourRef)
				if err != nil {
					return err
				}
				t.TourID = id
			}
			out, err := a.store.AddTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { fmt.Fprintf(w, "added task %s\t%s\n", shortID(out.ID), out.Title) })
		},
	}
	add.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	add.Flags().StringVar(&t.DueDate, "due", "", "due date (YYYY-MM-DD)")
	add.Flags().StringVar(&tourRef, "tour", "", "")
	add.Flags().StringVar(&showRef, "show", "", "")

	var status string
	var open bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []model.Task
			for _, t := range a.store.Snapshot().Tasks {
				if status != "" && string(t.Status) != status {
					continue
				}
				if open && t.Status == model.TaskDone {
					continue
				}
				tasks = append(tasks, t)
			}
			return a.emit(tasks, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE")
				for _, t := range tasks {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.Title, t.Status, t.Priority, orDash(t.DueDate))
				}
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "todo, in_progress or done")
	list.Flags().BoolVar(&open, "open", false, "hide finished tasks")

	done := &cobra.Command{
		Use:   "done <task>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.taskID(args[0])
			if err != nil {
				return err
			}
			st := model.TaskDone
			out, err := a.store.UpdateTask(cmd.Context(), id, model.TaskPatch{Status: &st})
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { fmt.Fprintf(w, "done: %s\n", out.Title) })
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.taskID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted task %s\n", shortID(id))
			return nil
		},
	}

	cmd.AddCommand(add, list, done, rm)
	return cmd
}
