package main

import (
	"fmt"
	"io"
	"strings"

	app "github.com/etitcombe/todopom"

	"github.com/spf13/cobra"
)

func newAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.controller(cmd)
			if err != nil {
				return err
			}
			t, err := c.AddTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}
}

func newDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "done ID",
		Aliases: []string{"toggle"},
		Short:   "Mark a task complete, or incomplete again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.controller(cmd)
			if err != nil {
				return err
			}
			return c.ToggleComplete(cmd.Context(), args[0])
		},
	}
}

func newRmCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.controller(cmd)
			if err != nil {
				return err
			}
			return c.RemoveTask(cmd.Context(), args[0])
		},
	}
}

func newLsCmd(a *App) *cobra.Command {
	var completed, all bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the tasks still to do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.controller(cmd)
			if err != nil {
				return err
			}
			var tasks []app.Task
			switch {
			case all:
				tasks = c.Tasks()
			case completed:
				tasks = c.Completed()
			default:
				tasks = c.Pending()
			}
			printTasks(cmd.OutOrStdout(), tasks, completed && !all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "List completed tasks")
	cmd.Flags().BoolVar(&all, "all", false, "List every task")
	return cmd
}

func printTasks(w io.Writer, tasks []app.Task, completedView bool) {
	if len(tasks) == 0 {
		if completedView {
			fmt.Fprintln(w, "There is no completed task")
		} else {
			fmt.Fprintln(w, "There is no task/All task completed")
		}
		return
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s  %s\n", mark, t.ID, t.Text)
	}
}
