package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"samsonjenkins/internal/jenkinsjob"
	"samsonjenkins/internal/storage"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <record-id>",
		Short: "Show the Jenkins status of a job run",
		Long: `Look up a recorded job run and ask Jenkins for the current state of its build.

Examples:
  # Show the status of record 12
  samsonjenkins status 12

  # Show it as JSON
  samsonjenkins status 12 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runStatus,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid record id %q", args[0])
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.store.GetJobRun(cmd.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("job run %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("lookup job run: %w", err)
	}

	report, err := jenkinsjob.Lookup(cmd.Context(), a.ci, *run)
	if err != nil {
		return fmt.Errorf("fetch build status: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(cmd.OutOrStdout(), report)
}

func printReport(out io.Writer, r jenkinsjob.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Job:\t%s\n", r.Name)
	fmt.Fprintf(w, "Deploy:\t%d\n", r.DeployID)
	if r.JenkinsID == nil {
		fmt.Fprintf(w, "Status:\t%s\n", r.Status)
		fmt.Fprintf(w, "Error:\t%s\n", r.Error)
		return w.Flush()
	}
	fmt.Fprintf(w, "Build:\t#%d\n", *r.JenkinsID)
	result := r.Result
	if r.Building {
		result = "BUILDING"
	}
	fmt.Fprintf(w, "Result:\t%s\n", result)
	fmt.Fprintf(w, "URL:\t%s\n", r.URL)
	return w.Flush()
}
