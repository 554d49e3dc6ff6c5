package main

import (
	"fmt"
	"time"

	"hive/pkg/client"
	"hive/pkg/decode"
	"hive/pkg/history"
	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// directTimeout bounds pass-through tasks; reasoning tasks get the client's
// default budget.
const directTimeout = 120 * time.Second

// dispatch executes one routed task, records it in the dispatch history,
// and prints the rendered result. A failed task prints its error text and
// returns a non-nil error so the process exits non-zero.
func dispatch(cmd *cobra.Command, hive *client.Hive, worker, task string, mode routing.Mode, opts client.ExecuteOptions) error {
	if opts.Timeout == 0 && mode == routing.ModeDirect {
		opts.Timeout = directTimeout
	}

	res, err := hive.Execute(cmd.Context(), worker, task, opts)
	if err != nil {
		return err
	}

	recordDispatch(cmd, history.Dispatch{
		Worker:  worker,
		Mode:    string(mode),
		Task:    task,
		Success: res.Success,
		Result:  res.Result,
		Elapsed: res.ExecutionTime,
	})

	fmt.Fprintln(cmd.OutOrStdout(), decode.RenderPlain(decode.DecodeResult(res.Result)))
	if !res.Success {
		return fmt.Errorf("task failed on %s", worker)
	}
	return nil
}

// recordDispatch appends to the history database. History is best-effort:
// a broken database must never block task execution, so failures only warn.
func recordDispatch(cmd *cobra.Command, d history.Dispatch) {
	path := history.DefaultPath()
	if path == "" {
		return
	}
	log, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: dispatch history unavailable: %v\n", err)
		return
	}
	defer log.Close()
	if _, err := log.Append(cmd.Context(), d); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: record dispatch: %v\n", err)
	}
}
