package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weswalla/logjam/internal/events"
	"github.com/weswalla/logjam/internal/output"
	syncsvc "github.com/weswalla/logjam/internal/sync"
	"github.com/weswalla/logjam/internal/watcher"
)

func newSyncCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync <root>",
		Short: "Reconcile the index against a directory of markdown pages",
		Long: `Reconciles the configured store against the current contents of
<root>. Each run starts from an empty registry of seen files, so every
page file found is saved (reported as created) and replaces any stored
page of the same title; pages whose files were removed before the run
stay in the store.

With --watch, stays running and reconciles continuously as files
change on disk, instead of reconciling once and exiting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return runSyncWatch(cmd.Context(), cmd, args[0])
			}
			return runSyncOnce(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and reconcile continuously")
	return cmd
}

func runSyncOnce(ctx context.Context, cmd *cobra.Command, root string) error {
	out := output.New(cmd.OutOrStdout())

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := syncsvc.New(repo)

	onEvent := func(e events.SyncEvent) {
		syncEventLine(out, e)
		if e.Kind == events.SyncCompleted {
			out.Successf("sync complete: %d created, %d updated, %d deleted", e.Created, e.Updated, e.Deleted)
		}
	}

	if _, err := svc.SyncOnce(ctx, root, onEvent); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func runSyncWatch(ctx context.Context, cmd *cobra.Command, root string) error {
	out := output.New(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := syncsvc.New(repo)

	if _, err := svc.SyncOnce(ctx, root, nil); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	w, err := watcher.New(watcher.Options{DebounceWindow: cfg.DebounceWindow()})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	out.Watching("watching %s (debounce %s)", root, cfg.DebounceWindow())

	return svc.StartWatching(ctx, root, w, func(e events.SyncEvent) {
		syncEventLine(out, e)
	})
}

// syncEventLine prints the per-file line for a sync event. SyncCompleted
// carries no path and prints nothing here; runSyncOnce prints its own
// summary line for it.
func syncEventLine(out *output.Writer, e events.SyncEvent) {
	switch e.Kind {
	case events.SyncFileCreated:
		out.Created("created %s", e.Path)
	case events.SyncFileUpdated:
		out.Updated("updated %s", e.Path)
	case events.SyncFileDeleted:
		out.Removed("deleted %s", e.Path)
	case events.SyncError:
		out.Warningf("%s: %s", e.Path, e.Err)
	}
}
