// Package watcher wraps an OS-provided recursive file watcher (fsnotify)
// with debounced, filtered events for the pages/ and journals/ subtrees of
// a graph root.
//
// Usage:
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go w.Start(ctx, graphRoot) // runs until Stop or ctx cancellation
//	defer w.Stop()
//
//	for batch := range w.Events() {
//	    for _, event := range batch {
//	        switch event.Operation {
//	        case watcher.OpCreate:
//	        case watcher.OpModify:
//	        case watcher.OpDelete:
//	        }
//	    }
//	}
package watcher
