// Package watcher re-runs addon discovery when the workshop directory changes.
//
// The game client downloads, updates and deletes workshop packages on its
// own schedule. The Watcher subscribes to filesystem notifications for the
// workshop directory, coalesces bursts of events (a download produces many
// writes) and then calls a refresh callback once.
//
// Example usage:
//
//	w, err := watcher.New(mgr.SourceDir(), func() error {
//		_, err := mgr.Refresh()
//		return err
//	}, log)
//	if err != nil {
//		return err
//	}
//
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher
