// Package daemon keeps a sync store current while a long-running process
// (formsync serve) is up.
//
// # Architecture
//
//   - Daemon: refreshes the store from its list endpoint on a ticker and
//     reloads local data when the storage file changes on disk
//   - FileWatcher: fsnotify-based monitoring of a file storage directory
//
// # File Watching
//
// With the file storage backend every key lives in its own file. The daemon
// watches only the file holding its store's key, so writes made by another
// formsync process (an import, a put) show up without a restart:
//
//	d, err := daemon.NewWithConfig(store, &daemon.Config{
//	    RefreshInterval:  5 * time.Minute,
//	    DebounceInterval: 100 * time.Millisecond,
//	    DataDir:          "/var/lib/formsync/data",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Events are debounced: a reload happens once the file has been quiet for
// DebounceInterval. The store ignores content identical to its own last
// save, so its own writes do not cause reloads.
//
// The watcher maps fsnotify operations as follows:
//   - fsnotify.Create → OpCreate (an atomic rename into place shows up here)
//   - fsnotify.Write → OpModify
//   - fsnotify.Remove, fsnotify.Rename → OpDelete
//
// Temporary files (.tmp-*) written during saves are ignored.
//
// # Graceful Shutdown
//
// Cancel the context passed to Start, or call Stop. Stop closes the watcher
// and waits for every loop to exit.
package daemon
