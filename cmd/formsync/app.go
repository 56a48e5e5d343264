package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/logging"
	"github.com/johnfriz/AppForms-Template/internal/remote"
	"github.com/johnfriz/AppForms-Template/internal/storage"
	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
)

// app holds everything a command needs to talk to one store.
type app struct {
	logs   *logging.Output
	bridge storage.Bridge
	store  *storesync.Store
}

// openApp wires logging, storage, the remote client and the store from the
// loaded configuration. collection may be nil.
func openApp(cmd *cobra.Command, collection storesync.Collection) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logSettings := cfg.Log()
	logs, err := logging.Open(logging.Config{
		File:       logSettings.File,
		MaxSizeMB:  logSettings.MaxSizeMB,
		MaxBackups: logSettings.MaxBackups,
		MaxAgeDays: logSettings.MaxAgeDays,
		Compress:   logSettings.Compress,
		Quiet:      !verbose,
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.LoadOverrides(overridesPath()); err != nil {
		logs.Logger("config").Printf("Warning: %v", err)
	}

	storageSettings := cfg.Storage()
	bridge, err := storage.Open(storage.Config{
		Backend:    storageSettings.Backend,
		SQLitePath: storageSettings.SQLitePath,
		FileDir:    storageSettings.FileDir,
		Logger:     logs.Logger("storage"),
	})
	if err != nil {
		logs.Close()
		return nil, err
	}

	storeSettings := cfg.Store()
	var svc remote.Service
	if storeSettings.ListAct != "" || storeSettings.ReadAct != "" {
		remoteSettings := cfg.Remote()
		client, err := remote.NewHTTPClient(remote.HTTPConfig{
			BaseURL: remoteSettings.BaseURL,
			Timeout: remoteSettings.Timeout,
			Headers: remoteSettings.Headers,
		})
		if err != nil {
			bridge.Close()
			logs.Close()
			return nil, fmt.Errorf("remote is not configured: %w", err)
		}
		svc = client
	}

	store, err := storesync.New(bridge, svc, storesync.Options{
		Name:         storeSettings.Name,
		ListAct:      storeSettings.ListAct,
		ReadAct:      storeSettings.ReadAct,
		IDField:      storeSettings.IDField,
		VersionField: storeSettings.VersionField,
		Collection:   collection,
		Config:       cfg,
		Logger:       logs.Logger("sync"),
	})
	if err != nil {
		bridge.Close()
		logs.Close()
		return nil, err
	}

	return &app{logs: logs, bridge: bridge, store: store}, nil
}

// Close stops background work, keeps remote overrides for the next run and
// releases storage.
func (a *app) Close() error {
	var errs []error
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(cfg.Overrides()) > 0 {
		if err := cfg.SaveOverrides(overridesPath()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.bridge.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.logs.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// fileDir returns the directory of the file storage backend in use, or "".
func (a *app) fileDir() string {
	if fs, ok := a.bridge.(*storage.FileStore); ok {
		return fs.Dir()
	}
	return ""
}

// overridesPath is where remote config overrides are kept between runs.
func overridesPath() string {
	return filepath.Join(filepath.Dir(cfg.Storage().SQLitePath), "remote-config.toml")
}
