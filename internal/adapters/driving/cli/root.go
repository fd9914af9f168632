// Package cli implements the couchfeed command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// Services is what the store-facing commands run against.
type Services struct {
	Documents driving.DocumentService
	Databases driving.DatabaseService
	Watcher   driving.WatchService
	Events    driving.EventBus
}

// Connector builds Services once flags are parsed. serverURL overrides the
// configured server when non-empty.
type Connector func(serverURL string) (*Services, error)

// CacheOpener opens the local document cache at path (empty means the
// default location). The returned func closes it.
type CacheOpener func(path string) (driving.CacheMirror, func() error, error)

// ConfigFollower blocks until ctx ends, calling onChange after each reload
// of the config file.
type ConfigFollower func(ctx context.Context, onChange func()) error

// Options wires the CLI to the application.
type Options struct {
	Version      string
	Settings     driving.SettingsService
	Connect      Connector
	OpenCache    CacheOpener
	FollowConfig ConfigFollower
}

var (
	version   = "dev"
	verbose   bool
	serverURL string

	settingsService driving.SettingsService
	connector       Connector
	cacheOpener     CacheOpener
	configFollower  ConfigFollower
	connected       bool

	documentService driving.DocumentService
	databaseService driving.DatabaseService
	watchService    driving.WatchService
	eventBus        driving.EventBus
)

var rootCmd = &cobra.Command{
	Use:   "couchfeed",
	Short: "Document store client and change-feed watcher",
	Long: `couchfeed reads and writes revisioned JSON documents on a CouchDB-style
server and watches database change feeds, reporting each change as created,
updated or deleted.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "server URL, overrides server.url")
}

// Execute runs the root command.
func Execute(ctx context.Context, opts Options) error {
	if opts.Version != "" {
		version = opts.Version
	}
	settingsService = opts.Settings
	connector = opts.Connect
	cacheOpener = opts.OpenCache
	configFollower = opts.FollowConfig
	connected = false

	return rootCmd.ExecuteContext(ctx)
}

// connect builds the store-facing services on first use so that commands
// like version and config never touch the network layer.
func connect() error {
	if connected || connector == nil {
		return nil
	}
	svc, err := connector(serverURL)
	if err != nil {
		return err
	}
	documentService = svc.Documents
	databaseService = svc.Databases
	watchService = svc.Watcher
	eventBus = svc.Events
	connected = true
	return nil
}

func requireDocuments() (driving.DocumentService, error) {
	if err := connect(); err != nil {
		return nil, err
	}
	if documentService == nil {
		return nil, errors.New("document service not configured")
	}
	return documentService, nil
}

func requireDatabases() (driving.DatabaseService, error) {
	if err := connect(); err != nil {
		return nil, err
	}
	if databaseService == nil {
		return nil, errors.New("database service not configured")
	}
	return databaseService, nil
}
