// Command couchfeed is a client and change-feed watcher for CouchDB-style
// document stores.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/clock"

	"github.com/custodia-labs/couchfeed/internal/adapters/driven/auth"
	"github.com/custodia-labs/couchfeed/internal/adapters/driven/config/file"
	"github.com/custodia-labs/couchfeed/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/couchfeed/internal/adapters/driven/transport/httptransport"
	"github.com/custodia-labs/couchfeed/internal/adapters/driving/cli"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore(os.Getenv("COUCHFEED_HOME"))
	if err != nil {
		return err
	}
	settings := services.NewSettingsService(configStore)

	return cli.Execute(context.Background(), cli.Options{
		Version:  version,
		Settings: settings,
		Connect: func(serverURL string) (*cli.Services, error) {
			return connect(settings, serverURL)
		},
		OpenCache: openCache,
		FollowConfig: func(ctx context.Context, onChange func()) error {
			w, err := file.NewWatcher(configStore)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(ctx, onChange)
		},
	})
}

// connect wires the core services to an HTTP transport built from the
// current settings.
func connect(settingsService driving.SettingsService, serverURL string) (*cli.Services, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		settings.Server.URL = serverURL
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	transport, err := httptransport.New(httptransport.Config{
		BaseURL: settings.Server.URL,
		Timeout: settings.Transport.Timeout,
		Rate:    settings.Transport.Rate,
		Burst:   settings.Transport.Burst,
		Signer: auth.NewSigner(auth.Credentials{
			Token:    settings.Server.Token,
			Username: settings.Server.Username,
			Password: settings.Server.Password,

			TokenURL:     settings.Server.OAuth.TokenURL,
			ClientID:     settings.Server.OAuth.ClientID,
			ClientSecret: settings.Server.OAuth.ClientSecret,
			Scopes:       settings.Server.OAuth.Scopes,
		}),
	})
	if err != nil {
		return nil, err
	}

	bus := services.NewEventBus()
	documents := services.NewDocumentStore(transport, bus)
	databases := services.NewDatabaseService(transport, bus)
	watchConfig := settings.WatchConfig()
	watcher := services.NewDatabaseWatcher(
		clock.WallClock,
		transport.BaseURL(),
		watchConfig,
		databases,
		services.NewChangeFeedReader(transport, watchConfig.PageLimit),
		services.NewChangeReconciler(documents),
		bus,
	)
	databases.AttachWatcher(watcher)

	return &cli.Services{
		Documents: documents,
		Databases: databases,
		Watcher:   watcher,
		Events:    bus,
	}, nil
}

func openCache(dir string) (driving.CacheMirror, func() error, error) {
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, nil, err
	}
	return services.NewCacheMirror(store.DocumentCache(), store.ChangeLog()), store.Close, nil
}
