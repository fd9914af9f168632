package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [database...]",
	Short: "Watch databases and print each change",
	Long: `Poll the change feed of each database and print every document that is
created, updated or deleted. Without arguments the databases in
watch.databases are watched. Runs until interrupted.

Local servers are polled every watch.local_interval (default 60s), others
every watch.remote_interval (default 300s).`,
	RunE: runWatch,
}

var (
	watchFollowConfig bool
	watchCache        bool
	watchCachePath    string
	watchJSON         bool
)

func init() {
	watchCmd.Flags().BoolVar(&watchFollowConfig, "follow-config", false,
		"reload watch.databases when the config file changes")
	watchCmd.Flags().BoolVar(&watchCache, "cache", false, "mirror watched databases into the local cache")
	watchCmd.Flags().StringVar(&watchCachePath, "cache-path", "", "cache directory (default cache.path)")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print one JSON object per change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := connect(); err != nil {
		return err
	}
	if watchService == nil || eventBus == nil {
		return errors.New("watch service not configured")
	}
	defer watchService.Close() //nolint:errcheck

	settings := currentSettings()
	databases := watchTargets(args, settings)
	if len(databases) == 0 {
		return errors.New("no databases to watch; pass names or set watch.databases")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := &changePrinter{out: cmd.OutOrStdout(), json: watchJSON}
	id := eventBus.Remote().Subscribe(printer)
	defer eventBus.Remote().Unsubscribe(id)

	var mirror driving.CacheMirror
	if watchCache || (settings != nil && settings.Cache.Enabled) {
		if cacheOpener == nil {
			return errors.New("cache not configured")
		}
		path := watchCachePath
		if path == "" && settings != nil {
			path = settings.Cache.Path
		}
		m, closeCache, err := cacheOpener(path)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer closeCache() //nolint:errcheck
		detach := m.Attach(eventBus)
		defer detach()
		mirror = m
	}

	for _, db := range databases {
		if err := startWatch(ctx, cmd, db, mirror); err != nil {
			return err
		}
	}

	if watchFollowConfig {
		if configFollower == nil {
			return errors.New("config following not available")
		}
		go func() {
			err := configFollower(ctx, func() {
				syncWatchSet(ctx, cmd, watchTargets(args, currentSettings()), mirror)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("config follower stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	cmd.PrintErrln("Stopping.")
	return nil
}

// startWatch starts one database and seeds the cache when one is attached.
func startWatch(ctx context.Context, cmd *cobra.Command, database string, mirror driving.CacheMirror) error {
	if err := watchService.Watch(ctx, database); err != nil {
		return fmt.Errorf("failed to watch %s: %w", database, err)
	}
	cmd.PrintErrf("Watching %s\n", database)

	if mirror != nil && documentService != nil {
		n, err := mirror.Seed(ctx, database, documentService)
		if err != nil {
			logger.Error("seeding cache for %s: %v", database, err)
		} else {
			logger.Info("cached %d documents from %s", n, database)
		}
	}
	return nil
}

// syncWatchSet starts databases in want that are not watched and stops
// watched databases that are no longer wanted.
func syncWatchSet(ctx context.Context, cmd *cobra.Command, want []string, mirror driving.CacheMirror) {
	current := watchService.Watching()

	for _, db := range current {
		if !slices.Contains(want, db) {
			watchService.Unwatch(db)
			cmd.PrintErrf("Stopped watching %s\n", db)
		}
	}
	for _, db := range want {
		if slices.Contains(current, db) {
			continue
		}
		if err := startWatch(ctx, cmd, db, mirror); err != nil {
			logger.Error("%v", err)
		}
	}
}

// watchTargets returns args when given, otherwise the configured databases.
func watchTargets(args []string, settings *domain.Settings) []string {
	if len(args) > 0 {
		return args
	}
	if settings == nil {
		return nil
	}
	return settings.Watch.Databases
}

func currentSettings() *domain.Settings {
	if settingsService == nil {
		return nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("reading settings: %v", err)
		return nil
	}
	return settings
}

// changePrinter writes one line per remote change. Poll loops for
// different databases may call it concurrently.
type changePrinter struct {
	mu   sync.Mutex
	out  io.Writer
	json bool
}

type changeLine struct {
	Kind     string          `json:"kind"`
	Database string          `json:"database"`
	ID       string          `json:"id"`
	Revision string          `json:"revision,omitempty"`
	Document json.RawMessage `json:"document,omitempty"`
}

func (p *changePrinter) DocumentCreated(database string, doc *domain.Document) {
	p.print(domain.ChangeCreated, database, doc.ID(), doc)
}

func (p *changePrinter) DocumentUpdated(database string, doc *domain.Document) {
	p.print(domain.ChangeUpdated, database, doc.ID(), doc)
}

func (p *changePrinter) DocumentDeleted(database, id string) {
	p.print(domain.ChangeDeleted, database, id, nil)
}

func (p *changePrinter) print(kind domain.ChangeKind, database, id string, doc *domain.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.json {
		if doc != nil {
			fmt.Fprintf(p.out, "%-8s %s/%s %s\n", kind, database, id, doc.Revision())
		} else {
			fmt.Fprintf(p.out, "%-8s %s/%s\n", kind, database, id)
		}
		return
	}

	line := changeLine{Kind: kind.String(), Database: database, ID: id}
	if doc != nil {
		line.Revision = doc.Revision()
		if data, err := json.Marshal(doc); err == nil {
			line.Document = data
		}
	}
	data, err := json.Marshal(line)
	if err != nil {
		logger.Error("encoding change: %v", err)
		return
	}
	fmt.Fprintln(p.out, string(data))
}
