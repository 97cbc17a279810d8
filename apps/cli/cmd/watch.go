package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/config"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/fitcheck/packages/notify"
)

// watchAndRun runs the suite, then runs it again each time the config or
// env file changes, until ctx is cancelled. Runs happen on this goroutine,
// so they never overlap; changes made during a run trigger one more run.
func watchAndRun(ctx context.Context, cmd *cobra.Command, s *settings, notifier *notify.Manager) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	last, err := runSuite(ctx, s, notifier, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return failure(fmt.Errorf("failed to create file watcher: %w", err))
	}
	defer watcher.Close()

	for _, dir := range watchDirs(s) {
		if err := watcher.Add(dir); err != nil {
			return failure(fmt.Errorf("failed to watch %s: %w", dir, err))
		}
	}

	fmt.Fprintf(stdout, "\nWatching for changes... (press Ctrl+C to stop)\n")

	// Debounce timer for rapid file changes
	debounce := time.NewTimer(WatchDebounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	changed := ""

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stderr, "\nStopped watching.")
			return verdict(last, nil)

		case event, ok := <-watcher.Events:
			if !ok {
				return verdict(last, nil)
			}
			if !isWatchedFile(event.Name, s) || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			changed = event.Name
			debounce.Reset(WatchDebounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return verdict(last, nil)
			}
			fmt.Fprintf(stderr, "warning: watcher error: %v\n", err)

		case <-debounce.C:
			fmt.Fprintf(stdout, "\n\nFile changed: %s\nRe-running tests...\n\n", changed)

			// settings are re-read so edits to the files take effect
			next, err := loadSettings(cmd.Flags())
			if err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
			} else {
				s = next
				var summary *runner.Summary
				summary, err = runSuite(ctx, s, notifier, stdout, stderr)
				if err != nil {
					fmt.Fprintf(stderr, "error: %v\n", err)
				}
				if summary != nil {
					last = summary
				}
			}

			fmt.Fprintf(stdout, "\nWatching for changes... (press Ctrl+C to stop)\n")
		}
	}
}

// watchDirs returns the directories holding the config and env files. The
// working directory is always watched so a newly created config file is
// picked up.
func watchDirs(s *settings) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, path := range []string{".", s.ConfigPath, s.EnvFile} {
		if path == "" {
			continue
		}
		dir := path
		if path != "." {
			dir = filepath.Dir(path)
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func isWatchedFile(name string, s *settings) bool {
	if config.IsConfigFile(name) {
		return true
	}
	for _, path := range []string{s.ConfigPath, s.EnvFile} {
		if path != "" && samePath(name, path) {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
