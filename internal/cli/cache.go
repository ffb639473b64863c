package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/pkg/cache"
	"github.com/blurtapp/blurt/pkg/session"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline session cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached session and template list",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.cfg.Cache.Backend {
			case cache.BackendNone:
				printInfo("Cache is disabled")
				return nil
			case cache.BackendRedis:
				n, err := c.clearCacheKeys(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Redis: %s", c.cfg.Cache.RedisAddr)
				return nil
			}

			dir, err := c.cfg.CacheDir()
			if err != nil {
				return err
			}
			n, err := clearDir(dir)
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend == cache.BackendRedis {
				fmt.Println("redis://" + c.cfg.Cache.RedisAddr)
				return nil
			}
			dir, err := c.cfg.CacheDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// clearCacheKeys deletes the lists of the configured and the last user
// from a shared cache. Other users' entries are left alone.
func (c *CLI) clearCacheKeys(ctx context.Context) (int, error) {
	opts, err := c.cfg.CacheOptions()
	if err != nil {
		return 0, err
	}
	cc, err := cache.Open(ctx, opts)
	if err != nil {
		return 0, err
	}
	defer cc.Close()

	users := map[string]bool{c.cfg.Cloud.UserID: true}
	users[session.NewOffline(cc).LastUserID(ctx)] = true

	keys := []string{cache.LastUserKey}
	for u := range users {
		if u != "" {
			keys = append(keys, cache.SessionsKey(u), cache.TemplatesKey(u))
		}
	}
	for _, k := range keys {
		if err := cc.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// clearDir removes every file below dir and then the emptied
// subdirectories. A missing dir counts as empty.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == dir || d.IsDir() {
			return nil
		}
		if err := os.Remove(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	return count, nil
}
