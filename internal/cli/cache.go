package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/idplease/pkg/cache"
	"github.com/matzehuels/idplease/pkg/session"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the API response and passport cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var drafts bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached API responses, avatars and rendered passports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.clearCache(cmd.Context()); err != nil {
				return err
			}
			if drafts {
				return clearDrafts(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&drafts, "drafts", false, "also delete interactive field drafts")
	return cmd
}

func (c *CLI) clearCache(ctx context.Context) error {
	cfg := c.cfg()
	switch cfg.Cache.Backend {
	case backendNone:
		printInfo("Caching is disabled")
		return nil

	case backendRedis:
		store, err := c.newCache(ctx, false)
		if err != nil {
			return err
		}
		defer store.Close()
		rc, ok := store.(*cache.RedisCache)
		if !ok {
			return fmt.Errorf("unexpected cache type %T", store)
		}
		count, err := rc.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear redis cache: %w", err)
		}
		printSuccess("Cleared %d cached entries", count)
		printDetail("Redis: %s (prefix %s)", cfg.Cache.RedisAddr, redisPrefix)
		return nil
	}

	dir, err := cacheDir()
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	count, err := fc.Clear()
	if err != nil {
		return err
	}
	printSuccess("Cleared %d cached entries", count)
	printDetail("Directory: %s", dir)
	return nil
}

func clearDrafts(ctx context.Context) error {
	dir := draftsDir()
	if dir == "" {
		return fmt.Errorf("get drafts dir: no home directory")
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("No drafts")
		return nil
	}
	store, err := session.NewFileStore(dir)
	if err != nil {
		return err
	}
	count, err := store.Clear(ctx)
	if err != nil {
		return err
	}
	printSuccess("Deleted %d drafts", count)
	printDetail("Directory: %s", store.Path())
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()
			if cfg.Cache.Backend == backendRedis {
				fmt.Printf("redis://%s/%d\n", cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
				return nil
			}
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
