package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached payloads and layouts",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached payload and layout",
		Long: `Remove every cached payload and layout from the configured backend.

For the file backend this deletes the shard directories under the cache
directory. For redis it deletes every key under the configured prefix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newCache()
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled")
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", n)
			printDetail("Backend: %s", c.cacheLocation(store))
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
			if dir := c.Config.Cache.Dir; dir != "" {
				fmt.Println(dir)
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

// cacheLocation describes where store keeps its entries.
func (c *CLI) cacheLocation(store cache.Cache) string {
	switch s := store.(type) {
	case *cache.FileCache:
		return "file " + s.Dir()
	case *cache.RedisCache:
		r := c.Config.Cache.Redis
		return fmt.Sprintf("redis %s/%d %s*", r.Addr, r.DB, r.Prefix)
	default:
		return "none"
	}
}
