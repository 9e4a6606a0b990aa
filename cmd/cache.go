package cmd

import (
	"fmt"
	"path/filepath"

	"filestoprompt/pkg/cache"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the completion cache",
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the location of the cache database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cacheDir()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, cache.DBFileName))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number and size of cached completions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "path: %s\nentries: %d\nbytes: %d\n", store.Path(), st.Entries, st.Bytes)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached completion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", n)
		return nil
	},
}

func cacheDir() (string, error) {
	if appConfig.Cache.Dir != "" {
		return appConfig.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

func openCache(cmd *cobra.Command) (*cache.SQLite, error) {
	store, err := cache.OpenSQLite(cmd.Context(), appConfig.Cache.Dir, logger)
	if err != nil {
		logger.Error("Failed to open response cache", zap.Error(err))
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}
	return store, nil
}

func init() {
	cacheCmd.AddCommand(cachePathCmd, cacheStatsCmd, cacheClearCmd)
	RootCmd.AddCommand(cacheCmd)
}
