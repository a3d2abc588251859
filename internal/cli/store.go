package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/snapshot"
	"github.com/rinzool/datahub/pkg/store"
)

// storeFlags selects and configures a store backend.
type storeFlags struct {
	backend   string // file, redis, or mongo
	dir       string // file: store directory
	redisAddr string
	redisDB   int
	mongoURI  string
	mongoDB   string
}

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	flags := &storeFlags{}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored snapshots and graphs",
		Long: `Manage stored snapshots and graphs.

Snapshots are stored under snapshot:<id> keys, built graphs under
graph:<id>. The file backend (default) keeps them in the local cache
directory; redis and mongo back shared deployments.`,
	}

	cmd.PersistentFlags().StringVar(&flags.backend, "backend", "file", "store backend: file, redis, mongo")
	cmd.PersistentFlags().StringVar(&flags.dir, "dir", "", "file backend directory (default: cache dir)")
	cmd.PersistentFlags().StringVar(&flags.redisAddr, "redis-addr", "localhost:6379", "redis address")
	cmd.PersistentFlags().IntVar(&flags.redisDB, "redis-db", 0, "redis database number")
	cmd.PersistentFlags().StringVar(&flags.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongo connection URI")
	cmd.PersistentFlags().StringVar(&flags.mongoDB, "mongo-db", "lineage", "mongo database name")

	cmd.AddCommand(c.storePutCommand(flags))
	cmd.AddCommand(c.storeGetCommand(flags))
	cmd.AddCommand(c.storeDeleteCommand(flags))
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// open connects to the configured backend.
func (f *storeFlags) open(ctx context.Context) (store.Store, error) {
	switch f.backend {
	case "file":
		dir := f.dir
		if dir == "" {
			var err error
			if dir, err = storeDir(); err != nil {
				return nil, err
			}
		}
		return store.NewFileStore(dir)
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{Addr: f.redisAddr, DB: f.redisDB})
	case "mongo":
		return store.NewMongoStore(ctx, store.MongoConfig{URI: f.mongoURI, Database: f.mongoDB})
	default:
		return nil, fmt.Errorf("unknown backend: %q (must be file, redis, or mongo)", f.backend)
	}
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "put [snapshot.json]",
		Short: "Store a snapshot file under its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := snapshot.ReadSnapshotFile(args[0])
			if err != nil {
				return fmt.Errorf("load snapshot %s: %w", args[0], err)
			}
			if snap.ID == "" {
				return fmt.Errorf("snapshot %s has no id", args[0])
			}

			st, err := flags.open(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			data, err := snapshot.MarshalSnapshot(snap)
			if err != nil {
				return err
			}
			key := store.SnapshotKey(snap.ID)
			if err := st.Set(ctx, key, data, 0); err != nil {
				return fmt.Errorf("store %s: %w", key, err)
			}

			printSuccess("Stored snapshot %s", snap.ID)
			printDetail("Key: %s (%d bytes)", key, len(data))
			return nil
		},
	}
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand(flags *storeFlags) *cobra.Command {
	var graph bool

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print a stored snapshot or graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := flags.open(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			key := store.SnapshotKey(args[0])
			if graph {
				key = store.GraphKey(args[0])
			}
			data, err := st.Get(ctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no entry for %s", key)
			}
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&graph, "graph", false, "fetch the built graph instead of the snapshot")
	return cmd
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored snapshot and its built graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := flags.open(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			for _, key := range []string{store.SnapshotKey(args[0]), store.GraphKey(args[0])} {
				if err := st.Delete(ctx, key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file store directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := storeDir()
			if err != nil {
				return fmt.Errorf("get store dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
