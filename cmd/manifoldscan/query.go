package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan"
	"github.com/hupe1980/manifoldscan/fetch"
	"github.com/hupe1980/manifoldscan/fetch/s3"
	"github.com/hupe1980/manifoldscan/scan"
)

func newQueryCmd(flags *rootFlags) *cobra.Command {
	var (
		batchSize     int
		sampleSize    int
		output        string
		cacheDir      string
		mounts        []string
		catalogTable  string
		catalogBucket string
	)

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run SQL against the manifold table functions",
		Long: "Opens an in-memory DuckDB, registers manifold_entities and manifold_edges, " +
			"and executes the statement. With --mount s3://<bucket>, locations under that " +
			"bucket are downloaded to the local cache before scanning. With --catalog-table, " +
			"manifold://<name> locations resolve through the DynamoDB catalog to the newest " +
			"published version.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger()
			if err != nil {
				return err
			}

			opts := []manifoldscan.Option{
				manifoldscan.WithLogger(logger),
				manifoldscan.WithBatchSize(batchSize),
				manifoldscan.WithSampleSize(sampleSize),
			}

			ctx := cmd.Context()

			buckets := make([]string, 0, len(mounts))
			for _, m := range mounts {
				bucket := strings.TrimPrefix(m, "s3://")
				if bucket == m || bucket == "" || strings.Contains(bucket, "/") {
					return fmt.Errorf("mount %q: expected s3://<bucket>", m)
				}
				buckets = append(buckets, bucket)
			}
			if catalogTable != "" && catalogBucket == "" {
				return errors.New("--catalog-table requires --catalog-bucket")
			}

			if len(buckets) > 0 || catalogTable != "" {
				if cacheDir == "" {
					base, err := os.UserCacheDir()
					if err != nil {
						return fmt.Errorf("resolve cache dir: %w", err)
					}
					cacheDir = filepath.Join(base, "manifoldscan")
				}

				client, err := s3.NewDefaultClient(ctx)
				if err != nil {
					return err
				}

				fetcher := fetch.New(cacheDir, func(o *fetch.Options) {
					o.Logger = logger.Logger
				})
				for _, bucket := range buckets {
					fetcher.Register("s3://"+bucket, s3.New(client, bucket, ""))
				}

				if catalogTable != "" {
					ddb, err := s3.NewDefaultDDBClient(ctx)
					if err != nil {
						return err
					}
					catalog := s3.NewCatalog(ddb, catalogTable)
					fetcher.Register("manifold://", s3.NewCatalogStore(catalog, s3.New(client, catalogBucket, "")))
				}

				opts = append(opts, manifoldscan.WithMaterializer(fetcher))
			}

			db, err := sql.Open("duckdb", "")
			if err != nil {
				return fmt.Errorf("open duckdb: %w", err)
			}
			defer func() { _ = db.Close() }()

			conn, err := db.Conn(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			if err := manifoldscan.Register(conn, opts...); err != nil {
				return err
			}

			rows, err := conn.QueryContext(ctx, args[0])
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer func() { _ = rows.Close() }()

			return printRows(cmd.OutOrStdout(), rows, output)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", scan.DefaultBatchSize, "records fetched per storage batch")
	cmd.Flags().IntVar(&sampleSize, "sample-size", scan.DefaultSampleSize, "records sampled for schema discovery")
	cmd.Flags().StringVar(&output, "output", "table", "output format: table or json")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for materialized remote databases (default: user cache dir)")
	cmd.Flags().StringSliceVar(&mounts, "mount", nil, "S3 buckets to serve s3:// locations from (repeatable)")
	cmd.Flags().StringVar(&catalogTable, "catalog-table", "", "DynamoDB table resolving manifold://<name> locations to their newest version")
	cmd.Flags().StringVar(&catalogBucket, "catalog-bucket", "", "S3 bucket holding the objects the catalog points at")

	return cmd
}
