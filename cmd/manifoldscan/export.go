package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan/codec"
	"github.com/hupe1980/manifoldscan/export"
	"github.com/hupe1980/manifoldscan/fetch/s3"
	"github.com/hupe1980/manifoldscan/scan"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

func newExportCmd() *cobra.Command {
	var (
		labels    []string
		edgeTypes []string
		batchSize int
		codecName string
	)

	cmd := &cobra.Command{
		Use:   "export <path> <target>",
		Short: "Export a graph database as JSON Lines",
		Long: "Streams entities and edges into JSONL, compressed according to the target " +
			"extension (.zst, .lz4). Targets may be local paths or s3://bucket/key URLs.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, target := args[0], args[1]

			c, ok := codec.ByName(codecName)
			if !ok {
				return fmt.Errorf("unknown codec %q", codecName)
			}

			eng, err := bolt.OpenReadOnly(path)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			exporter := export.New(eng, func(o *export.Options) {
				o.BatchSize = batchSize
				o.Codec = c
				o.Labels = labels
				o.EdgeTypes = edgeTypes
			})

			sum, err := writeTarget(cmd.Context(), exporter, target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entities, %d edges to %s\n", sum.Entities, sum.Edges, target)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&labels, "label", nil, "export only entities carrying one of these labels (repeatable)")
	cmd.Flags().StringSliceVar(&edgeTypes, "edge-type", nil, "export only edges of these types (repeatable)")
	cmd.Flags().IntVar(&batchSize, "batch-size", scan.DefaultBatchSize, "records fetched per storage batch")
	cmd.Flags().StringVar(&codecName, "codec", codec.Default.Name(), "line codec: json or go-json")

	return cmd
}

func writeTarget(ctx context.Context, exporter *export.Exporter, target string) (export.Summary, error) {
	if strings.HasPrefix(target, "s3://") {
		bucket, key, ok := strings.Cut(strings.TrimPrefix(target, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return export.Summary{}, fmt.Errorf("target %q: expected s3://<bucket>/<key>", target)
		}
		return writeS3(ctx, exporter, bucket, key)
	}

	f, err := os.Create(target)
	if err != nil {
		return export.Summary{}, err
	}

	wc, err := export.WrapWriter(f, target)
	if err != nil {
		_ = f.Close()
		return export.Summary{}, err
	}

	sum, err := exporter.Write(wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return sum, err
}

// writeS3 pipes the export through a multipart upload so nothing is
// buffered on disk.
func writeS3(ctx context.Context, exporter *export.Exporter, bucket, key string) (export.Summary, error) {
	client, err := s3.NewDefaultClient(ctx)
	if err != nil {
		return export.Summary{}, err
	}

	pr, pw := io.Pipe()

	var sum export.Summary
	done := make(chan error, 1)
	go func() {
		wc, err := export.WrapWriter(pw, key)
		if err != nil {
			_ = pw.CloseWithError(err)
			done <- err
			return
		}

		s, werr := exporter.Write(wc)
		if cerr := wc.Close(); werr == nil {
			werr = cerr
		}
		sum = s
		_ = pw.CloseWithError(werr)
		done <- werr
	}()

	uploadErr := s3.Upload(ctx, client, bucket, key, pr, s3.DefaultUploadConfig())
	if writeErr := <-done; writeErr != nil {
		return sum, writeErr
	}
	return sum, uploadErr
}
