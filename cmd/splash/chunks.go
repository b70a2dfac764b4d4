package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/realitylauncher/splash/internal/chunkcodec"
	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/manifestcodec"
	"github.com/realitylauncher/splash/internal/objectstore"
)

func newChunksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Download a manifest's chunks to a local cache directory without assembling files",
		RunE:  runChunks,
	}

	cmd.Flags().String("manifest-file", "", "read the manifest from a local file")
	cmd.Flags().String("chunk-dir", "", "folder decoded chunk payloads are written to")
	cmd.Flags().Int("workers", 0, "concurrent chunk workers (0 uses the configured default)")
	cmd.MarkFlagRequired("manifest-file")
	cmd.MarkFlagRequired("chunk-dir")

	return cmd
}

func runChunks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	handle, err := registry.Start(control.KindDownload)
	if err != nil {
		return err
	}
	defer registry.Finish(control.KindDownload)

	manifestFile, _ := cmd.Flags().GetString("manifest-file")
	chunkDir, _ := cmd.Flags().GetString("chunk-dir")
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = app.cfg.Workers
	}

	data, err := afero.ReadFile(app.fs, manifestFile)
	if err != nil {
		return fmt.Errorf("reading manifest file: %w", err)
	}
	manifest, err := manifestcodec.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}

	chunks := manifest.ChunkDataList.Elements
	color.Cyan("Downloading %d chunks to %s...", len(chunks), chunkDir)

	sem := semaphore.NewWeighted(int64(workers))
	errCh := make(chan error, len(chunks))

	for _, chunk := range chunks {
		if handle.Cancelled() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			errCh <- err
			continue
		}

		go func(info manifestcodec.ChunkInfo) {
			defer sem.Release(1)
			errCh <- fetchChunkToDisk(ctx, app, info, chunkDir)
		}(chunk)
	}

	if err := sem.Acquire(ctx, int64(workers)); err != nil {
		return err
	}
	close(errCh)

	failed := 0
	for err := range errCh {
		if err != nil {
			logrus.WithError(err).Warn("chunk download failed")
			failed++
		}
	}

	if handle.Cancelled() {
		color.Red("Chunk download cancelled.")
		return fmt.Errorf("cancelled")
	}
	if failed > 0 {
		color.Red("%d of %d chunks failed to download.", failed, len(chunks))
		return fmt.Errorf("%d chunks failed", failed)
	}

	color.Green("Chunk download complete.")
	return nil
}

func fetchChunkToDisk(ctx context.Context, app *appContext, info manifestcodec.ChunkInfo, chunkDir string) error {
	destPath := filepath.Join(chunkDir, info.GUID.HexWords()+".chunk")
	if exists, err := afero.Exists(app.fs, destPath); err == nil && exists {
		return nil
	}

	key := objectstore.ChunkKey(info.GroupNum, info.RollingHash, info.GUID)
	raw, err := app.store.Fetch(ctx, app.cfg.ObjectStoreBucket, key)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", key, err)
	}

	decoded, err := chunkcodec.Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	if err := app.fs.MkdirAll(chunkDir, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(app.fs, destPath, decoded, 0o644)
}
