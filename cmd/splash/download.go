package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/downloader"
	"github.com/realitylauncher/splash/internal/installdb"
	"github.com/realitylauncher/splash/internal/progress"
)

func newDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Install or update a title into --install-dir",
		RunE:  runDownload,
	}

	cmd.Flags().String("manifest-file", "", "read the manifest from a local file instead of fetching it")
	cmd.Flags().String("platform", "Windows", "platform to request assets for")
	cmd.Flags().String("namespace", "", "catalog namespace")
	cmd.Flags().String("item-id", "", "catalog item id")
	cmd.Flags().String("app-id", "", "app id")
	cmd.Flags().String("label", "Live", "release label")
	cmd.Flags().String("account-service-url", "https://account-public-service-prod03.ol.epicgames.com", "OAuth token endpoint")
	cmd.Flags().String("credentials", "", "base64-encoded client_id:client_secret for the OAuth exchange")
	cmd.Flags().Int("workers", 0, "concurrent file workers (0 uses the configured default)")
	cmd.Flags().String("app-name", "", "display name recorded in the install database")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
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
	platform, _ := cmd.Flags().GetString("platform")
	namespace, _ := cmd.Flags().GetString("namespace")
	itemID, _ := cmd.Flags().GetString("item-id")
	appID, _ := cmd.Flags().GetString("app-id")
	label, _ := cmd.Flags().GetString("label")
	accountURL, _ := cmd.Flags().GetString("account-service-url")
	credentials, _ := cmd.Flags().GetString("credentials")
	workers, _ := cmd.Flags().GetInt("workers")
	appName, _ := cmd.Flags().GetString("app-name")

	if workers == 0 {
		workers = app.cfg.Workers
	}

	// Read the cached manifest before loadManifest saves the new one, so
	// the reuse index describes the files already on disk.
	previous := app.previousManifest()

	manifest, err := app.loadManifest(ctx, manifestFile, platform, namespace, itemID, appID, label, accountURL, credentials)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	asm := app.newAssembler(manifest, previous)

	color.Cyan("Downloading %d files (%d chunks)...", manifest.TotalFiles(), len(manifest.ChunkDataList.Elements))

	err = downloader.Run(ctx, asm, handle, manifest, downloader.Options{Workers: workers}, func(u progress.Update) {
		logrus.WithFields(logrus.Fields{
			"file":  u.FileName,
			"bytes": u.DownloadedBytes,
			"total": u.TotalBytes,
			"files": u.TotalFiles,
		}).Debug("download progress")
	})
	if err != nil {
		color.Red("Download failed: %v", err)
		return err
	}

	if app.artifactID != "" {
		if dbErr := app.db.AddOrUpdate(installdb.Object{
			InstallLocation: app.installDir,
			NamespaceID:     namespace,
			ItemID:          itemID,
			ArtifactID:      app.artifactID,
			AppVersion:      manifest.Meta.BuildVersion,
			AppName:         appName,
		}); dbErr != nil {
			logrus.WithError(dbErr).Warn("failed to record install in install database")
		}
	}

	color.Green("Download complete.")
	return nil
}
