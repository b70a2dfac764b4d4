package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/realitylauncher/splash/internal/assembler"
	"github.com/realitylauncher/splash/internal/assetsclient"
	"github.com/realitylauncher/splash/internal/chunkcache"
	"github.com/realitylauncher/splash/internal/config"
	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/installdb"
	"github.com/realitylauncher/splash/internal/manifestcache"
	"github.com/realitylauncher/splash/internal/manifestcodec"
	"github.com/realitylauncher/splash/internal/objectstore"
	"github.com/realitylauncher/splash/internal/reuseindex"
)

const chunkCacheSize = 512

// registry is process-wide: within this process it allows at most one
// active operation of each kind (download, verify, uninstall) at a time.
// Separate CLI invocations run in separate processes and do not share it.
var registry = control.NewRegistry()

// appContext bundles the collaborators every subcommand needs, built once
// from the root command's persistent flags.
type appContext struct {
	fs         afero.Fs
	installDir string
	cfg        config.App
	manifests  *manifestcache.Cache
	db         *installdb.DB
	store      objectstore.Client
	chunkCache *chunkcache.Cache
	assetsURL  string
	artifactID string
}

func newAppContext(cmd *cobra.Command) (*appContext, error) {
	installDir, err := cmd.Flags().GetString("install-dir")
	if err != nil || installDir == "" {
		return nil, fmt.Errorf("--install-dir is required")
	}
	configPath, _ := cmd.Flags().GetString("config")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	dbPath, _ := cmd.Flags().GetString("install-db")
	artifactID, _ := cmd.Flags().GetString("artifact-id")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadApp(configPath)
	if err != nil {
		cfg = config.DefaultApp()
	}

	fs := afero.NewOsFs()
	cache, err := chunkcache.New(chunkCacheSize)
	if err != nil {
		return nil, err
	}

	return &appContext{
		fs:         fs,
		installDir: installDir,
		cfg:        cfg,
		manifests:  manifestcache.New(fs, cacheDir),
		db:         installdb.New(fs, dbPath),
		store:      objectstore.NewHTTPClient(cfg.ObjectStoreURL),
		chunkCache: cache,
		assetsURL:  cfg.LauncherServiceURL,
		artifactID: artifactID,
	}, nil
}

// loadManifest resolves the manifest to operate on: a local path if given,
// otherwise the assets descriptor for namespace/itemID/appID/label.
func (a *appContext) loadManifest(ctx context.Context, manifestPath, platform, namespace, itemID, appID, label, accountURL, credentials string) (*manifestcodec.ParsedManifest, error) {
	var data []byte

	if manifestPath != "" {
		raw, err := afero.ReadFile(a.fs, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("reading manifest file: %w", err)
		}
		data = raw
	} else {
		token, err := assetsclient.Authenticate(ctx, accountURL, credentials)
		if err != nil {
			return nil, fmt.Errorf("authenticating: %w", err)
		}

		client := assetsclient.New(a.assetsURL, token)
		assets, err := client.FetchAssets(ctx, platform, namespace, itemID, appID, label)
		if err != nil {
			return nil, fmt.Errorf("fetching assets: %w", err)
		}

		item, err := assets.ManifestItem()
		if err != nil {
			return nil, err
		}

		data, err = client.FetchManifestBytes(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("fetching manifest: %w", err)
		}

		if err := a.manifests.Save(fmt.Sprintf("%s.manifest", assets.BuildVersion), data); err != nil {
			logrus.WithError(err).Warn("failed to cache manifest")
		}
	}

	return manifestcodec.Parse(data)
}

// newAssembler builds an Assembler wired against manifest, optionally
// reusing bytes already on disk from previousManifest (nil disables
// reuse, used by the verify engine).
func (a *appContext) newAssembler(manifest, previousManifest *manifestcodec.ParsedManifest) *assembler.Assembler {
	var reuse reuseindex.Index
	if previousManifest != nil {
		reuse = reuseindex.Build(previousManifest)
	}

	return assembler.New(assembler.Deps{
		FS:         a.fs,
		Store:      a.store,
		Cache:      a.chunkCache,
		Bucket:     a.cfg.ObjectStoreBucket,
		InstallDir: a.installDir,
		ChunksByID: manifest.ChunkByGUID(),
		ReuseIndex: reuse,
	})
}

func (a *appContext) previousManifest() *manifestcodec.ParsedManifest {
	data, err := a.manifests.Latest()
	if err != nil {
		return nil
	}
	parsed, err := manifestcodec.Parse(data)
	if err != nil {
		return nil
	}
	return parsed
}
