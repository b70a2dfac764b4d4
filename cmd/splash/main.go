// Command splash is the launcher-install CLI: download, verify, repair,
// and uninstall chunked content-addressed titles. Grounding: teacher
// splash.go's flag-driven main(), generalized from a single download-only
// flow into cobra subcommands wired to the internal engines.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:   "splash",
		Short: "Chunked content-addressed title installer",
	}

	root.PersistentFlags().String("install-dir", "", "folder the title is installed into")
	root.PersistentFlags().String("config", "splash.toml", "path to the engine tunables file")
	root.PersistentFlags().String("cache-dir", ".splash-cache", "folder manifests are cached under")
	root.PersistentFlags().String("install-db", "LauncherInstalled.dat", "path to the installed-titles database")
	root.PersistentFlags().String("artifact-id", "", "artifact id identifying this title in the install database")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")

	root.MarkPersistentFlagRequired("install-dir")

	root.AddCommand(newDownloadCommand())
	root.AddCommand(newVerifyCommand())
	root.AddCommand(newUninstallCommand())
	root.AddCommand(newChunksCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
