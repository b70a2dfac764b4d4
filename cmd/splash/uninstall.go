package main

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/progress"
	"github.com/realitylauncher/splash/internal/uninstaller"
)

func newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove every installed file under --install-dir",
		RunE:  runUninstall,
	}
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	handle, err := registry.Start(control.KindUninstall)
	if err != nil {
		return err
	}
	defer registry.Finish(control.KindUninstall)

	color.Cyan("Uninstalling %s...", app.installDir)

	err = uninstaller.Run(ctx, app.fs, handle, app.installDir, func(u progress.Update) {
		logrus.WithField("file", u.FileName).Debug("uninstall progress")
	})
	if err != nil {
		color.Red("Uninstall failed: %v", err)
		return err
	}

	if app.artifactID != "" {
		if dbErr := app.db.RemoveByArtifactID(app.artifactID); dbErr != nil {
			logrus.WithError(dbErr).Warn("failed to remove install database entry")
		}
	}

	color.Green("Uninstall complete.")
	return nil
}
