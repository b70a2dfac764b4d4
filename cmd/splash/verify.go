package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/progress"
	"github.com/realitylauncher/splash/internal/verifier"
)

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify and repair an installed title against its cached manifest",
		RunE:  runVerify,
	}

	cmd.Flags().Int("workers", 0, "concurrent file workers (0 uses the configured default)")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	handle, err := registry.Start(control.KindVerify)
	if err != nil {
		return err
	}
	defer registry.Finish(control.KindVerify)

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = app.cfg.Workers
	}

	manifest := app.previousManifest()
	if manifest == nil {
		return fmt.Errorf("no cached manifest to verify against")
	}

	// No previousManifest argument: the verify engine never reuses bytes
	// from other files (spec.md §4.8).
	asm := app.newAssembler(manifest, nil)

	color.Cyan("Verifying %d files...", manifest.TotalFiles())

	err = verifier.Run(ctx, asm, handle, manifest, verifier.Options{Workers: workers}, func(u progress.Update) {
		logrus.WithFields(logrus.Fields{
			"file":  u.FileName,
			"bytes": u.DownloadedBytes,
			"total": u.TotalBytes,
		}).Debug("verify progress")
	})
	if err != nil {
		color.Red("Verify failed: %v", err)
		return err
	}

	color.Green("Verify complete.")
	return nil
}
