package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmstack/mmsetup/internal/executor"
	"github.com/mmstack/mmsetup/internal/output"
	"github.com/mmstack/mmsetup/internal/packages"
	"github.com/mmstack/mmsetup/internal/pipeline"
	"github.com/mmstack/mmsetup/internal/prereq"
	"github.com/mmstack/mmsetup/internal/wheelhouse"
)

var purgeFlag bool

// NewInstallCmd creates the install command. The root command runs the same
// action when invoked without a subcommand.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Build and install the mmaction stack (default)",
		RunE:  runInstall,
	}
	cmd.Flags().BoolVar(&purgeFlag, "purge", false,
		"Delete the wheelhouse and package checkouts before reinstalling")
	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	logger := output.DefaultLogger
	printHeader(logger)

	runner := executor.NewOSRunner(settings.Verbose)
	wheels := wheelhouse.New(settings.Wheelhouse)
	checker := prereq.NewChecker(runner, settings.Python, settings.VenvPython)
	provisioner := packages.NewProvisioner(runner, wheels, settings.VenvPython)

	var steps []pipeline.Step
	if purgeFlag {
		steps = append(steps, pipeline.Step{
			Name: "Purging wheelhouse and checkouts",
			Run: func(ctx context.Context) error {
				return wheels.Purge(packages.CheckoutDirs()...)
			},
		})
	}
	steps = append(steps,
		pipeline.Step{Name: "Ensuring wheelhouse directory", Run: func(ctx context.Context) error {
			return wheels.Ensure()
		}},
		pipeline.Step{Name: "Ensuring uv availability", Run: checker.EnsureUV},
		pipeline.Step{Name: "Ensuring Python virtual environment", Run: checker.EnsureVenv},
		pipeline.Step{Name: "Ensuring pip tooling", Run: checker.EnsurePipTooling},
	)
	for _, spec := range packages.Specs() {
		steps = append(steps, pipeline.Step{
			Name: fmt.Sprintf("Building/installing %s", spec.Name),
			Run: func(ctx context.Context) error {
				return provisioner.Provision(ctx, spec)
			},
		})
	}
	// The final sync always streams: it is long-running and its output is
	// relevant regardless of verbosity.
	steps = append(steps, pipeline.Step{
		Name: "Running uv sync",
		Run: func(ctx context.Context) error {
			return runner.Run(ctx, executor.Command{
				Label: "uv sync",
				Name:  "uv",
				Args:  []string{"sync"},
				Mode:  executor.Stream,
			})
		},
	})

	reporter := output.NewReporter(logger, settings.Verbose)
	if err := pipeline.NewRunner(reporter).Run(cmd.Context(), steps); err != nil {
		return err
	}

	if err := wheels.SaveManifest(wheelhouse.NewManifest(packages.Versions())); err != nil {
		// Reporting-only state; a failed write must not fail the run.
		logger.Warn("failed to record run manifest: %v", err)
	}

	logger.Success("Setup completed successfully.")
	return nil
}

func printHeader(logger *output.Logger) {
	logger.Cyan("mmsetup")
	logger.Dim("Installs the mmaction stack with local wheel builds and runs uv sync")
	if settings.Verbose {
		logger.Info("• Verbose output: enabled")
	} else {
		logger.Dim("• Verbose output: disabled")
	}
}
