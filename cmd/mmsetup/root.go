package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mmstack/mmsetup/internal/config"
	"github.com/mmstack/mmsetup/internal/output"
)

// Global configuration variables
var (
	verbose    bool
	noColor    bool
	configPath string // Path to setup.toml file (--config flag)

	// settings holds the effective configuration after merging defaults,
	// setup.toml, environment and flags.
	settings config.Settings
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mmsetup",
		Short: "Install the mmaction stack with local wheel builds and run uv sync",
		Long: `mmsetup provisions a reproducible local build of the mmaction ML stack.

It clones mmcv, mmaction2 and mmengine at pinned versions, patches their
vendored source for current torch behavior, builds each into a local wheel,
installs the wheels into a uv-managed virtual environment, and finally runs
a full uv sync.

Running mmsetup with no arguments performs the full installation.

Examples:
  # Install the stack
  mmsetup

  # Install with live command output
  mmsetup --verbose

  # Rebuild everything from scratch
  mmsetup --purge

  # Show which wheels are already built
  mmsetup status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			settings = config.Defaults().Merge(fileCfg)

			// Environment variables override setup.toml but not explicit flags.
			if os.Getenv("MMSETUP_VERBOSE") != "" && !cmd.Flags().Changed("verbose") {
				settings.Verbose = true
			}
			if os.Getenv("NO_COLOR") != "" && !cmd.Flags().Changed("no-color") {
				settings.NoColor = true
			}

			if cmd.Flags().Changed("verbose") {
				settings.Verbose = verbose
			}
			if cmd.Flags().Changed("no-color") {
				settings.NoColor = noColor
			}

			output.DefaultLogger.SetNoColor(settings.NoColor)
			output.DefaultLogger.SetVerbose(settings.Verbose)
			output.DefaultLogger.Debug("effective settings: wheelhouse=%s python=%s venv=%s",
				settings.Wheelhouse, settings.Python, settings.VenvPython)
			return nil
		},
		RunE: runInstall,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show command output while running setup")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to setup.toml file")
	cmd.Flags().BoolVar(&purgeFlag, "purge", false,
		"Delete the wheelhouse and package checkouts before reinstalling")

	installCmd := NewInstallCmd()
	cmd.AddCommand(installCmd)
	cmd.AddCommand(NewPurgeCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
