package main

import (
	"errors"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mmstack/mmsetup/internal/output"
	"github.com/mmstack/mmsetup/internal/packages"
	"github.com/mmstack/mmsetup/internal/wheelhouse"
)

// NewPurgeCmd creates the purge command, which removes the wheelhouse and
// all package checkouts without reinstalling anything.
func NewPurgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the wheelhouse and package checkouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := output.DefaultLogger

			if !yes {
				prompt := promptui.Prompt{
					Label:     "Delete the wheelhouse and all package checkouts",
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
						logger.Info("Aborted.")
						return nil
					}
					return err
				}
			}

			wheels := wheelhouse.New(settings.Wheelhouse)
			if err := wheels.Purge(packages.CheckoutDirs()...); err != nil {
				return err
			}
			logger.Success("Wheelhouse and checkouts removed.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
