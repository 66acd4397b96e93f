package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mmstack/mmsetup/internal/output"
	"github.com/mmstack/mmsetup/internal/packages"
	"github.com/mmstack/mmsetup/internal/wheelhouse"
)

// packageStatus is one entry in the status report.
type packageStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Built   bool   `json:"built"`
}

// statusReport summarizes local provisioning state.
type statusReport struct {
	Packages []packageStatus      `json:"packages"`
	Venv     bool                 `json:"venv"`
	LastRun  *wheelhouse.Manifest `json:"last_run,omitempty"`
}

// NewStatusCmd creates the status command, reporting which wheels are
// already built, whether the virtualenv exists, and the last recorded run.
func NewStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show built wheels, virtualenv state and the last recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := collectStatus()
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			printStatus(output.DefaultLogger, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func collectStatus() (*statusReport, error) {
	wheels := wheelhouse.New(settings.Wheelhouse)

	report := &statusReport{}
	for _, spec := range packages.Specs() {
		built, err := wheels.Has(spec.Name, spec.Version)
		if err != nil {
			return nil, err
		}
		report.Packages = append(report.Packages, packageStatus{
			Name:    spec.Name,
			Version: spec.Version,
			Built:   built,
		})
	}

	if _, err := os.Stat(settings.VenvPython); err == nil {
		report.Venv = true
	}

	manifest, err := wheels.LoadManifest()
	if err != nil {
		return nil, err
	}
	report.LastRun = manifest

	return report, nil
}

func printStatus(logger *output.Logger, report *statusReport) {
	logger.Cyan("Managed packages:")
	for _, pkg := range report.Packages {
		if pkg.Built {
			logger.Success("%s %s (wheel built)", pkg.Name, pkg.Version)
		} else {
			logger.Println("%s %s %s (wheel not built)",
				color.New(color.FgRed, color.Bold).Sprint("✖"), pkg.Name, pkg.Version)
		}
	}

	logger.Println("")
	if report.Venv {
		logger.Success("virtual environment present (%s)", settings.VenvPython)
	} else {
		logger.Println("%s virtual environment missing",
			color.New(color.FgRed, color.Bold).Sprint("✖"))
	}

	if report.LastRun != nil {
		logger.Dim("Last successful run: %s (%s)",
			report.LastRun.CompletedAt.Local().Format("2006-01-02 15:04:05"), report.LastRun.ID)
	} else {
		logger.Dim("No completed run recorded.")
	}
}
