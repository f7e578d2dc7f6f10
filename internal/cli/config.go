package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/stochval/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate .stochval/config.json and the suites it points to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate()
		},
	})
	return cmd
}

func runConfigValidate() error {
	sf := &suiteFlags{strict: true}
	proj, err := loadProject(sf)
	if err != nil {
		return err
	}
	if !proj.HasConfig {
		return errors.Config("no .stochval/config.json found; using built-in defaults")
	}

	specs, err := loadSpecs(proj, sf)
	if err != nil {
		return err
	}
	tol, err := proj.Config.ResolveTolerance()
	if err != nil {
		return errors.Config(err.Error())
	}

	var mc int
	for _, s := range specs {
		if s.HasDistribution() {
			mc++
		}
	}

	out.ValidationSuccess("Configuration is valid.")
	out.SummaryItem("Config", proj.ConfigPath())
	out.SummaryItem("Tolerance", fmt.Sprintf("%s (mean %.3g, std %.3g, percentiles %.3g, ks p %.3g, ci %.3g)",
		proj.Config.Tolerance.Preset, tol.Mean, tol.Std, tol.Percentiles, tol.KSPValue, tol.CIBounds))
	out.SummaryItem("Cases", fmt.Sprintf("%d (%d Monte Carlo)", len(specs), mc))
	if len(proj.Warnings) > 0 {
		out.SummaryItem("Warnings", fmt.Sprintf("%d", len(proj.Warnings)))
	}
	return nil
}
