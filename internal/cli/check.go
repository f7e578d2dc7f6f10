package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/stochval/internal/engine"
	"github.com/AndreyAkinshin/stochval/internal/errors"
	"github.com/AndreyAkinshin/stochval/internal/reference"
)

// checkTimeout bounds each availability probe.
const checkTimeout = 10 * time.Second

func newCheckCmd() *cobra.Command {
	var binary string
	var packages []string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the target engine, Rscript and R packages are available",
		Example: "  stochval check\n" +
			"  stochval check --package triangle --package mc2d",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), binary, packages)
		},
	}
	f := cmd.Flags()
	f.StringVar(&binary, "binary", "", "forge binary (default: FORGE_BIN, sibling build, PATH)")
	f.StringSliceVar(&packages, "package", nil, "R package that must be installed (repeatable)")
	return cmd
}

func runCheck(ctx context.Context, binary string, packages []string) error {
	proj, err := loadProject(&suiteFlags{})
	if err != nil {
		return err
	}
	cfg := proj.Config
	if binary != "" {
		cfg.Engine.Binary = binary
	}

	var problems int

	forgePath, err := resolveForge(cfg.Engine.Binary)
	if err != nil {
		out.Errorln("  forge: %v", err)
		problems++
	} else {
		pctx, cancel := context.WithTimeout(ctx, checkTimeout)
		version, err := engine.NewForge(forgePath).Version(pctx)
		cancel()
		if err != nil {
			out.Errorln("  forge: %s: %v", forgePath, err)
			problems++
		} else {
			out.ValidationSuccess("forge: %s (%s)", version, forgePath)
		}
	}

	rscript := reference.NewRscript(cfg.Reference.Rscript, proj.ValidatorsDir())
	rscript.Timeout = checkTimeout
	rVersion, err := rscript.CheckAvailable(ctx)
	if err != nil {
		out.Errorln("  Rscript: %v", err)
		problems++
	} else {
		out.ValidationSuccess("Rscript: %s", rVersion)
		for _, pkg := range packages {
			ok, err := rscript.CheckPackage(ctx, pkg)
			switch {
			case err != nil:
				out.Errorln("  R package %s: %v", pkg, err)
				problems++
			case !ok:
				out.Errorln("  R package %s: not installed", pkg)
				problems++
			default:
				out.ValidationSuccess("R package %s", pkg)
			}
		}
	}

	if problems > 0 {
		return errors.Environmentf("%d of the required collaborators are unavailable", problems)
	}
	return nil
}
