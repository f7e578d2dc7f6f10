package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/stochval/internal/tests"
)

func newListCmd() *cobra.Command {
	sf := &suiteFlags{}
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the test cases found in the suite directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proj, err := loadProject(sf)
			if err != nil {
				return err
			}
			specs, err := loadSpecs(proj, sf)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if specs == nil {
					specs = []tests.TestSpec{}
				}
				return enc.Encode(specs)
			}
			printSpecTable(specs)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sf.testsDir, "tests", "", "suite directory (default from config)")
	f.StringVar(&sf.pattern, "pattern", "", "suite file glob (default from config)")
	f.StringVar(&sf.filter, "run", "", "only list cases whose name matches this regular expression")
	f.BoolVar(&asJSON, "json", false, "print cases as JSON")
	return cmd
}

var titleCaser = cases.Title(language.English)

func printSpecTable(specs []tests.TestSpec) {
	if len(specs) == 0 {
		out.Info("No test cases found.")
		return
	}

	rows := make([][]string, 0, len(specs))
	for _, s := range specs {
		dist := "-"
		if s.HasDistribution() {
			dist = titleCaser.String(s.Distribution)
		}
		rows = append(rows, []string{
			s.Suite,
			s.Name,
			dist,
			formatParams(s.Params),
			strconv.FormatUint(s.Seed, 10),
			strconv.Itoa(s.Iterations),
			s.Validator,
		})
	}
	out.Table([]string{"Suite", "Name", "Distribution", "Params", "Seed", "Iterations", "Validator"}, rows)
	out.Info("%s", plural(len(specs), "case"))
}

// formatParams renders params as sorted key=value pairs.
func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, strconv.FormatFloat(params[k], 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}
