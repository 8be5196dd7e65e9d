package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

type ruleOutput struct {
	Type     scan.RuleType `json:"type"`
	Category scan.Category `json:"category"`
	Severity scan.Severity `json:"severity"`
	Label    string        `json:"label"`
	Context  bool          `json:"requires_context"`
}

func (a *app) rulesCmd() *cobra.Command {
	var (
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the detection rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scan.DefaultRegistry()

			rules := reg.Rules()
			if category != "" {
				c := scan.Category(category)
				if !c.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				rules = reg.ByCategory(c)
			}

			out := make([]ruleOutput, len(rules))
			for i, r := range rules {
				out[i] = ruleOutput{
					Type:     r.Type,
					Category: r.Category,
					Severity: r.Severity,
					Label:    r.Label,
					Context:  r.Context != nil,
				}
			}

			if asJSON {
				return a.writeJSON(out)
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tCATEGORY\tSEVERITY\tLABEL")
			for _, r := range out {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.Category, r.Severity, r.Label)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list rules of this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rules as JSON")
	return cmd
}
