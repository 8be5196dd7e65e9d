package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

type scanOutput struct {
	HasSensitiveData bool                  `json:"has_sensitive_data"`
	Summary          string                `json:"summary,omitempty"`
	Matches          []scan.MatchMetadata  `json:"matches"`
	Details          []scan.SensitiveMatch `json:"details,omitempty"`
}

type redactOutput struct {
	Redacted string               `json:"redacted"`
	Matches  []scan.MatchMetadata `json:"matches"`
}

func (a *app) scanCmd() *cobra.Command {
	var (
		fieldPairs []string
		asJSON     bool
		showValues bool
	)

	cmd := &cobra.Command{
		Use:   "scan [text...]",
		Short: "Scan named fields or text for sensitive data",
		Long: "Scan named fields (--field name=text, repeatable) or the positional text, " +
			"or stdin when neither is given. Exits 1 when sensitive data is found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFieldFlags(fieldPairs)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				text, err := a.readInput(args)
				if err != nil {
					return err
				}
				fields = scan.ScanFields{{Text: text}}
			} else if len(args) > 0 {
				return fmt.Errorf("positional text cannot be combined with --field")
			}

			matches := a.scanner().Scan(fields)
			if matches == nil {
				matches = []scan.SensitiveMatch{}
			}
			if len(matches) > 0 {
				a.exitCode = ExitFindings
			}

			if asJSON {
				out := scanOutput{
					HasSensitiveData: len(matches) > 0,
					Summary:          scan.Summarize(matches),
					Matches:          scan.Metadata(matches),
				}
				if showValues {
					out.Details = matches
				}
				return a.writeJSON(out)
			}

			if len(matches) == 0 {
				fmt.Fprintln(a.out, "No sensitive data detected.")
				return nil
			}
			for _, m := range matches {
				location := fmt.Sprintf("@%d", m.Index)
				if m.Field != "" {
					location = m.Field + location
				}
				fmt.Fprintf(a.out, "%-14s %-16s %-7s %s\n", location, m.Type, m.Severity, m.Label)
			}
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, scan.Summarize(matches))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fieldPairs, "field", nil, "Field to scan as name=text (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print matches as JSON")
	cmd.Flags().BoolVar(&showValues, "show-values", false, "Include matched values and offsets in JSON output")
	return cmd
}

func (a *app) redactCmd() *cobra.Command {
	var (
		field  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "redact [text...]",
		Short: "Replace sensitive data with typed placeholders",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}

			redacted, matches := a.scanner().RedactField(text, field)
			if asJSON {
				return a.writeJSON(redactOutput{Redacted: redacted, Matches: scan.Metadata(matches)})
			}
			fmt.Fprint(a.out, redacted)
			if len(args) > 0 {
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "Field name recorded on matches")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the redacted text and match metadata as JSON")
	return cmd
}

func (a *app) summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize [text...]",
		Short: "Print the user-facing summary of what must be removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}

			matches := a.scanner().ScanText(text)
			if len(matches) == 0 {
				return nil
			}
			a.exitCode = ExitFindings
			fmt.Fprintln(a.out, scan.Summarize(matches))
			return nil
		},
	}
}

func (a *app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return runtimeError{fmt.Errorf("writing output: %w", err)}
	}
	return nil
}
