package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tributary-ai-services/Markguard/pkg/gate"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

func (a *app) checkLLMCmd() *cobra.Command {
	var (
		recordsPath string
		userID      string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check-llm [text...]",
		Short: "Check content bound for an LLM provider",
		Long: "Check each positional text, and the accomplishment records in --accomplishments " +
			"(a JSON array, \"-\" for stdin), as the outbound LLM gate would. Exits 1 when blocked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && recordsPath == "" {
				return fmt.Errorf("nothing to check: pass text or --accomplishments")
			}

			records, err := a.loadAccomplishments(recordsPath)
			if err != nil {
				return err
			}

			log, err := a.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			g := gate.New(
				gate.WithScanner(a.scanner()),
				gate.WithLogger(log.WithComponent("gate").Logger),
				gate.WithTimeout(timeout),
			)

			decision, err := g.CheckLLM(cmd.Context(), gate.LLMRequest{
				UserID:          userID,
				Texts:           args,
				Accomplishments: records,
			})
			if err != nil {
				return runtimeError{err}
			}

			if err := decision.Err(); err != nil {
				a.exitCode = ExitFindings
				fmt.Fprintln(a.out, err)
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, decision.Summary)
				return nil
			}
			fmt.Fprintln(a.out, "Allowed: no sensitive data detected.")
			return nil
		},
	}

	cmd.Flags().StringVar(&recordsPath, "accomplishments", "", "JSON file of accomplishment records (\"-\" for stdin)")
	cmd.Flags().StringVar(&userID, "user", "", "User id recorded in logs")
	cmd.Flags().DurationVar(&timeout, "timeout", gate.DefaultTimeout, "Check timeout")
	return cmd
}

func (a *app) loadAccomplishments(path string) ([]scan.Accomplishment, error) {
	if path == "" {
		return nil, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, runtimeError{fmt.Errorf("reading accomplishments: %w", err)}
	}

	var records []scan.Accomplishment
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing accomplishments: %w", err)
	}
	return records, nil
}
