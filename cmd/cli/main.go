package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "settlecore-cli",
		Short: "Settlecore CLI tool",
		Long:  `A command line interface for operating the settlecore settlement API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the settlecore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reconcileCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "reconcile <project-id>",
		Short: "Scan a project for balance drift, optionally fixing flagged accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := postJSON("/api/v1/projects/"+args[0]+"/reconciliation", map[string]any{"apply": apply})
			if err != nil {
				return err
			}

			var report struct {
				ProjectID     string `json:"project_id"`
				DryRun        bool   `json:"dry_run"`
				TotalAccounts int    `json:"total_accounts"`
				AppliedCount  int    `json:"applied_count"`
				Flagged       []struct {
					AccountID string `json:"account_id"`
					Currency  string `json:"currency"`
					Delta     string `json:"delta"`
				} `json:"flagged"`
				Failures []struct {
					AccountID string `json:"account_id"`
					Error     string `json:"error"`
					Conflict  bool   `json:"conflict"`
				} `json:"failures"`
			}
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			mode := "DRY RUN"
			if !report.DryRun {
				mode = "APPLY"
			}
			fmt.Printf("Project %s [%s]: %d accounts checked, %d flagged, %d fixed, %d failed\n",
				report.ProjectID, mode, report.TotalAccounts, len(report.Flagged), report.AppliedCount, len(report.Failures))

			for _, f := range report.Flagged {
				fmt.Printf("  %-28s %-5s delta=%s\n", truncate(f.AccountID, 28), f.Currency, f.Delta)
			}
			for _, f := range report.Failures {
				reason := f.Error
				if f.Conflict {
					reason = "conflict: " + reason
				}
				fmt.Printf("  %-28s FAILED %s\n", truncate(f.AccountID, 28), reason)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply fixes instead of dry-run reporting")

	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <account-id>",
		Short: "Show the discrepancy record for one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/accounts/" + args[0] + "/discrepancy")
			if err != nil {
				return err
			}

			return printRaw(body)
		},
	}
}

func consolidateCmd() *cobra.Command {
	var forwardPlanning bool

	cmd := &cobra.Command{
		Use:   "consolidate <project-id>",
		Short: "Aggregate all project balances into the consolidation currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/projects/" + args[0] + "/consolidation"
			if forwardPlanning {
				path += "?forward_planning=true"
			}

			body, err := getJSON(path)
			if err != nil {
				return err
			}

			return printRaw(body)
		},
	}

	cmd.Flags().BoolVar(&forwardPlanning, "forward-planning", false, "Use the project's manual working rate instead of the market rate")

	return cmd
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates <currency>",
		Short: "Show the resolved base rate for a currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/rates/" + args[0])
			if err != nil {
				return err
			}

			return printRaw(body)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Project currency configuration",
	}

	getCmd := &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show a project's currency configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/projects/" + args[0] + "/config")
			if err != nil {
				return err
			}

			return printRaw(body)
		},
	}

	var (
		consolidationCurrency string
		manualRate            string
	)

	setCmd := &cobra.Command{
		Use:   "set <project-id>",
		Short: "Update a project's currency configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"consolidation_currency": consolidationCurrency,
			}
			if manualRate != "" {
				payload["manual_rate"] = manualRate
			}

			body, err := putJSON("/api/v1/projects/"+args[0]+"/config", payload)
			if err != nil {
				return err
			}

			return printRaw(body)
		},
	}

	setCmd.Flags().StringVar(&consolidationCurrency, "currency", "USD", "Consolidation currency code")
	setCmd.Flags().StringVar(&manualRate, "manual-rate", "", "Manual consolidation rate (omit to clear)")

	cmd.AddCommand(getCmd)
	cmd.AddCommand(setCmd)

	return cmd
}

func getJSON(path string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}

	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func postJSON(path string, payload any) ([]byte, error) {
	return sendJSON(http.MethodPost, path, payload)
}

func putJSON(path string, payload any) ([]byte, error) {
	return sendJSON(http.MethodPut, path, payload)
}

func sendJSON(method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func printRaw(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(v)

	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render: %v\n", err)
		return
	}

	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}

	return s[:max-3] + "..."
}
