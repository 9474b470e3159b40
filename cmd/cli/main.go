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
		Use:   "fraudgate-cli",
		Short: "Fraudgate CLI tool",
		Long:  `A command line interface for interacting with the Fraudgate API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Fraudgate API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(), transactionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var accountNo, holderName, initialBalance string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/accounts", map[string]string{
				"accountNo":      accountNo,
				"holderName":     holderName,
				"initialBalance": initialBalance,
			})
		},
	}
	createCmd.Flags().StringVar(&accountNo, "account-no", "", "Account number")
	createCmd.Flags().StringVar(&holderName, "holder", "", "Account holder name")
	createCmd.Flags().StringVar(&initialBalance, "balance", "0", "Initial balance")
	_ = createCmd.MarkFlagRequired("account-no")
	_ = createCmd.MarkFlagRequired("holder")

	getCmd := &cobra.Command{
		Use:   "get ACCOUNT_NO",
		Short: "Look up an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/accounts/" + args[0])
		},
	}

	cmd.AddCommand(createCmd, getCmd)
	return cmd
}

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction operations",
	}

	var from, to, amount string
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Request a transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/transactions/transfer", map[string]string{
				"fromAccount": from,
				"toAccount":   to,
				"amount":      amount,
			})
		},
	}
	transferCmd.Flags().StringVar(&from, "from", "", "Origin account number")
	transferCmd.Flags().StringVar(&to, "to", "", "Destination account number")
	transferCmd.Flags().StringVar(&amount, "amount", "", "Transfer amount")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")

	getCmd := &cobra.Command{
		Use:   "get TX_ID",
		Short: "Look up a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/transactions/" + args[0])
		},
	}

	var action, reviewer, note string
	reviewCmd := &cobra.Command{
		Use:   "review TX_ID",
		Short: "Approve or reject a transaction held for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/transactions/"+args[0]+"/review", map[string]string{
				"action":     action,
				"reviewedBy": reviewer,
				"note":       note,
			})
		},
	}
	reviewCmd.Flags().StringVar(&action, "action", "", "Review action (APPROVE or REJECT)")
	reviewCmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer identity")
	reviewCmd.Flags().StringVar(&note, "note", "", "Optional review note")
	_ = reviewCmd.MarkFlagRequired("action")
	_ = reviewCmd.MarkFlagRequired("reviewer")

	cmd.AddCommand(transferCmd, getCmd, reviewCmd)
	return cmd
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func postJSON(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		fmt.Println(string(body))
	} else {
		printJSON(decoded)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
