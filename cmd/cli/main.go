package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
)

const dateLayout = "2006-01-02"

type cliOptions struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "cardledger-cli",
		Short:         "CardLedger CLI tool",
		Long:          `A command line interface for the CardLedger API and its billing-cycle engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the CardLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CARDLEDGER_TOKEN"), "Bearer token (defaults to $CARDLEDGER_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newMonthCmd(opts),
		newSummaryCmd(opts),
		newInvoiceCmd(opts),
		newSeriesCmd(opts),
		newCycleCmd(),
		newInstallmentsCmd(),
		newTokenCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}

// API commands

func newMonthCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month YEAR MONTH",
		Short: "Show entries and card invoices of a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle, err := parseCycleArgs(args[0], args[1])
			if err != nil {
				return err
			}

			var month dto.MonthResponse
			path := fmt.Sprintf("/api/v1/months/%d/%d", cycle.Year, int(cycle.Month))
			if err := opts.do(http.MethodGet, path, nil, &month); err != nil {
				return err
			}

			printMonth(cmd.OutOrStdout(), &month)
			return nil
		},
	}
}

func newSummaryCmd(opts *cliOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "summary YEAR MONTH",
		Short: "Show income, expenses and top categories of a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle, err := parseCycleArgs(args[0], args[1])
			if err != nil {
				return err
			}

			var summary dto.SummaryResponse
			path := fmt.Sprintf("/api/v1/summary/%d/%d/?top=%d", cycle.Year, int(cycle.Month), top)
			if err := opts.do(http.MethodGet, path, nil, &summary); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cycle:            %s\n", summary.Cycle)
			fmt.Fprintf(out, "Income:           %s\n", summary.Income.StringFixed(2))
			fmt.Fprintf(out, "Expenses:         %s\n", summary.Expenses.StringFixed(2))
			fmt.Fprintf(out, "Balance:          %s\n", summary.Balance.StringFixed(2))
			fmt.Fprintf(out, "Pending income:   %s\n", summary.PendingIncome.StringFixed(2))
			fmt.Fprintf(out, "Pending expenses: %s\n", summary.PendingExpenses.StringFixed(2))
			if len(summary.Categories) > 0 {
				fmt.Fprintln(out, "Top categories:")
				for _, c := range summary.Categories {
					fmt.Fprintf(out, "  %-20s %12s\n", truncate(c.Category, 20), c.Amount.StringFixed(2))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "Number of categories to show")
	return cmd
}

func newInvoiceCmd(opts *cliOptions) *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Card invoice operations",
	}

	var status string
	toggleCmd := &cobra.Command{
		Use:   "toggle CARD_ID YEAR MONTH",
		Short: "Flip (or set with --status) the payment status of a card invoice",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle, err := parseCycleArgs(args[1], args[2])
			if err != nil {
				return err
			}
			if status != "" && !domain.EntryStatus(status).Valid() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
			}

			var body any
			if status != "" {
				body = dto.InvoiceStatusRequest{Status: &status}
			}

			var change dto.StatusChangeResponse
			path := fmt.Sprintf("/api/v1/cards/%s/invoices/%d/%d/status", args[0], cycle.Year, int(cycle.Month))
			if err := opts.do(http.MethodPost, path, body, &change); err != nil {
				return err
			}

			if len(change.MemberIDs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No invoice for card %s in %s\n", args[0], cycle)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s is now %s (%d entries)\n", change.InvoiceID, change.Status, len(change.MemberIDs))
			return nil
		},
	}
	toggleCmd.Flags().StringVar(&status, "status", "", "Target status (pending or completed); omitted flips the current status")

	invoiceCmd.AddCommand(toggleCmd)
	return invoiceCmd
}

func newSeriesCmd(opts *cliOptions) *cobra.Command {
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Installment series operations",
	}

	var from string
	deleteForwardCmd := &cobra.Command{
		Use:   "delete-forward ENTRY_ID",
		Short: "Delete an installment and every later installment of its series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/entries/" + args[0] + "/forward"
			if from != "" {
				if _, err := time.Parse(dateLayout, from); err != nil {
					return fmt.Errorf("%w: %q", domain.ErrInvalidDate, from)
				}
				path += "?from=" + from
			}

			var result dto.DeleteForwardResponse
			if err := opts.do(http.MethodDelete, path, nil, &result); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", len(result.Deleted))
			for _, id := range result.Deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
			}
			return nil
		},
	}
	deleteForwardCmd.Flags().StringVar(&from, "from", "", "Cutoff date YYYY-MM-DD (defaults to the entry's own date)")

	seriesCmd.AddCommand(deleteForwardCmd)
	return seriesCmd
}

// Offline commands

func newCycleCmd() *cobra.Command {
	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Billing cycle calculations (offline)",
	}

	var closingDay int
	resolveCmd := &cobra.Command{
		Use:   "resolve DATE",
		Short: "Show which invoice month a purchase date belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidDate, args[0])
			}
			if err := domain.ValidateDayOfMonth(closingDay); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), billing.ResolveCycle(date, closingDay))
			return nil
		},
	}

	var boundsClosingDay int
	boundsCmd := &cobra.Command{
		Use:   "bounds YEAR MONTH",
		Short: "Show the statement window of an invoice month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle, err := parseCycleArgs(args[0], args[1])
			if err != nil {
				return err
			}
			if err := domain.ValidateDayOfMonth(boundsClosingDay); err != nil {
				return err
			}

			b := billing.CycleBounds(cycle, boundsClosingDay)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s .. %s\n", cycle, b.Start.Format(dateLayout), b.End.Format(dateLayout))
			return nil
		},
	}

	resolveCmd.Flags().IntVar(&closingDay, "closing-day", 1, "Card statement closing day")
	boundsCmd.Flags().IntVar(&boundsClosingDay, "closing-day", 1, "Card statement closing day")
	cycleCmd.AddCommand(resolveCmd, boundsCmd)
	return cycleCmd
}

func newInstallmentsCmd() *cobra.Command {
	installmentsCmd := &cobra.Command{
		Use:   "installments",
		Short: "Installment series calculations (offline)",
	}

	var (
		amount     string
		count      int
		date       string
		mode       string
		closingDay int
	)
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the dated installments a purchase expands to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil || value.IsNegative() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amount)
			}
			start, err := time.Parse(dateLayout, date)
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
			}
			amountMode := billing.AmountMode(mode)
			if !amountMode.Valid() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidAmountMode, mode)
			}

			template := domain.Entry{
				Description: "preview",
				Amount:      value,
				Date:        start,
				Kind:        domain.KindCardExpense,
			}
			seq := 0
			ids := billing.IDs{
				Entry: func() string { seq++; return strconv.Itoa(seq) },
				Group: func() string { return "preview" },
			}
			entries := billing.GenerateInstallments(template, count, amountMode, ids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if closingDay > 0 {
				fmt.Fprintln(w, "#\tDATE\tAMOUNT\tINVOICE")
			} else {
				fmt.Fprintln(w, "#\tDATE\tAMOUNT")
			}
			for _, e := range entries {
				position := 1
				if e.Installment != nil {
					position = e.Installment.Position
				}
				row := fmt.Sprintf("%d/%d\t%s\t%s", position, len(entries), e.Date.Format(dateLayout), e.Amount.StringFixed(2))
				if closingDay > 0 {
					row += "\t" + billing.ResolveCycle(e.Date, closingDay).String()
				}
				fmt.Fprintln(w, row)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if residual := billing.Residual(value, count, amountMode); !residual.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Unallocated residual: %s\n", residual.StringFixed(2))
			}
			return nil
		},
	}
	previewCmd.Flags().StringVar(&amount, "amount", "", "Purchase amount")
	previewCmd.Flags().IntVar(&count, "count", 1, "Number of installments")
	previewCmd.Flags().StringVar(&date, "date", time.Now().Format(dateLayout), "First installment date YYYY-MM-DD")
	previewCmd.Flags().StringVar(&mode, "mode", string(billing.AmountTotal), "Amount mode: total or per_installment")
	previewCmd.Flags().IntVar(&closingDay, "closing-day", 0, "Also show the invoice month for this closing day")
	_ = previewCmd.MarkFlagRequired("amount")

	installmentsCmd.AddCommand(previewCmd)
	return installmentsCmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret string
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{ID: userID, Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		path        string
	)

	open := func() (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		return postgres.NewMigrator(databaseURL, path)
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	migrateCmd.PersistentFlags().StringVar(&path, "path", "internal/infrastructure/postgres/migrations", "Migrations directory")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := open()
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Up()
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := open()
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Down(steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := open()
			if err != nil {
				return err
			}
			defer mg.Close()

			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

// helpers

func (o *cliOptions) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(o.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseCycleArgs(year, month string) (domain.Cycle, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("invalid year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return domain.Cycle{}, fmt.Errorf("invalid month %q", month)
	}
	return domain.NewCycle(y, time.Month(m)), nil
}

func printMonth(out io.Writer, month *dto.MonthResponse) {
	fmt.Fprintf(out, "Month %s\n", month.Cycle)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tKIND\tSTATUS\tAMOUNT")
	for _, e := range month.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Date, truncate(e.Description, 30), e.Kind, e.Status, e.Amount.StringFixed(2))
	}
	for _, inv := range month.Invoices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inv.DueDate, truncate(inv.Description, 30), "invoice", inv.Status, inv.Total.StringFixed(2))
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
