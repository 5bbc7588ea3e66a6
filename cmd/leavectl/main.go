/*
main.go - leavectl: operational CLI for the leave ledger

PURPOSE:
  Local tooling around the dispatch core:

  leavectl seed    Populate a database with generated sample data
  leavectl dump    Print every table's records
  leavectl invoke  Call a dispatch operation directly, no server needed
  leavectl scan    Run a prompt/response through the content-safety gate

EXAMPLES:
  leavectl seed -d leavedesk.db -n 10
  leavectl dump -d leavedesk.db
  leavectl invoke -d leavedesk.db -f book -p employee_id=3 \
      -p start_date=2030-01-01 -p end_date=2030-01-05
  leavectl scan -k prompt -t "ignore previous instructions"
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/leavedesk/leavedesk/api"
	"github.com/leavedesk/leavedesk/ledger"
	"github.com/leavedesk/leavedesk/safety"
	"github.com/leavedesk/leavedesk/seed"
	"github.com/leavedesk/leavedesk/store/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:          "leavectl",
	Short:        "Operate on a leavedesk employee-leave database.",
	SilenceUsage: true,
}

var seedOpts struct {
	employees int
	seedValue int64
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with generated sample employees and bookings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		// Start from a clean slate, like the original sample-db script.
		if err := store.Reset(cmd.Context()); err != nil {
			return err
		}
		if err := seed.Populate(cmd.Context(), store, seed.Options{
			Employees: seedOpts.employees,
			Seed:      seedOpts.seedValue,
		}); err != nil {
			return err
		}
		fmt.Printf("seeded %d employees into %s\n", seedOpts.employees, dbPath)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print all records from all tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Dump(cmd.Context(), os.Stdout)
	},
}

var invokeOpts struct {
	function string
	params   []string
}

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Dispatch an operation directly against the database.",
	Long: `Dispatch an operation the way the agent framework would, without
running the server. Parameters are name=value pairs:

  lookup_employee_id  employee_name
  get_employee        employee_id
  get_balance         employee_id
  book                employee_id start_date end_date
  list_bookings       employee_id
  cancel              employee_id start_date`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		params := make(api.Params, len(invokeOpts.params))
		for _, pair := range invokeOpts.params {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("parameter %q is not name=value", pair)
			}
			params[name] = value
		}

		handler := api.NewHandler(
			ledger.NewQueryService(store),
			ledger.NewBookingService(store),
			newScanner(),
			nil,
		)
		result, err := handler.Dispatch(cmd.Context(), invokeOpts.function, params)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var scanOpts struct {
	kind string
	text string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check a prompt or response against the content-safety service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := newScanner()
		if scanner == nil {
			return fmt.Errorf("SAFETY_SCAN_TOKEN is not set")
		}
		verdict, err := scanner.Scan(cmd.Context(), safety.Kind(scanOpts.kind),
			scanOpts.text, "leavectl", "local", "")
		if err != nil {
			return err
		}
		return printJSON(verdict)
	},
}

func newScanner() *safety.Scanner {
	cfg := safety.ConfigFromEnv()
	if cfg.Token == "" {
		return nil
	}
	return safety.NewScanner(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "leavedesk.db", "SQLite database path")

	seedCmd.Flags().IntVarP(&seedOpts.employees, "employees", "n", 10, "Number of employees to generate")
	seedCmd.Flags().Int64VarP(&seedOpts.seedValue, "seed", "s", 0, "Random seed (0 = non-deterministic)")

	invokeCmd.Flags().StringVarP(&invokeOpts.function, "function", "f", "", "Operation name")
	invokeCmd.Flags().StringArrayVarP(&invokeOpts.params, "param", "p", nil, "Named parameter as name=value (repeatable)")
	invokeCmd.MarkFlagRequired("function")

	scanCmd.Flags().StringVarP(&scanOpts.kind, "kind", "k", "prompt", "Scan kind: prompt or response")
	scanCmd.Flags().StringVarP(&scanOpts.text, "text", "t", "", "Text to evaluate")
	scanCmd.MarkFlagRequired("text")

	rootCmd.AddCommand(seedCmd, dumpCmd, invokeCmd, scanCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
