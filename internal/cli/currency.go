package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/dto"
)

// cliActor is recorded in audit fields for rows created from the command line.
const cliActor = "cli"

var listCurrenciesCmd = &cobra.Command{
	Use:   "list-currencies",
	Short: "List the currencies known to the reporting system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		currencies, err := container.Currency.ListCurrencies(ctx)
		if err != nil {
			return err
		}
		if len(currencies) == 0 {
			fmt.Println("No currencies registered")
			return nil
		}

		fmt.Printf("%-6s %-8s %-30s %s\n", "CODE", "SYMBOL", "NAME", "PRECISION")
		for _, currency := range currencies {
			fmt.Printf("%-6s %-8s %-30s %d\n",
				currency.CurrencyCode, currency.Symbol, currency.Name, currency.Precision)
		}
		return nil
	},
}

var addCurrencyCmd = &cobra.Command{
	Use:   "add-currency CODE NAME",
	Short: "Register a currency",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := strings.ToUpper(args[0])
		if len(code) != 3 {
			return fmt.Errorf("invalid currency code %q, expected 3 letters", args[0])
		}
		name := strings.Join(args[1:], " ")

		symbol, _ := cmd.Flags().GetString("symbol")
		if symbol == "" {
			symbol = code
		}
		precision, _ := cmd.Flags().GetInt("precision")

		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		currency, err := container.Currency.CreateCurrency(ctx, dto.CreateCurrencyRequest{
			CurrencyCode: code,
			Symbol:       symbol,
			Name:         name,
			Precision:    precision,
		}, cliActor)
		if err != nil {
			return err
		}

		fmt.Printf("Added %s (%s)\n", currency.CurrencyCode, currency.Name)
		return nil
	},
}

func init() {
	addCurrencyCmd.Flags().String("symbol", "", "display symbol (defaults to the code)")
	addCurrencyCmd.Flags().Int("precision", 2, "display decimal places")

	rootCmd.AddCommand(listCurrenciesCmd)
	rootCmd.AddCommand(addCurrencyCmd)
}
