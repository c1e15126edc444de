package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sman-dk/danplanner2billy/pkg/archive"
	"github.com/sman-dk/danplanner2billy/pkg/billy"
	"github.com/sman-dk/danplanner2billy/pkg/config"
	"github.com/sman-dk/danplanner2billy/pkg/danplanner"
	"github.com/sman-dk/danplanner2billy/pkg/ledger"
	"github.com/sman-dk/danplanner2billy/pkg/prompt"
)

var (
	inputFile string
	toDate    string
	fromDate  string
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a Danplanner export into Billy",
	Long: `Import a Danplanner financial export file into Billy.

This command:
1. Parses the export and checks that debits and credits net to zero
2. Moves the file into the archive folder under a date-stamped name
3. Re-parses and re-validates the archived copy
4. Resolves every row against the Billy chart of accounts
5. After explicit confirmation, posts one draft daybook transaction
   and one line per row

Example:
  danplanner2billy import --file ~/Downloads/export.csv
  danplanner2billy import --file export.csv --to-date 2024-04-09T14:56:12
  danplanner2billy import --file export.csv --from-date 2024-01-01   (first run)`,
	Run: runImport,
}

func init() {
	// Flags
	importCmd.Flags().StringVarP(&inputFile, "file", "f", "", "input file (Danplanner export) (required)")
	importCmd.Flags().StringVarP(&toDate, "to-date", "t", "", "end of the import period if not today (ISO-8601, e.g. 2024-04-09 or 2024-04-09T14:56:12)")
	importCmd.Flags().StringVar(&fromDate, "from-date", "", "start of the import period; required on a first run when the archive folder is still empty")

	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) {
	now := time.Now()

	// Override dates are rejected before any file or network I/O.
	if toDate != "" {
		_, err := archive.ParseTimestamp(toDate)
		exitOnError(err, "invalid --to-date")
	}
	if fromDate != "" {
		_, err := archive.ParseTimestamp(fromDate)
		exitOnError(err, "invalid --from-date")
	}

	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	format, err := danplanner.NewNumberFormat(cfg.Files.CurrencyLocale)
	exitOnError(err, "failed to set up numeric locale")

	srcPath, err := config.ExpandHome(inputFile)
	exitOnError(err, "failed to resolve input file path")

	term := prompt.New(os.Stdin, os.Stdout)

	// Stale input files need an explicit operator override.
	age, err := archive.Age(srcPath, now)
	exitOnError(err, "failed to check input file age")
	if age > cfg.MaxAge() {
		ok, err := term.Confirm(fmt.Sprintf(
			"The input file %s is %d seconds old. This is more than the configured limit of %d. Do you want to proceed?",
			srcPath, int(age.Seconds()), cfg.Files.MaxFileAge))
		exitOnError(err, "failed to read answer")
		if !ok {
			fmt.Fprintln(os.Stderr, "Exiting!")
			os.Exit(1)
		}
	}

	// Dry validation pass against the original location. Nothing is
	// moved and nothing is posted until this succeeds.
	fmt.Printf("Checking the file %s\n", srcPath)
	batch, err := danplanner.ParseFile(srcPath, format)
	exitOnError(err, "failed to parse export file")
	exitOnError(batch.CheckBalance(), "export file failed the balance check, please check the data exported from Danplanner")
	fmt.Println("Danplanner file ok!")

	plan, err := archive.NewPlan(archive.Request{
		Source:   srcPath,
		Root:     cfg.Files.DstFolder,
		Now:      now,
		ToDate:   toDate,
		FromDate: fromDate,
	})
	exitOnError(err, "failed to plan the archive move")

	fmt.Printf("Moving file from %s to %s\n", plan.SourcePath, plan.DestPath)
	exitOnError(plan.Move(), "failed to move the export file")

	// Re-parse and re-validate the archived copy so corruption during
	// the move is caught before any remote call.
	batch, err = danplanner.ParseFile(plan.DestPath, format)
	exitOnError(err, "failed to re-parse the archived file")
	exitOnError(batch.CheckBalance(), "archived file failed the balance check")

	client := billy.NewClient(billy.ClientConfig{
		APIURL:   cfg.Billy.APIURL,
		APIKey:   cfg.Billy.APIKey,
		Currency: cfg.Billy.Currency,
	})

	fmt.Println("\n** Preparing Billy data **")
	fmt.Println("Fetching TAX/VAT rates")
	taxRates, err := client.ListTaxRates()
	exitOnError(err, "failed to fetch tax rates")

	accounts, err := client.ListAccounts()
	exitOnError(err, "failed to fetch the chart of accounts")

	fmt.Println("Lookup Billy account numbers")
	lines, err := ledger.Resolve(batch, accounts, taxRates)
	exitOnError(err, "failed to resolve accounts")
	for i, row := range batch {
		fmt.Printf("* Account no %d found in Billy:\n", row.AccountNo)
		fmt.Printf("  Danplanner name: %s\n", row.AccountName)
		fmt.Printf("  Billy name:      %s\n", lines[i].AccountName)
	}

	slog.Debug("Resolved batch", "rows", len(batch), "from", plan.FromDate, "to", plan.ToDate)

	poster := ledger.NewPoster(client, term, os.Stdout, cfg.Billy.Prefix)
	result, err := poster.Post(ledger.Batch{
		EntryDate: plan.To.Format("2006-01-02"),
		FromDate:  plan.FromDate,
		ToDate:    plan.ToDate,
		Lines:     lines,
	})
	exitOnError(err, "failed to upload to Billy")

	if result.Posted {
		fmt.Printf("Created draft daybook transaction %s with %d lines\n", result.TransactionID, len(result.LineIDs))
	}
	fmt.Println("\nFinished!")
}
