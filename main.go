package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/username/clubledger/backend/src/config"
	"github.com/username/clubledger/backend/src/logger"
	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/security"
	"github.com/username/clubledger/backend/src/services"
	"github.com/username/clubledger/backend/src/store"
)

const usage = `clubledger - club ledger import/reconciliation tool

Usage:
  clubledger import --type <expenses|income|customers|invoices> --file <path> [--season <s>] [--dry-run]
  clubledger qb --file <path> [--season <s>] [--dry-run] [--players-only|--finances-only|--sponsors-only]
  clubledger hash-password

Exit code 0 on success with zero per-record errors; 1 otherwise.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	switch os.Args[1] {
	case "import":
		runImport(os.Args[2:])
	case "qb":
		runQB(os.Args[2:])
	case "hash-password":
		runHashPassword()
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	importType := fs.String("type", "", "export type: expenses, income, customers, invoices")
	filePath := fs.String("file", "", "path to the export file")
	season := fs.String("season", config.Cfg.DefaultSeason, "season the records belong to")
	dryRun := fs.Bool("dry-run", false, "validate and log without writing")
	fs.Parse(args)

	switch *importType {
	case "expenses", "income", "customers", "invoices":
	default:
		logger.L.Error("Invalid --type", "type", *importType)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	svc, cleanup := buildService(*season, *dryRun)
	defer cleanup()

	file := openInputFile(*filePath)
	defer file.Close()

	ctx := context.Background()
	var summary *services.ImportSummary
	var err error
	switch *importType {
	case "expenses":
		summary, err = svc.ImportExpenses(ctx, file)
	case "income":
		summary, err = svc.ImportIncome(ctx, file)
	case "customers":
		summary, err = svc.ImportCustomers(ctx, file)
	case "invoices":
		summary, err = svc.ImportInvoices(ctx, file)
	}
	finishRun(*importType, summary, err, *dryRun)
}

func runQB(args []string) {
	fs := flag.NewFlagSet("qb", flag.ExitOnError)
	filePath := fs.String("file", "", "path to the sales-detail statement")
	season := fs.String("season", config.Cfg.DefaultSeason, "season the records belong to")
	dryRun := fs.Bool("dry-run", false, "validate and log without writing")
	playersOnly := fs.Bool("players-only", false, "create/update player entities only")
	financesOnly := fs.Bool("finances-only", false, "apply charges and payments only")
	sponsorsOnly := fs.Bool("sponsors-only", false, "record denylisted sponsors only")
	fs.Parse(args)

	selected := 0
	for _, b := range []bool{*playersOnly, *financesOnly, *sponsorsOnly} {
		if b {
			selected++
		}
	}
	if selected > 1 {
		logger.L.Error("At most one of --players-only, --finances-only, --sponsors-only may be set")
		os.Exit(1)
	}

	svc, cleanup := buildService(*season, *dryRun)
	defer cleanup()

	file := openInputFile(*filePath)
	defer file.Close()

	summary, err := svc.ImportSalesDetail(context.Background(), file, services.QBOptions{
		PlayersOnly:  *playersOnly,
		FinancesOnly: *financesOnly,
		SponsorsOnly: *sponsorsOnly,
	})
	finishRun("salesdetail", summary, err, *dryRun)
}

// runHashPassword mints the bcrypt hash for LEDGER_ADMIN_HASH from a
// prompted password. Convenience for first-time setup.
func runHashPassword() {
	auth := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.SessionExpiry)
	fmt.Fprint(os.Stderr, "Password to hash: ")
	var password string
	fmt.Scanln(&password)
	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.L.Error("Failed to hash password", "error", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// buildService wires the pipeline. LIVE mode performs the one-time
// authentication handshake and opens the store before any row is read;
// both failures are fatal with no partial processing. Dry-run touches
// neither credentials nor the store.
func buildService(season string, dryRun bool) (services.ImportService, func()) {
	mode := services.ModeLive
	operator := "import-cli"
	cleanup := func() {}

	var st store.DocumentStore
	if dryRun {
		mode = services.ModeDryRun
	} else {
		auth := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.SessionExpiry)
		if user := os.Getenv("USER"); user != "" {
			operator = user
		}
		token, err := auth.SignIn(operator, config.Cfg.LedgerPassword, config.Cfg.AdminPasswordHash)
		if err != nil {
			logger.L.Error("Sign-in failed", "error", err)
			os.Exit(1)
		}
		if operator, err = auth.ValidateToken(token); err != nil {
			logger.L.Error("Session token invalid", "error", err)
			os.Exit(1)
		}

		sqliteStore, err := store.OpenSQLite(config.Cfg.DatabasePath)
		if err != nil {
			logger.L.Error("Failed to open ledger store", "error", err)
			os.Exit(1)
		}
		st = sqliteStore
		cleanup = func() { sqliteStore.Close() }
	}

	executor := services.NewExecutor(st, season, operator, mode, config.Cfg.WriteRatePerSec)
	svc := services.NewImportService(
		executor,
		mappers.NewCategoryMapper(mappers.DefaultCategoryTable),
		mappers.NewMethodMapper(mappers.DefaultMethodTable),
		names.NewMatcher(names.DefaultDenylist),
		config.Cfg.ProgressInterval,
		mode,
	)
	return svc, cleanup
}

func openInputFile(path string) *os.File {
	if path == "" {
		logger.L.Error("--file is required")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	info, err := os.Stat(path)
	if err != nil {
		logger.L.Error("Input file not accessible", "file", path, "error", err)
		os.Exit(1)
	}
	if info.Size() > config.Cfg.MaxFileSizeBytes {
		logger.L.Error("Input file exceeds size limit", "file", path,
			"size", info.Size(), "limit", config.Cfg.MaxFileSizeBytes)
		os.Exit(1)
	}
	file, err := os.Open(path)
	if err != nil {
		logger.L.Error("Failed to open input file", "file", path, "error", err)
		os.Exit(1)
	}
	return file
}

// finishRun prints the operator-facing summary and error list, sends the
// summary email for LIVE runs, and sets the exit code: zero only when
// every record applied cleanly.
func finishRun(source string, summary *services.ImportSummary, err error, dryRun bool) {
	if err != nil {
		logger.L.Error("Import failed", "source", source, "error", err)
		os.Exit(1)
	}

	label := ""
	if dryRun {
		label = "[DRY RUN] "
	}
	fmt.Printf("%sImport complete: %d imported, %d skipped, %d errors in %s\n",
		label, summary.Imported, summary.Skipped, len(summary.Errors),
		summary.Elapsed.Round(time.Millisecond))
	for _, e := range summary.Errors {
		fmt.Printf("%s  error: %s\n", label, e.Error())
	}

	if !dryRun {
		if mailErr := services.NewEmailService().SendImportSummary(source, summary); mailErr != nil {
			logger.L.Warn("Summary email not sent", "error", mailErr)
		}
	}

	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}
