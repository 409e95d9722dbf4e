// Command bimi validates BIMI policies and Verified Mark Certificates
// from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/synqronlabs/bimi"
	"github.com/synqronlabs/bimi/cache"
	"github.com/synqronlabs/bimi/dns"
	"github.com/synqronlabs/bimi/policy"
)

var (
	selector    string
	nameservers []string
	timeout     time.Duration
	noColor     bool
	verbose     bool

	skipIndicator bool
	skipVMC       bool
	collectAll    bool
	requireCT     bool
	acceptOrgDom  bool
	maxSize       int64
	schemaCommand []string
)

var rootCmd = &cobra.Command{
	Use:   "bimi",
	Short: "Validate BIMI policies and Verified Mark Certificates",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate <domain>",
	Short: "Run the full validation pipeline for a domain",
	Long: `Resolve the domain's BIMI policy, validate the indicator, and validate
the Verified Mark Certificate it names. The exit code is 0 for pass,
none and declined, and 1 for any failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <domain>",
	Short: "Resolve and print the BIMI policy record only",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&selector, "selector", "s", policy.DefaultSelector, "BIMI selector")
	rootCmd.PersistentFlags().StringSliceVar(&nameservers, "nameserver", nil, "Nameserver address (host:port), may be repeated")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	validateCmd.Flags().BoolVar(&skipIndicator, "skip-indicator", false, "Skip indicator validation")
	validateCmd.Flags().BoolVar(&skipVMC, "skip-vmc", false, "Skip certificate validation")
	validateCmd.Flags().BoolVar(&collectAll, "collect-all", false, "Report every failure instead of stopping at the first")
	validateCmd.Flags().BoolVar(&requireCT, "require-ct", false, "Require a valid Signed Certificate Timestamp")
	validateCmd.Flags().BoolVar(&acceptOrgDom, "accept-org-domain", false, "Accept certificates issued for the organizational domain")
	validateCmd.Flags().Int64Var(&maxSize, "max-size", 0, "Download size limit in bytes (0 = unlimited)")
	validateCmd.Flags().StringSliceVar(&schemaCommand, "schema-command", nil, "External SVG schema validator argv, e.g. java,-jar,jing.jar,-c,svg.rnc")

	rootCmd.AddCommand(validateCmd, lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newResolver() dns.Resolver {
	if len(nameservers) == 0 {
		return dns.NewStdResolver()
	}
	return dns.NewResolver(dns.ResolverConfig{Nameservers: nameservers})
}

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runValidate(cmd *cobra.Command, args []string) error {
	domain := args[0]

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	v := bimi.NewValidator(bimi.Config{
		Resolver:      newResolver(),
		SchemaCommand: schemaCommand,
		Cache:         cache.New(0, 0),
		Logger:        newLogger(),
	})

	outcome := v.Validate(ctx, domain, bimi.Options{
		Lookup:        bimi.LookupOptions{Selector: selector},
		Indicator:     bimi.IndicatorOptions{MaxSize: maxSize},
		VMC:           bimi.VMCOptions{MaxSize: maxSize, RequireCTLogging: requireCT, AcceptSubdomainFallback: acceptOrgDom},
		SkipIndicator: skipIndicator,
		SkipVMC:       skipVMC,
		CollectAll:    collectAll,
	})

	printOutcome(domain, outcome)

	if outcome.Status == bimi.StatusTemperror || outcome.Status == bimi.StatusPermerror {
		os.Exit(1)
	}
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	domain := args[0]

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rec, err := policy.Lookup(ctx, newResolver(), domain, selector)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", color.GreenString("domain:"), rec.Domain)
	fmt.Printf("%s %s\n", color.GreenString("selector:"), rec.Selector)
	fmt.Printf("%s %s\n", color.GreenString("indicator:"), rec.Location)
	if rec.HasAuthorityEvidence() {
		fmt.Printf("%s %s\n", color.GreenString("evidence:"), rec.AuthorityEvidenceLocation)
	}
	return nil
}

func printOutcome(domain string, outcome bimi.Outcome) {
	switch outcome.Status {
	case bimi.StatusPass:
		fmt.Printf("%s %s\n", color.GreenString("PASS"), domain)
	case bimi.StatusNone:
		fmt.Printf("%s %s publishes no BIMI policy\n", color.YellowString("NONE"), domain)
	case bimi.StatusDeclined:
		fmt.Printf("%s %s declines BIMI participation\n", color.YellowString("DECLINED"), domain)
	case bimi.StatusTemperror:
		fmt.Printf("%s %s: %s (retry later)\n", color.RedString("TEMPERROR"), domain, outcome.Message)
	case bimi.StatusPermerror:
		fmt.Printf("%s %s: [%s] %s\n", color.RedString("PERMERROR"), domain, outcome.Kind, outcome.Message)
	}

	if outcome.Record != nil && verbose {
		fmt.Printf("  record: %s\n", outcome.Record)
	}
	if outcome.VMC != nil {
		fmt.Printf("  mark: %s (issued by %s, valid until %s)\n",
			outcome.VMC.OrganizationName, outcome.VMC.Issuer,
			outcome.VMC.ExpiresOn.Format(time.DateOnly))
	}
	for _, err := range outcome.Collected {
		fmt.Printf("  %s %v\n", color.RedString("-"), err)
	}
}
