package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/cloudflare/cloudflare-go/v6/option"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eldritchtools/datapurge/internal/cdn"
	"github.com/eldritchtools/datapurge/internal/changes"
	"github.com/eldritchtools/datapurge/internal/config"
	"github.com/eldritchtools/datapurge/internal/logger"
	"github.com/eldritchtools/datapurge/internal/pipeline"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "purge":
		os.Exit(runPurge(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: datapurge <command> [flags]\n\nCommands:\n  purge    Purge changed data files from the CDN cache\n  version  Print version\n\nRun 'datapurge purge --help' for purge flags.\n")
}

func runPurge(args []string) int {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	configPath := fs.String("config", "datapurge.toml", "path to config file (.toml, .yaml or .yml)")
	domain := fs.String("domain", "", "base URL the data files are served from")
	before := fs.String("before", "", "revision before the push")
	after := fs.String("after", "", "revision after the push")
	repoDir := fs.String("repo-dir", "", "git working tree to diff")
	origins := fs.String("origins", "", "comma-separated origins to purge for")
	provider := fs.String("provider", "", "CDN provider: cloudflare or cloudfront")
	zoneID := fs.String("zone-id", "", "Cloudflare zone id")
	distributionID := fs.String("distribution-id", "", "CloudFront distribution id")
	region := fs.String("region", "", "AWS region override")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	dryRun := fs.Bool("dry-run", false, "resolve and build only, print plan")
	ignoreFailure := fs.Bool("ignore-failure", false, "exit 0 even when the purge request fails")
	fs.Parse(args)

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("%v", err)
	}

	// CLI flags override config
	if *domain != "" {
		cfg.Domain = *domain
	}
	if *before != "" {
		cfg.Git.Before = *before
	}
	if *after != "" {
		cfg.Git.After = *after
	}
	if *repoDir != "" {
		cfg.Git.Dir = *repoDir
	}
	if *origins != "" {
		cfg.Origins = splitOrigins(*origins)
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *zoneID != "" {
		cfg.Cloudflare.ZoneID = *zoneID
	}
	if *distributionID != "" {
		cfg.CloudFront.DistributionID = *distributionID
	}
	if *region != "" {
		cfg.CloudFront.Region = *region
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if flagSet(fs, "ignore-failure") {
		cfg.IgnoreFailure = *ignoreFailure
	}

	// Validate required config
	if *dryRun {
		if cfg.Domain == "" {
			fatal("domain is required (set R2_CUSTOM_DOMAIN, domain in config file or --domain)")
		}
	} else if err := cfg.Validate(); err != nil {
		fatal("%v", err)
	}

	baseLogger, err := logger.New(cfg.Log)
	if err != nil {
		fatal("creating logger: %v", err)
	}
	defer baseLogger.Sync()
	log := baseLogger.With(zap.String("run_id", uuid.NewString()))

	ctx := context.Background()
	p := &pipeline.Pipeline{
		Resolver: &changes.Resolver{
			Diff:   &changes.GitDiff{Dir: cfg.Git.Dir, Binary: cfg.Git.Binary},
			Prefix: cfg.Git.Prefix,
			Suffix: cfg.Git.Suffix,
			Logger: log,
		},
		Domain:  cfg.Domain,
		Origins: cfg.Origins,
		Logger:  log,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
	}

	if !*dryRun {
		purger, err := newPurger(ctx, cfg)
		if err != nil {
			fatal("%v", err)
		}
		p.Purger = purger
	}

	log.Info("Resolving changed files",
		zap.String("before", cfg.Git.Before),
		zap.String("after", cfg.Git.After),
		zap.String("provider", cfg.Provider))
	return execute(ctx, p, runOptions{
		Before:        cfg.Git.Before,
		After:         cfg.Git.After,
		DryRun:        *dryRun,
		IgnoreFailure: cfg.IgnoreFailure,
	})
}

type runOptions struct {
	Before        string
	After         string
	DryRun        bool
	IgnoreFailure bool
}

// execute plans, validates and (unless dry-running) sends one purge,
// returning the process exit code.
func execute(ctx context.Context, p *pipeline.Pipeline, opts runOptions) int {
	// Step 1: Resolve and build
	payload := p.Plan(ctx, opts.Before, opts.After)

	// Step 2: Validate
	if errs := payload.Validate(); len(errs) > 0 {
		fmt.Fprintf(p.ErrOut, "\nValidation errors:\n")
		for _, e := range errs {
			fmt.Fprintf(p.ErrOut, "  %s: %s\n", e.Key, e.Message)
		}
		return 1
	}

	// Step 3: Dry run - print request body and exit
	if opts.DryRun {
		body, err := payload.Body()
		if err != nil {
			fmt.Fprintf(p.ErrOut, "error: encoding payload: %v\n", err)
			return 1
		}
		stats := payload.Stats()
		fmt.Fprintln(p.Out, "\n=== Request body ===")
		fmt.Fprintln(p.Out, string(body))
		fmt.Fprintf(p.ErrOut, "\n%d entries (%d files x %d origins). Dry run complete, nothing purged.\n",
			stats.NumEntries, stats.NumPaths, stats.NumOrigins)
		return 0
	}

	// Step 4: Send
	return exitCode(p.Send(ctx, payload), opts.IgnoreFailure)
}

// exitCode maps a purge outcome to the process exit status.
func exitCode(out cdn.Outcome, ignoreFailure bool) int {
	if !out.Success && !ignoreFailure {
		return 1
	}
	return 0
}

// splitOrigins parses a comma-separated origin list, trimming spaces and
// dropping empty items.
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func newPurger(ctx context.Context, cfg *config.Config) (cdn.Purger, error) {
	switch cfg.Provider {
	case config.ProviderCloudFront:
		var awsOpts []func(*awsconfig.LoadOptions) error
		if cfg.CloudFront.Region != "" {
			awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.CloudFront.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return cdn.NewCloudFront(cloudfront.NewFromConfig(awsCfg), cfg.CloudFront.DistributionID), nil
	default:
		var opts []option.RequestOption
		if cfg.Cloudflare.APIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Cloudflare.APIBaseURL))
		}
		return cdn.NewCloudflare(cfg.Cloudflare.ZoneID, cfg.Cloudflare.Token, opts...), nil
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
