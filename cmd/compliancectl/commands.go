package main

import (
	"content_compliance/internal/compliance"
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"content_compliance/internal/repository/rulefile"
	"content_compliance/internal/repository/sqlite"
	"content_compliance/pkg/validator"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errNotCompliant = errors.New("content is not compliant")

type globalFlags struct {
	rulesFile string
	dbPath    string
	verbose   bool
}

type checkFlags struct {
	title     string
	script    string
	caption   string
	hashtags  []string
	platform  string
	industry  string
	mediaURL  string
	file      string
	id        string
	rulesets  []string
	skipRules []string
	strict    bool
	asJSON    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Check marketing content against compliance rules",
		Long: `Evaluate social media content against the compliance rule catalog.

Examples:
  # Check a caption against the PII rules
  compliancectl check --platform instagram --caption "Call 555-123-4567" --rulesets privacy_pii

  # Check a JSON content file in strict mode
  compliancectl check --file post.json --strict

  # List rulesets, including rules from a YAML file
  compliancectl rulesets --rules-file rules.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.rulesFile, "rules-file", "", "YAML file with additional rules")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database with stored content and rules")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log rule loading details")

	root.AddCommand(newCheckCmd(g), newRulesetsCmd(g), newRulesetCmd(g), newImportCmd(g))
	return root
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// engine builds an engine over the default catalog plus the configured rule
// source. An unavailable source leaves the defaults in place. The returned
// close func releases the database, if one was opened.
func (g *globalFlags) engine(ctx context.Context, logger *slog.Logger) (*compliance.Engine, func(), error) {
	var (
		contents repository.ContentRepository
		rules    repository.RuleSource
		closeFn  = func() {}
	)

	if g.dbPath != "" {
		db, err := sqlite.Open(ctx, g.dbPath)
		if err != nil {
			return nil, nil, err
		}
		contents, rules = db, db.Rules()
		closeFn = func() { _ = db.Close() }
	}
	if g.rulesFile != "" {
		rules = rulefile.New(g.rulesFile)
	}

	engine := compliance.NewEngine(compliance.NewDefaultRegistry(ctx, nil, logger), contents, compliance.EngineOptions{Logger: logger})
	if rules != nil {
		if err := engine.ReloadRules(ctx, rules); err != nil {
			logger.WarnContext(ctx, "Rule source unavailable, using default rules only",
				slog.String("error", err.Error()))
		}
	}
	return engine, closeFn, nil
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one piece of content",
		Long: `Check content given by flags, a JSON file (--file) or a stored id (--id, needs --db).

The command exits with status 1 when the content is not compliant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "content title")
	cmd.Flags().StringVar(&f.script, "script", "", "video script")
	cmd.Flags().StringVar(&f.caption, "caption", "", "post caption")
	cmd.Flags().StringSliceVar(&f.hashtags, "hashtags", nil, "hashtags, comma separated")
	cmd.Flags().StringVarP(&f.platform, "platform", "p", "", "target platform (tiktok, instagram, ...)")
	cmd.Flags().StringVar(&f.industry, "industry", "", "industry to scope rules to")
	cmd.Flags().StringVar(&f.mediaURL, "media-url", "", "media reference")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "JSON file holding the content")
	cmd.Flags().StringVar(&f.id, "id", "", "id of stored content to check")
	cmd.Flags().StringSliceVarP(&f.rulesets, "rulesets", "r", nil, "rulesets to apply, comma separated")
	cmd.Flags().StringSliceVar(&f.skipRules, "skip", nil, "rule ids to skip")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "treat warnings as blocking")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the raw JSON result")
	cmd.MarkFlagsMutuallyExclusive("file", "id")

	return cmd
}

func runCheck(cmd *cobra.Command, g *globalFlags, f *checkFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	engine, closeFn, err := g.engine(ctx, g.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer closeFn()

	v := validator.NewContentValidator(0, engine.Registry().HasRuleset)
	opts := domain.CheckOptions{
		Industry:   domain.Industry(f.industry),
		Rulesets:   f.rulesets,
		SkipRules:  f.skipRules,
		StrictMode: f.strict,
	}
	if err := v.ValidateOptions(&opts); err != nil {
		return err
	}

	var result *domain.CheckResult
	if f.id != "" {
		if g.dbPath == "" {
			return fmt.Errorf("--id requires --db")
		}
		result, err = engine.CheckContentByID(ctx, f.id, opts)
		if err != nil {
			return err
		}
	} else {
		content, err := f.content()
		if err != nil {
			return err
		}
		if err := v.ValidateContent(&content); err != nil {
			return err
		}
		result = engine.CheckContent(ctx, content, opts)
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(out, result)
	}

	if !result.IsCompliant {
		return errNotCompliant
	}
	return nil
}

// content merges the JSON file, if any, with explicit flags; flags win.
func (f *checkFlags) content() (domain.Content, error) {
	var content domain.Content
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return content, fmt.Errorf("read content file: %w", err)
		}
		if err := json.Unmarshal(data, &content); err != nil {
			return content, fmt.Errorf("decode content file: %w", err)
		}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&content.Title, f.title)
	set(&content.Script, f.script)
	set(&content.Caption, f.caption)
	set(&content.MediaURL, f.mediaURL)
	if f.platform != "" {
		content.Platform = domain.Platform(f.platform)
	}
	if f.industry != "" {
		content.Industry = domain.Industry(f.industry)
	}
	if len(f.hashtags) > 0 {
		content.Hashtags = f.hashtags
	}
	return content, nil
}

func printResult(w io.Writer, result *domain.CheckResult) {
	status, statusColor := "COMPLIANT", colorGreen
	if !result.IsCompliant {
		status, statusColor = "NOT COMPLIANT", colorRed
	}

	statusColor.Fprintf(w, "%s", status)
	fmt.Fprintf(w, "  score %d/100  rules checked %d\n", result.Score, result.RulesChecked)
	fmt.Fprintln(w, result.Summary)

	printFindings(w, "Violations", colorRed, result.Violations)
	printFindings(w, "Warnings", colorYellow, result.Warnings)
	printFindings(w, "Info", colorCyan, result.Info)
}

func printFindings(w io.Writer, title string, c *color.Color, findings []domain.Violation) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintln(w)
	c.Fprintf(w, "%s (%d)\n", title, len(findings))
	for _, v := range findings {
		fmt.Fprintf(w, "  [%s] %s: %s\n", v.Severity, v.RuleID, v.Message)
		if v.Location != nil {
			colorFaint.Fprintf(w, "      in %s: %q\n", v.Location.Field, v.Location.Match)
		}
		if v.Suggestion != "" {
			colorFaint.Fprintf(w, "      suggestion: %s\n", v.Suggestion)
		}
	}
}

func newRulesetsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rulesets",
		Short: "List the available rulesets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeFn, err := g.engine(cmd.Context(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			for _, name := range engine.ListRulesets() {
				rules, _ := engine.RulesetInfo(name)
				colorCyan.Fprintf(out, "%-24s", name)
				fmt.Fprintf(out, " %d rules\n", len(rules))
			}
			return nil
		},
	}
}

func newRulesetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ruleset <name>",
		Short: "Show the rules of one ruleset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeFn, err := g.engine(cmd.Context(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeFn()

			rules, ok := engine.RulesetInfo(args[0])
			if !ok {
				return fmt.Errorf("unknown ruleset %q", args[0])
			}

			out := cmd.OutOrStdout()
			for _, rule := range rules {
				severityColor(rule.Severity).Fprintf(out, "%-9s", rule.Severity)
				fmt.Fprintf(out, " %-32s %s\n", rule.ID, rule.Description)
				var scope []string
				for _, p := range rule.Platforms {
					scope = append(scope, string(p))
				}
				for _, i := range rule.Industries {
					scope = append(scope, string(i))
				}
				if len(scope) > 0 || rule.Source == domain.SourceDynamic {
					colorFaint.Fprintf(out, "          scope: %s  source: %s\n", strings.Join(scope, ", "), rule.Source)
				}
			}
			return nil
		},
	}
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return colorRed
	case domain.SeverityMedium:
		return colorYellow
	default:
		return colorCyan
	}
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store content from a JSON array file in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.dbPath == "" {
				return fmt.Errorf("import requires --db")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read content file: %w", err)
			}
			var contents []domain.Content
			if err := json.Unmarshal(data, &contents); err != nil {
				return fmt.Errorf("decode content file: %w", err)
			}

			ctx := cmd.Context()
			db, err := sqlite.Open(ctx, g.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			v := validator.NewContentValidator(0, nil)
			out := cmd.OutOrStdout()
			stored := 0
			for i := range contents {
				c := &contents[i]
				if err := v.ValidateContent(c); err != nil {
					colorYellow.Fprintf(out, "skipped %s: %v\n", c.ID, err)
					continue
				}
				if err := db.Save(ctx, c); err != nil {
					colorYellow.Fprintf(out, "skipped %s: %v\n", c.ID, err)
					continue
				}
				stored++
			}
			colorGreen.Fprintf(out, "stored %d of %d items\n", stored, len(contents))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of content")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
