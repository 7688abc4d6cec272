// Package main provides a CLI for rolling formulas, calculating damage
// formulas and running formula scripts.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dicecalc/internal/config"
	"github.com/cory-johannsen/dicecalc/internal/game/damage"
	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
	"github.com/cory-johannsen/dicecalc/internal/game/formula"
	"github.com/cory-johannsen/dicecalc/internal/observability"
	"github.com/cory-johannsen/dicecalc/internal/scripting"
)

// substitutionFlags collects repeated -sub name=expr flags.
type substitutionFlags expression.SubstitutionTable

func (s substitutionFlags) String() string {
	parts := make([]string, 0, len(s))
	for name, sub := range s {
		parts = append(parts, name+"="+sub.Expression)
	}
	return strings.Join(parts, ",")
}

func (s substitutionFlags) Set(value string) error {
	name, expr, ok := strings.Cut(value, "=")
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if !ok || name == "" {
		return fmt.Errorf("substitution %q must be name=expression", value)
	}
	s[name] = expression.Substitution{Expression: strings.TrimSpace(expr)}
	return nil
}

// options are the parsed command-line flags.
type options struct {
	configPath string
	formula    string
	damage     string
	script     string
	hook       string
	unify      bool
	subs       expression.SubstitutionTable
}

func parseFlags(args []string) (options, error) {
	opts := options{subs: make(expression.SubstitutionTable)}
	fs := flag.NewFlagSet("roll", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to configuration file; empty uses defaults")
	fs.StringVar(&opts.formula, "formula", "", "formula text to roll, e.g. \"2d20kh + @str\"")
	fs.Var(substitutionFlags(opts.subs), "sub", "substitution name=expression (repeatable)")
	fs.StringVar(&opts.damage, "damage", "", "damage formula YAML file, or a formula name from content.formulas_dir")
	fs.BoolVar(&opts.unify, "unify", false, "merge same-sided dice across sections in damage text")
	fs.StringVar(&opts.script, "script", "", "Lua script to run")
	fs.StringVar(&opts.hook, "hook", "", "global Lua hook from content.scripts_dir to call")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.formula == "" && opts.damage == "" && opts.script == "" && opts.hook == "" {
		fs.Usage()
		return options{}, errors.New("one of -formula, -damage, -script or -hook is required")
	}
	return opts, nil
}

func main() {
	start := time.Now()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := formula.NewRoller(dice.FromSource(cfg.Dice.NewSource()), logger)
	if err := run(opts, cfg, roller, logger, os.Stdout); err != nil {
		logger.Error("roll failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Debug("done", zap.Duration("elapsed", time.Since(start)))
}

// run executes every requested action in order: formula, damage, script,
// hook. Results are written to out.
func run(opts options, cfg config.Config, roller *formula.Roller, logger *zap.Logger, out io.Writer) error {
	table := opts.subs
	if cfg.Content.SubstitutionsFile != "" {
		fromFile, err := formula.LoadSubstitutions(cfg.Content.SubstitutionsFile)
		if err != nil {
			return err
		}
		table = fromFile.Merge(opts.subs)
		logger.Info("loaded substitutions",
			zap.String("file", cfg.Content.SubstitutionsFile),
			zap.Int("count", len(fromFile)),
		)
	}

	if opts.formula != "" {
		if err := rollFormula(opts.formula, table, roller, out); err != nil {
			return err
		}
	}
	if opts.damage != "" {
		s, err := findDamageFormula(opts.damage, cfg.Content.FormulasDir)
		if err != nil {
			return err
		}
		if err := calculateDamage(s, table, opts.unify || cfg.Render.Unify, roller, out); err != nil {
			return err
		}
	}
	if opts.script == "" && opts.hook == "" {
		return nil
	}

	mgr := scripting.NewManager(roller, logger, cfg.Scripting.InstructionLimit)
	defer mgr.Close()
	if opts.script != "" {
		values, err := mgr.RunFile(opts.script)
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintln(out, v)
		}
	}
	if opts.hook != "" {
		if cfg.Content.ScriptsDir == "" {
			return errors.New("-hook requires content.scripts_dir")
		}
		if err := mgr.LoadGlobal(cfg.Content.ScriptsDir); err != nil {
			return err
		}
		ret, err := mgr.CallHook("", opts.hook)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ret.String())
	}
	return nil
}

func rollFormula(text string, table expression.SubstitutionTable, roller *formula.Roller, out io.Writer) error {
	r, err := roller.Roll(text, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s = %s\n", text, formula.FormatNumber(r.Result))
	for _, d := range r.DiceResults() {
		fmt.Fprintf(out, "  d%d: rolled %v kept %v\n", d.Sides, d.AllResults, d.KeptResults)
	}
	return nil
}

func findDamageFormula(ref, formulasDir string) (damage.Section, error) {
	if _, err := os.Stat(ref); err == nil || formulasDir == "" {
		return damage.LoadFormula(ref)
	}
	formulas, err := damage.LoadFormulas(formulasDir)
	if err != nil {
		return nil, err
	}
	s, ok := formulas[ref]
	if !ok {
		return nil, fmt.Errorf("no damage formula %q in %q", ref, formulasDir)
	}
	return s, nil
}

func calculateDamage(s damage.Section, table expression.SubstitutionTable, unify bool, roller *formula.Roller, out io.Writer) error {
	res, err := damage.CalculateWithTable(s, roller.RandomInteger(), table, true)
	if err != nil {
		return err
	}
	preview, err := damage.CalculateWithTable(s, dice.Constant(1), table, true)
	if err != nil {
		return err
	}
	text, _ := damage.RenderResult(preview, unify)
	fmt.Fprintf(out, "%s: %s\n", s.SectionName(), text)
	fmt.Fprintf(out, "  total %s\n", formula.FormatNumber(res.TotalDamage))
	for _, t := range res.TypeResults {
		fmt.Fprintf(out, "  %s %s\n", t.TypeID, formula.FormatNumber(t.Total))
	}
	for _, sec := range res.Sections {
		fmt.Fprintf(out, "  - %s: %s = %s\n", sec.Name, sec.OriginalExpression, formula.FormatNumber(sec.TotalDamage))
	}
	return nil
}
