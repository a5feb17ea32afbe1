package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsugix/tsugix/internal/cliutil"
	"github.com/tsugix/tsugix/internal/config"
	"github.com/tsugix/tsugix/internal/contextengine"
	"github.com/tsugix/tsugix/internal/llmtransport"
	"github.com/tsugix/tsugix/internal/model"
	"github.com/tsugix/tsugix/internal/patcher"
	"github.com/tsugix/tsugix/internal/pipeline"
	"github.com/tsugix/tsugix/internal/ratelimit"
	"github.com/tsugix/tsugix/internal/registry"
	"github.com/tsugix/tsugix/internal/runner"
	"github.com/tsugix/tsugix/internal/sessionlock"
	"github.com/tsugix/tsugix/internal/store"
	"github.com/tsugix/tsugix/internal/telemetry"
)

var (
	skipHeal bool
	rerun    bool
)

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Run a command; on failure, ask an LLM to fix it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&skipHeal, "skip-heal", false, "run the command without invoking the pipeline on failure")
	runCmd.Flags().BoolVar(&rerun, "rerun", false, "re-run the command once after a fix is applied")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	workingDir, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(workingDir)
	if err != nil {
		log.Warn("config error, using defaults: %v", err)
		cfg, _ = config.Load("")
	}
	rootDir := cfg.RootDirectory
	if rootDir == "" {
		rootDir = workingDir
	}
	autoRerun := cfg.AutoRerun || rerun

	lock, err := sessionlock.Acquire(rootDir)
	if err != nil {
		if errors.Is(err, sessionlock.ErrHeld) {
			return withExitCode(1, err)
		}
		return withExitCode(1, fmt.Errorf("acquire session lock: %w", err))
	}
	defer lock.Release()

	hist, histErr := openHistory(rootDir)
	if histErr != nil {
		log.Warn("run history unavailable: %v", histErr)
	}
	if hist != nil {
		defer hist.Close()
	}

	name, cmdArgs := args[0], args[1:]

	result, runErr := runner.Run(ctx, workingDir, name, cmdArgs)
	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) {
			return withExitCode(127, runErr)
		}
		return withExitCode(127, fmt.Errorf("start %s: %w", name, runErr))
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), result.Report.Stderr)

	if result.Cancelled {
		cliutil.PrintCancellationMessage(name)
		return withExitCode(130, errors.New("interrupted"))
	}
	if !result.Failed {
		return nil
	}

	if skipHeal {
		return withExitCode(childExitCode(result), errors.New("command failed"))
	}

	res := driveHeal(ctx, result.Report, cfg, rootDir)
	recordOutcome(hist, result.Report, res)
	printOutcome(res)
	if res.State == model.OutcomeAiError || res.State == model.OutcomeFailed {
		language := ""
		if res.Context != nil {
			language = res.Context.Language
		}
		telemetry.CaptureOutcome(string(res.State), language)
		telemetry.CaptureError(res.Err)
	}

	if res.State == model.OutcomeApplied && autoRerun {
		log.Info("re-running %s after applying fix", name)
		rerunResult, err := runner.Run(ctx, workingDir, name, cmdArgs)
		if err == nil {
			fmt.Fprint(cmd.OutOrStdout(), rerunResult.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), rerunResult.Report.Stderr)
			if !rerunResult.Failed {
				return nil
			}
			return withExitCode(childExitCode(rerunResult), errors.New("command still failing after fix"))
		}
	}

	return withExitCode(childExitCode(result), errors.New("command failed"))
}

func childExitCode(r runner.Result) int {
	if r.Report.ExitCode == 0 {
		return 1
	}
	return r.Report.ExitCode
}

func driveHeal(ctx context.Context, report model.CrashReport, cfg *config.Config, rootDir string) pipeline.Result {
	completer, err := buildCompleter(cfg)
	if err != nil {
		log.Warn("no LLM provider configured: %v", err)
		return pipeline.Result{State: model.OutcomeSkipped}
	}

	reg := registry.Default()
	engine := contextengine.New(reg)
	limiter := ratelimit.New(cfg.MaxConcurrent, cfg.RequestsPerMinute)

	pcfg := pipeline.Config{
		Engine:    engine,
		Limiter:   limiter,
		Provider:  cfg.Provider,
		Completer: completer,
		Confirm:   confirmInteractively(cfg.AutoApply),
		PatchOpts: patcher.Options{
			RootDirectory: rootDir,
			CreateBackup:  cfg.AutoBackup,
			VerifyContent: true,
		},
	}

	return pipeline.Run(ctx, report, false, pcfg)
}

func buildCompleter(cfg *config.Config) (pipeline.Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("no API key: set OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llmtransport.NewAnthropic(llmtransport.AnthropicOptions{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  int64(cfg.MaxTokens),
			RetryCount: cfg.RetryCount,
			Timeout:    timeout,
		})
	default:
		return llmtransport.NewOpenAI(llmtransport.OpenAIOptions{
			APIKey:      cfg.APIKey,
			Endpoint:    cfg.Endpoint,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			RetryCount:  cfg.RetryCount,
			Timeout:     timeout,
		})
	}
}

// confirmInteractively returns a pipeline.Confirmer that applies
// unconditionally when autoApply is set, otherwise prompts on stdin.
func confirmInteractively(autoApply bool) pipeline.Confirmer {
	return func(ctx context.Context, suggestion *model.FixSuggestion) bool {
		if autoApply {
			return true
		}
		printSuggestion(suggestion)
		fmt.Fprint(os.Stderr, "Apply this fix? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(strings.ToLower(line))
		return line == "y" || line == "yes"
	}
}

func printSuggestion(s *model.FixSuggestion) {
	log.Info("proposed fix (confidence %d%%): %s", s.Confidence, s.Explanation)
	for _, e := range s.Edits {
		log.Dim("  %s:%d-%d", e.FilePath, e.StartLine, e.EndLine)
	}
}

func printOutcome(res pipeline.Result) {
	switch res.State {
	case model.OutcomeApplied:
		log.Info("fix applied")
		if res.Patch != nil && res.Patch.BackupPath != "" {
			log.Dim("  backup: %s", res.Patch.BackupPath)
		}
	case model.OutcomeRejected:
		log.Info("fix rejected")
	case model.OutcomeNoFix:
		log.Warn("model returned no usable fix")
	case model.OutcomeAiError:
		log.Warn("LLM call failed: %v", res.Err)
	case model.OutcomeFailed:
		log.Warn("patch failed: %v", res.Err)
	case model.OutcomeSkipped:
		log.Dim("healing skipped")
	}
}

func recordOutcome(hist *store.Store, report model.CrashReport, res pipeline.Result) {
	if hist == nil {
		return
	}
	rec := store.Record{
		Timestamp:  report.Timestamp,
		Command:    report.Command,
		WorkingDir: report.WorkingDir,
		Outcome:    res.State,
	}
	if res.Context != nil {
		rec.Language = res.Context.Language
		if res.Context.Exception != nil {
			rec.ExceptionType = res.Context.Exception.Type
			rec.Message = res.Context.Exception.Message
		}
	}
	if res.Patch != nil {
		rec.BackupPath = res.Patch.BackupPath
	}
	if res.Err != nil {
		rec.ErrorDetail = res.Err.Error()
	}
	if err := hist.Record(rec); err != nil {
		log.Warn("could not record run history: %v", err)
	}
}

func openHistory(rootDir string) (*store.Store, error) {
	home, err := config.HomeDir()
	if err != nil {
		return nil, err
	}
	dbPath, err := store.DatabasePath(home, rootDir)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
