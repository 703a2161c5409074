package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/exam-attendance/internal/bootstrap"
	"github.com/kirillkom/exam-attendance/internal/config"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/usecase"
	"github.com/kirillkom/exam-attendance/internal/observability/logging"
)

type options struct {
	mode     string
	logLevel string
	stderr   io.Writer
	college  string
	branch   string
	out      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "rosterctl",
		Short:        "Inspect seating plans and render D-Forms offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "ingestion mode: seating, adhoc or rooms")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "stderr log level")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		opts.stderr = cmd.ErrOrStderr()
	}

	inspect := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print rooms, statistics and cohort grouping as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	dform := &cobra.Command{
		Use:   "dform <file>",
		Short: "Render a D-Form workbook from a seating plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDForm(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	dform.Flags().StringVar(&opts.out, "out", "", "output path or directory (default: generated file name)")
	dform.Flags().StringVar(&opts.college, "college", "", "college name for the report header")
	dform.Flags().StringVar(&opts.branch, "branch", "", "restrict the report to one branch code")

	root.AddCommand(inspect, dform)
	return root
}

type inspectOutput struct {
	Source      domain.SourceKind    `json:"source"`
	Mode        domain.IngestionMode `json:"mode"`
	Rooms       []domain.RoomView    `json:"rooms"`
	Stats       domain.Stats         `json:"stats"`
	Percentages domain.Percentages   `json:"percentages"`
	Cohorts     []domain.CohortGroup `json:"cohorts"`
	Warnings    []string             `json:"warnings,omitempty"`
	Relocations []domain.Relocation  `json:"relocations,omitempty"`
	Exam        domain.ExamDetails   `json:"exam"`
}

func runInspect(ctx context.Context, w io.Writer, path string, opts *options) error {
	cfg := config.Load()
	loaded, err := load(ctx, cfg, path, opts)
	if err != nil {
		return err
	}

	session := loaded.session
	out := inspectOutput{
		Source:      loaded.source,
		Mode:        loaded.mode,
		Stats:       session.Stats(nil),
		Cohorts:     session.CohortGroups(nil, ""),
		Warnings:    loaded.warnings,
		Relocations: loaded.relocations,
		Exam:        session.ExamDetails(),
	}
	out.Percentages = out.Stats.Percentages()
	for _, room := range session.Rooms() {
		view, err := session.RoomView(room, "")
		if err != nil {
			return err
		}
		out.Rooms = append(out.Rooms, view)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runDForm(ctx context.Context, w io.Writer, path string, opts *options) error {
	cfg := config.Load()
	if opts.college != "" {
		cfg.CollegeName = opts.college
	}
	loaded, err := load(ctx, cfg, path, opts)
	if err != nil {
		return err
	}
	if opts.branch != "" {
		exam := loaded.session.ExamDetails()
		exam.Branch = opts.branch
		loaded.session.SetExamDetails(exam)
	}

	dir, target := ".", ""
	switch info, statErr := os.Stat(opts.out); {
	case opts.out == "":
	case statErr == nil && info.IsDir():
		dir = opts.out
	default:
		dir, target = filepath.Dir(opts.out), opts.out
	}

	tmp, err := os.CreateTemp(dir, ".dform-*.xlsx")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	reports := usecase.NewReportUseCase(loaded.session, nil, loaded.core.Renderer, cfg.CollegeName)
	name, err := reports.Render(ctx, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if target == "" {
		target = filepath.Join(dir, name)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	_, err = fmt.Fprintln(w, target)
	return err
}

type loadedRoster struct {
	core        *bootstrap.Core
	session     *usecase.Session
	source      domain.SourceKind
	mode        domain.IngestionMode
	warnings    []string
	relocations []domain.Relocation
}

func load(ctx context.Context, cfg config.Config, path string, opts *options) (*loadedRoster, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	core, err := bootstrap.NewCore(cfg)
	if err != nil {
		return nil, err
	}
	source, err := usecase.DetectSource(path)
	if err != nil {
		return nil, err
	}
	mode, err := core.Parser.ResolveMode(source, domain.IngestionMode(strings.ToLower(strings.TrimSpace(opts.mode))))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	res, err := core.Parser.Parse(ctx, filepath.Base(path), source, mode, data)
	if err != nil {
		return nil, err
	}
	stderr := opts.stderr
	if stderr == nil {
		stderr = io.Discard
	}
	logger := logging.New(stderr, "text", "rosterctl", opts.logLevel)
	for _, w := range res.Warnings {
		logger.Warn("roster warning", "file", filepath.Base(path), "warning", w)
	}

	session := usecase.NewSession(core.Classifier, logger)
	relocations, err := session.Apply(res)
	if err != nil {
		return nil, err
	}
	return &loadedRoster{
		core:        core,
		session:     session,
		source:      source,
		mode:        mode,
		warnings:    res.Warnings,
		relocations: relocations,
	}, nil
}
