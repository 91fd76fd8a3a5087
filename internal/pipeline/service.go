package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"vrecon/internal/config"
	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/media/ffprobe"
	"vrecon/internal/planner"
	"vrecon/internal/planstate"
	"vrecon/internal/textutil"
	"vrecon/internal/workerpool"
)

// Outcome reports one asset processed end to end.
type Outcome struct {
	AssetPath  string
	OutputPath string
	Plan       *planner.Plan
	Run        Result
	Assembled  bool
}

// Service wires the prober, pipeline, and assembler into a single entry
// point for processing one asset end to end: probe, plan, transcode
// segments, assemble. The segment working directory lives under the staging
// path and survives failures so a later run can resume.
type Service struct {
	cfg       *config.Config
	prober    ffprobe.Client
	pipeline  *Pipeline
	assembler *Assembler
	logger    *slog.Logger
}

// NewService builds a Service with CLI-backed media clients from the
// configuration.
func NewService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	transcoder := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.Tools.FFmpegBinary))
	pipe, err := New(Options{
		Transcoder: transcoder,
		Repository: planstate.NewFileRepository(),
		Pool: workerpool.Options{
			MinWorkers:     cfg.Pool.MinWorkers,
			MaxWorkers:     cfg.Pool.MaxWorkers,
			TargetPercent:  cfg.Pool.TargetCPUPercent,
			SampleInterval: cfg.Pool.SampleInterval(),
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		prober:    ffprobe.NewCLI(ffprobe.WithBinary(cfg.Tools.FFprobeBinary)),
		pipeline:  pipe,
		assembler: NewAssembler(transcoder, logger),
		logger:    logging.NewComponentLogger(logger, "service"),
	}, nil
}

// Process runs one asset through the full pipeline. When outputPath is empty
// the output lands in the configured output directory, named after the asset
// and the encoder. Segment outputs are removed only after a successful
// assembly.
func (s *Service) Process(ctx context.Context, assetPath, outputPath string) (*Outcome, error) {
	info, err := s.prober.Probe(ctx, assetPath)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = s.defaultOutputPath(assetPath)
	}
	planDir := filepath.Join(s.cfg.Paths.StagingDir, safeStem(assetPath))

	plan, err := planner.New(info, s.cfg.Split.SegmentSeconds, planDir, outputPath)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{AssetPath: assetPath, OutputPath: outputPath, Plan: plan}

	profile := ffmpeg.NewProfile(s.cfg.Split.Encoder, s.cfg.Split.Quality, info.Width, s.cfg.Split.SkipEncode)
	s.logger.Info("processing asset",
		logging.String(logging.FieldAsset, assetPath),
		logging.Int("segments", len(plan.Segments)),
		logging.String("resolution", ffmpeg.ResolutionClass(info.Width)),
		logging.Int("crf", profile.CRF))

	run, err := s.pipeline.Run(ctx, plan, profile, s.cfg.Pool.InitialWorkers)
	outcome.Run = run
	if err != nil {
		return outcome, err
	}

	if err := s.assembler.Assemble(ctx, plan); err != nil {
		return outcome, err
	}
	outcome.Assembled = true

	removed := plan.CleanupOutputs()
	s.logger.Debug("cleaned segment outputs", logging.Int("removed", removed))
	return outcome, nil
}

// Probe exposes the underlying prober for inspection commands.
func (s *Service) Probe(ctx context.Context, assetPath string) (ffprobe.MediaInfo, error) {
	return s.prober.Probe(ctx, assetPath)
}

func (s *Service) defaultOutputPath(assetPath string) string {
	stem := strings.TrimSuffix(filepath.Base(assetPath), filepath.Ext(assetPath))
	name := fmt.Sprintf("%s_final_%s.mp4", stem, s.cfg.Split.Encoder)
	return filepath.Join(s.cfg.Paths.OutputDir, name)
}

// safeStem flattens characters that complicate shelling out or path reuse.
func safeStem(assetPath string) string {
	stem := strings.TrimSuffix(filepath.Base(assetPath), filepath.Ext(assetPath))
	return textutil.SanitizeToken(stem)
}
