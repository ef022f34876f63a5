package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"

	"github.com/xaionaro-go/audiodelta/pkg/audio/backends/ffmpeg"
	_ "github.com/xaionaro-go/audiodelta/pkg/audio/backends/flac"
	_ "github.com/xaionaro-go/audiodelta/pkg/audio/backends/mp3"
	_ "github.com/xaionaro-go/audiodelta/pkg/audio/backends/oggvorbis"
	"github.com/xaionaro-go/audiodelta/pkg/audio/backends/rawpcm"
	_ "github.com/xaionaro-go/audiodelta/pkg/audio/backends/wav"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
	"github.com/xaionaro-go/audiodelta/pkg/channelselector"
	"github.com/xaionaro-go/audiodelta/pkg/fft"
	_ "github.com/xaionaro-go/audiodelta/pkg/fft/implementations/godsp"
	"github.com/xaionaro-go/audiodelta/pkg/fft/implementations/gonum"
	_ "github.com/xaionaro-go/audiodelta/pkg/fft/implementations/radix2"
	"github.com/xaionaro-go/audiodelta/pkg/offset"
	"github.com/xaionaro-go/audiodelta/pkg/syncer"
	"github.com/xaionaro-go/audiodelta/pkg/syncer/implementations/gccphat"
	"github.com/xaionaro-go/audiodelta/pkg/syncer/implementations/xcorr"
)

const (
	exitCodeFailure            = 1
	exitCodeSampleRateMismatch = 2
)

type config struct {
	LoggerLevel logger.Level

	StreamA  int
	ChannelA int
	StreamB  int
	ChannelB int

	FFT         fft.FactoryFlag
	PHAT        bool
	PHATMinFreq float64
	PHATMaxFreq float64

	RawFormat   types.PCMFormat
	RawRate     uint
	RawChannels uint

	FFmpegPath  string
	FFprobePath string

	Parallel   bool
	MaxSamples int

	Paths []string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{
		LoggerLevel: logger.LevelWarning,
		FFT:         fft.FactoryFlag{Factory: gonum.Factory{}},
	}

	flags := pflag.NewFlagSet("audiodelta", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: audiodelta [flags] FILE | FILE_A FILE_B\n\n")
		fmt.Fprintf(stderr, "Prints the offset of the signal B relative to the signal A.\n")
		fmt.Fprintf(stderr, "With a single FILE the signals are two channels (or two audio streams) of it.\n\n")
		flags.PrintDefaults()
	}
	flags.Var(&cfg.LoggerLevel, "log-level", "Log level")
	flags.IntVar(&cfg.StreamA, "stream-a", -1, "stream index of the signal A (-1: automatic)")
	flags.IntVar(&cfg.ChannelA, "channel-a", -1, "channel index of the signal A (-1: automatic)")
	flags.IntVar(&cfg.StreamB, "stream-b", -1, "stream index of the signal B (-1: automatic)")
	flags.IntVar(&cfg.ChannelB, "channel-b", -1, "channel index of the signal B (-1: automatic)")
	flags.Var(&cfg.FFT, "fft", "FFT implementation: "+strings.Join(fft.Names(), ", "))
	flags.BoolVar(&cfg.PHAT, "phat", false, "use the GCC-PHAT weighting (robust to reverberation and level differences)")
	flags.Float64Var(&cfg.PHATMinFreq, "phat-min-freq", 100, "the lowest frequency (Hz) taken into account by GCC-PHAT")
	flags.Float64Var(&cfg.PHATMaxFreq, "phat-max-freq", 12000, "the highest frequency (Hz) taken into account by GCC-PHAT")
	flags.Var(&cfg.RawFormat, "raw-format", "sample format of headerless .raw/.pcm inputs (e.g. s16le, f32le); enables the raw PCM backend")
	flags.UintVar(&cfg.RawRate, "raw-rate", 0, "sample rate of headerless inputs")
	flags.UintVar(&cfg.RawChannels, "raw-channels", 1, "channel count of headerless inputs")
	flags.StringVar(&cfg.FFmpegPath, "ffmpeg", ffmpeg.DefaultFFmpegPath, "path to the ffmpeg binary; empty disables the ffmpeg backend")
	flags.StringVar(&cfg.FFprobePath, "ffprobe", ffmpeg.DefaultFFprobePath, "path to the ffprobe binary")
	flags.BoolVar(&cfg.Parallel, "parallel", false, "decode both inputs concurrently")
	flags.IntVar(&cfg.MaxSamples, "max-samples", 0, "fail if a signal is longer than this amount of samples (0: unlimited)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.Paths = flags.Args()
	switch len(cfg.Paths) {
	case 1, 2:
	default:
		flags.Usage()
		return nil, fmt.Errorf("expected one or two files, got %d", len(cfg.Paths))
	}
	if cfg.MaxSamples < 0 {
		return nil, fmt.Errorf("--max-samples cannot be negative")
	}
	return cfg, nil
}

// target builds an explicit target; a half-specified one defaults the
// missing index to zero.
func target(stream, channel int) *channelselector.Target {
	if stream < 0 && channel < 0 {
		return nil
	}
	if stream < 0 {
		stream = 0
	}
	if channel < 0 {
		channel = 0
	}
	return &channelselector.Target{
		Stream:  stream,
		Channel: types.Channel(channel),
	}
}

func (cfg *config) inputs() (offset.Input, offset.Input) {
	a := offset.Input{
		Path:   cfg.Paths[0],
		Target: target(cfg.StreamA, cfg.ChannelA),
	}
	b := offset.Input{
		Path:   cfg.Paths[len(cfg.Paths)-1],
		Target: target(cfg.StreamB, cfg.ChannelB),
	}
	return a, b
}

// registerFactories enables the backends that need the configuration.
func (cfg *config) registerFactories() (unregister func()) {
	var factories []registry.SourceFactory
	if cfg.RawFormat != types.PCMFormatUndefined {
		f := &rawpcm.Factory{
			Encoding: types.EncodingPCM{
				PCMFormat:  cfg.RawFormat,
				SampleRate: types.SampleRate(cfg.RawRate),
			},
			Channels: types.Channel(cfg.RawChannels),
		}
		registry.RegisterSourceFactory(rawpcm.Priority, f)
		factories = append(factories, f)
	}
	if cfg.FFmpegPath != "" {
		f := ffmpeg.NewFactory()
		f.FFmpegPath = cfg.FFmpegPath
		f.FFprobePath = cfg.FFprobePath
		registry.RegisterSourceFactory(ffmpeg.Priority, f)
		factories = append(factories, f)
	}
	return func() {
		for _, f := range factories {
			registry.UnregisterSourceFactory(f)
		}
	}
}

func (cfg *config) estimator() *offset.Estimator {
	e := offset.NewEstimator()
	e.Parallel = cfg.Parallel
	e.MaxSamples = cfg.MaxSamples
	if !cfg.PHAT {
		e.Syncer = xcorr.NewSyncer(cfg.FFT.Factory)
		return e
	}
	e.NewSyncer = func(sampleRate types.SampleRate) (syncer.Syncer, error) {
		s, err := gccphat.NewSyncer(sampleRate, cfg.FFT.Factory)
		if err != nil {
			return nil, err
		}
		s.MinFreq = cfg.PHATMinFreq
		s.MaxFreq = cfg.PHATMaxFreq
		return s, nil
	}
	return e
}

func run(ctx context.Context, cfg *config, stdout io.Writer) error {
	a, b := cfg.inputs()
	defer cfg.registerFactories()()

	logger.Debugf(ctx, "FFT: %s; PHAT: %v", cfg.FFT.Name(), cfg.PHAT)
	result, err := cfg.estimator().Estimate(ctx, a, b)
	if err != nil {
		return err
	}
	_, err = result.WriteTo(stdout)
	return err
}

func exitCode(err error) int {
	if errors.Is(err, offset.ErrSampleRateMismatch) {
		return exitCodeSampleRateMismatch
	}
	return exitCodeFailure
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiodelta: %v\n", err)
		os.Exit(exitCodeFailure)
	}

	l := logrus.Default().WithLevel(cfg.LoggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}

	err = run(ctx, cfg, os.Stdout)
	belt.Flush(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiodelta: %v\n", err)
		os.Exit(exitCode(err))
	}
}
