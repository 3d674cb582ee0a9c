package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	appconfig "github.com/saker-ai/live-interpreter/internal/config"
	"github.com/saker-ai/live-interpreter/internal/console"
	apphttp "github.com/saker-ai/live-interpreter/internal/http"
	applogger "github.com/saker-ai/live-interpreter/internal/logger"
	"github.com/saker-ai/live-interpreter/internal/protocol"
	"github.com/saker-ai/live-interpreter/internal/storage"
	"github.com/saker-ai/live-interpreter/internal/transcript"
	"github.com/saker-ai/live-interpreter/pkg/audio"
	"github.com/saker-ai/live-interpreter/pkg/interpreter"
)

// ShutdownTimeout bounds Shutdown when called from main.
const ShutdownTimeout = 5 * time.Second

// Options override the process streams used by a Runtime.
type Options struct {
	Stdout io.Writer
	Logger *zap.Logger
}

// Runtime owns one interpreter session and everything around it.
type Runtime struct {
	cfg      appconfig.Config
	logger   *zap.Logger
	field    protocol.SourceField
	client   *interpreter.Client
	buffer   *transcript.Buffer
	recorder *storage.Recorder
	prompt   *console.Prompt
	server   *http.Server
	serveErr chan error
}

// New loads configPath (or the default lookup when empty) and builds a runtime.
func New(configPath string) (*Runtime, error) {
	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load interpreter config: %w", err)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	logger.Info("interpreter logger configured",
		zap.String("level", cfg.Log.Level),
		zap.Bool("stdout", cfg.Log.Stdout),
		zap.Bool("file_enabled", cfg.Log.File.Enabled),
		zap.String("file_path", cfg.Log.File.Path),
		zap.String("file_name", cfg.Log.File.Name),
	)
	logger.Info("interpreter config loaded",
		zap.String("config_path", configPath),
		zap.String("root_dir", cfg.RootDir),
		zap.String("endpoint_url", cfg.EndpointURL),
		zap.String("http_addr", cfg.Control.HTTPAddr),
	)

	return NewWithConfig(cfg, Options{Logger: logger})
}

// NewWithConfig builds a runtime from an already loaded config.
func NewWithConfig(cfg appconfig.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	format, err := transcript.ParseFormat(cfg.Transcript.Format)
	if err != nil {
		return nil, err
	}
	field, err := protocol.ParseSourceField(cfg.Session.SourceField)
	if err != nil {
		return nil, err
	}
	catalogue, err := appconfig.LoadCatalogue(cfg.LanguagesFile)
	if err != nil {
		return nil, fmt.Errorf("load language catalogue: %w", err)
	}

	rt := &Runtime{
		cfg:    cfg,
		logger: logger,
		field:  field,
		buffer: transcript.NewBuffer(format),
	}

	sinks := transcript.Multi{rt.buffer}
	if cfg.Transcript.Stdout {
		sinks = append(sinks, transcript.NewWriter(stdout, format, logger))
	}
	if cfg.Transcript.Persist {
		rt.recorder, err = storage.NewRecorder(cfg.Transcript.HistoryDir, cfg.EndpointURL, logger)
		if err != nil {
			return nil, fmt.Errorf("create transcript recorder: %w", err)
		}
		sinks = append(sinks, rt.recorder)
		logger.Info("interpreter transcript persisted",
			zap.String("history_dir", cfg.Transcript.HistoryDir),
			zap.String("uid", rt.recorder.UID()),
		)
	}

	player, err := newPlayer(cfg.Audio, logger)
	if err != nil {
		return nil, err
	}

	rt.client = interpreter.NewClient(interpreter.Config{
		EndpointURL:      cfg.EndpointURL,
		HandshakeTimeout: cfg.HandshakeTimeout(),
	}, sinks, player, logger)
	rt.prompt = console.New(catalogue, field, stdout, logger)

	if cfg.Control.HTTPAddr != "" {
		historyDir := ""
		if cfg.Transcript.Persist {
			historyDir = cfg.Transcript.HistoryDir
		}
		router := apphttp.NewRouter(apphttp.Deps{
			Session:     rt.client,
			Transcript:  rt.buffer,
			Catalogue:   catalogue,
			SourceField: field,
			HistoryDir:  historyDir,
		}, logger)
		rt.server = &http.Server{
			Addr:    cfg.Control.HTTPAddr,
			Handler: router,
		}
	}
	return rt, nil
}

func newPlayer(cfg appconfig.AudioConfig, logger *zap.Logger) (interpreter.AudioPlayer, error) {
	decode := audio.Params{
		Format:     cfg.Format,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
	}
	switch cfg.Output {
	case "archive":
		player, err := audio.NewArchivePlayer(cfg.ArchiveDir, decode, logger)
		if err != nil {
			return nil, err
		}
		return player, nil
	case "none":
		return audio.NullPlayer{Decode: decode}, nil
	default:
		player, err := audio.NewDevicePlayer(audio.DeviceConfig{
			Decode:     decode,
			SampleRate: cfg.DeviceSampleRate,
			Channels:   cfg.DeviceChannels,
		}, logger)
		if err != nil {
			logger.Warn("audio device unavailable; clips will be decoded and dropped", zap.Error(err))
			return audio.NullPlayer{Decode: decode}, nil
		}
		return player, nil
	}
}

// Client returns the session client.
func (r *Runtime) Client() *interpreter.Client {
	return r.client
}

// Transcript returns the in-memory transcript.
func (r *Runtime) Transcript() *transcript.Buffer {
	return r.buffer
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.logger
}

// Addr returns the control surface address, empty when disabled.
func (r *Runtime) Addr() string {
	if r == nil || r.server == nil {
		return ""
	}
	return r.server.Addr
}

// Run connects, sends the configured initial language and reads selections
// from in until ctx is done, the user quits or the connection ends. A nil in
// disables the prompt.
func (r *Runtime) Run(ctx context.Context, in io.Reader) error {
	r.startServer()

	if err := r.client.Connect(ctx); err != nil {
		return err
	}
	if r.cfg.Session.Language != "" {
		initial := protocol.NewOutboundConfig(r.cfg.Session.Language).
			WithInput(r.field, r.cfg.Session.SourceLanguage)
		if err := r.client.SetLanguage(ctx, initial); err != nil {
			r.logger.Warn("interpreter initial language rejected", zap.Error(err))
		}
	}

	var promptDone chan error
	if in != nil {
		promptDone = make(chan error, 1)
		go func() {
			promptDone <- r.prompt.Run(ctx, in, r.client)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.client.Done():
			return r.client.Err()
		case err := <-r.serveErr:
			return fmt.Errorf("control server: %w", err)
		case err := <-promptDone:
			if errors.Is(err, console.ErrQuit) {
				return nil
			}
			if err != nil {
				r.logger.Warn("interpreter prompt stopped", zap.Error(err))
			}
			promptDone = nil
		}
	}
}

func (r *Runtime) startServer() {
	if r.server == nil || r.serveErr != nil {
		return
	}
	r.serveErr = make(chan error, 1)
	r.logger.Info("starting control server", zap.String("addr", r.server.Addr))
	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.serveErr <- err
		}
	}()
}

// Shutdown closes the connection, waits for clips still playing and stops the
// control surface.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if err := r.client.Close(); err != nil {
		errs = append(errs, err)
	}

	played := make(chan struct{})
	go func() {
		r.client.WaitPlayback()
		close(played)
	}()
	select {
	case <-played:
	case <-ctx.Done():
		r.logger.Warn("interpreter playback still running at shutdown")
	}

	if r.server != nil {
		if err := ignoreServerClosed(r.server.Shutdown(ctx)); err != nil {
			errs = append(errs, err)
		}
	}
	_ = r.logger.Sync()
	return errors.Join(errs...)
}

func ignoreServerClosed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
