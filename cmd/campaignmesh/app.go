package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/campaignmesh/campaign"
	"github.com/hupe1980/campaignmesh/config"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/internal/httpx"
	"github.com/hupe1980/campaignmesh/internal/tracing"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/model/anthropic"
	"github.com/hupe1980/campaignmesh/model/gemini"
	"github.com/hupe1980/campaignmesh/model/openai"
	"github.com/hupe1980/campaignmesh/runner"
	"github.com/hupe1980/campaignmesh/session"
	"github.com/hupe1980/campaignmesh/subagent"
	"github.com/hupe1980/campaignmesh/toolset/arxiv"
	"github.com/hupe1980/campaignmesh/toolset/blogger"
	"github.com/hupe1980/campaignmesh/toolset/news"
	"github.com/hupe1980/campaignmesh/toolset/websearch"
	"github.com/hupe1980/campaignmesh/toolset/wikipedia"
	"github.com/hupe1980/campaignmesh/toolset/youtube"
)

// app holds the wired components of one process.
type app struct {
	cfg      *config.Config
	logger   *logging.StructuredLogger
	sessions *session.Manager
	runner   *runner.Runner
	closers  []func(context.Context) error
}

func newLogger(cfg *config.Config) *logging.StructuredLogger {
	return logging.New(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		AddSource: cfg.Log.AddSource,
	})
}

// newApp wires configuration into a ready runner. observers are attached to
// every engine the runner builds.
func newApp(ctx context.Context, cfg *config.Config, observers ...engine.Observer) (*app, error) {
	a := &app{cfg: cfg, logger: newLogger(cfg)}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	store, err := openStore(cfg.Session)
	if err != nil {
		return nil, a.closeWith(err)
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	chatModel, err := newModel(ctx, cfg.Model, cfg.Model.Name, a.logger)
	if err != nil {
		return nil, a.closeWith(err)
	}

	titleModel, err := newModel(ctx, cfg.Model, cfg.Model.TitleModelName(), a.logger)
	if err != nil {
		return nil, a.closeWith(err)
	}

	a.sessions, err = session.NewManager(ctx, store, func(o *session.Options) {
		o.RootAgent = campaign.Root
		o.Titler = subagent.NewTitleGenerator(titleModel, func(o *subagent.TitleOptions) {
			o.Logger = a.logger.WithComponent("title")
		})
		o.QueueSize = cfg.Session.QueueSize
		o.TitleTimeout = cfg.Session.TitleTimeout
		o.Logger = a.logger.WithComponent("session")
	})
	if err != nil {
		return nil, a.closeWith(err)
	}
	// Drain queued writes before the store closes.
	a.closers = append([]func(context.Context) error{a.sessions.Close}, a.closers...)

	deps, err := newDependencies(ctx, cfg, chatModel, a.logger)
	if err != nil {
		return nil, a.closeWith(err)
	}

	policy, err := engine.ParseResumePolicy(cfg.Engine.ResumePolicy)
	if err != nil {
		return nil, a.closeWith(err)
	}

	engineLogger := a.logger.WithComponent("engine")

	build := func() (*engine.Engine, error) {
		g, err := campaign.NewGraph(deps)
		if err != nil {
			return nil, err
		}

		return engine.New(g, func(o *engine.Options) {
			o.MaxSteps = cfg.Engine.MaxSteps
			o.MaxHistory = cfg.Engine.MaxHistory
			o.ResumePolicy = policy
			o.ConfirmSideEffects = cfg.Engine.ConfirmSideEffects
			o.Logger = engineLogger
			o.Observers = append(engine.LoggingObservers(engineLogger), observers...)
		})
	}

	a.runner, err = runner.New(ctx, a.sessions, build, func(o *runner.Options) {
		o.Logger = a.logger.WithComponent("runner")
	})
	if err != nil {
		return nil, a.closeWith(err)
	}

	return a, nil
}

func newDependencies(ctx context.Context, cfg *config.Config, chatModel model.Model, logger *logging.StructuredLogger) (campaign.Dependencies, error) {
	httpLogger := logger.WithComponent("http")
	client := httpx.New(func(o *httpx.Options) {
		o.Timeout = cfg.Tools.HTTPTimeout
		o.RatePerSecond = cfg.Tools.RatePerSecond
		o.Burst = cfg.Tools.Burst
		o.UserAgent = cfg.Tools.UserAgent
		o.Logger = httpLogger
	})

	reviewModel, err := newModel(ctx, cfg.Model, cfg.Model.ReviewModelName(), logger)
	if err != nil {
		return campaign.Dependencies{}, err
	}

	toolLogger := logger.WithComponent("tools")

	return campaign.Dependencies{
		Model: chatModel,
		Reviewer: subagent.NewReviewer(reviewModel, func(o *subagent.ReviewOptions) {
			o.Logger = toolLogger
		}),
		ScriptWriter: youtube.NewScriptWriter(chatModel, toolLogger),
		Transcripts: youtube.NewTranscriptReader(func(o *youtube.TranscriptOptions) {
			o.Language = cfg.Tools.TranscriptLanguage
			o.HTTP = client
			o.Logger = toolLogger
		}),
		News: news.NewClient(func(o *news.ClientOptions) {
			o.APIKey = cfg.Tools.NewsAPIKey
			o.HTTP = client
		}),
		Articles: news.NewArticleReader(func(o *news.ReaderOptions) {
			o.MaxChars = cfg.Tools.ArticleMaxChars
			o.HTTP = client
			o.Logger = toolLogger
		}),
		Blogger: blogger.NewClient(func(o *blogger.ClientOptions) {
			o.AccessToken = cfg.Tools.BloggerAccessToken
			o.HTTP = client
		}),
		DuckDuckGo: websearch.NewClient(func(o *websearch.ClientOptions) { o.HTTP = client }),
		Wikipedia:  wikipedia.NewClient(func(o *wikipedia.ClientOptions) { o.HTTP = client }),
		Arxiv:      arxiv.NewClient(func(o *arxiv.ClientOptions) { o.HTTP = client }),
		MaxHistory: cfg.Engine.MaxHistory,
		Logger:     logger.WithComponent("agent"),
	}, nil
}

// newModel creates the configured provider, wrapped in a circuit breaker
// when enabled. An empty name selects the provider default.
func newModel(ctx context.Context, cfg config.ModelConfig, name string, logger logging.Logger) (model.Model, error) {
	var m model.Model

	switch cfg.Provider {
	case "gemini":
		g, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			if name != "" {
				o.Model = name
			}
			o.Temperature = float32(cfg.Temperature)
			o.APIKey = cfg.GeminiAPIKey
		})
		if err != nil {
			return nil, err
		}
		m = g
	case "openai":
		m = openai.NewModel(func(o *openai.Options) {
			if name != "" {
				o.Model = name
			}
			o.Temperature = cfg.Temperature
			o.APIKey = cfg.OpenAIAPIKey
		})
	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if name != "" {
				o.Model = anthropicsdk.Model(name)
			}
			o.Temperature = min(cfg.Temperature, 1.0)
			o.APIKey = cfg.AnthropicAPIKey
		})
	case "scripted":
		// Offline mode for trying the surfaces without credentials.
		return model.NewResponderModel("scripted", func(req model.Request) (model.Response, error) {
			last := ""
			if n := len(req.Contents); n > 0 {
				last = req.Contents[n-1].Text()
			}
			return model.TextResponse("You said: " + strings.TrimSpace(last)), nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}

	if !cfg.Breaker.Enabled {
		return m, nil
	}

	return model.NewBreaker(m, func(o *model.BreakerOptions) {
		o.MaxFailures = cfg.Breaker.MaxFailures
		o.Timeout = cfg.Breaker.Timeout
		o.Interval = cfg.Breaker.Interval
		o.Logger = logger
	}), nil
}

func openStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "sqlite":
		return session.OpenSQLite(cfg.SQLitePath)
	case "file":
		return session.NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Backend)
	}
}

// Close drains the session writer, then releases tracing and the store.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}

func (a *app) closeWith(err error) error {
	return errors.Join(err, a.Close())
}
