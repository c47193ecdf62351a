// Package app assembles the application: database, genkit, tools, prompt,
// and the chat agent, with ordered teardown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariephoon/aiva/internal/chat"
	"github.com/ariephoon/aiva/internal/config"
	"github.com/ariephoon/aiva/internal/database"
	"github.com/ariephoon/aiva/internal/prompt"
	"github.com/ariephoon/aiva/internal/store"
	"github.com/ariephoon/aiva/internal/tools"
)

// App holds the initialized application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool
	Agent  *chat.Agent
	Store  *store.Store
}

// Setup initializes the application: runs migrations, opens the database
// pool, initializes genkit with both model providers, registers the tools,
// and builds the chat agent. Call Close to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	if err := database.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.Pool = pool

	// Both providers load at startup; the catalog carries openai and
	// googleai models and the client picks per request.
	g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}, &googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	a.Genkit = g

	remote := tools.NewRemote(tools.RemoteConfig{
		Timeout:            time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
		InsecureSkipVerify: cfg.ToolInsecureSkipVerify,
	}, logger)

	kit, err := tools.NewKit(tools.Config{
		WeatherBaseURL: cfg.WeatherBaseURL,
		ScriptRunURL:   cfg.ScriptRunURL,
		RawQueryURL:    cfg.RawQueryURL,
	}, remote, logger)
	if err != nil {
		return nil, fmt.Errorf("creating tool kit: %w", err)
	}
	registered := kit.Register(g)

	assembler, err := prompt.New(cfg.PromptVariant, cfg.PersonaName)
	if err != nil {
		return nil, fmt.Errorf("building prompt assembler: %w", err)
	}

	agent, err := chat.New(chat.Config{
		Genkit: g,
		Prompt: assembler,
		Logger: logger,
		Tools:  registered,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}
	a.Agent = agent

	a.Store = store.New(pool, logger)

	return a, nil
}

// Close releases application resources. Safe to call on a partially
// initialized App.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// IsDev reports whether the deployment looks like a local setup. Controls
// cookie Secure flags and HSTS.
func (a *App) IsDev() bool {
	return a.Config.PostgresSSLMode == "disable"
}
