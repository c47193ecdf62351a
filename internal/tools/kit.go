// Package tools implements the closed tool catalog exposed to the model:
// weather lookup, remote Python script execution, remote raw SQL queries,
// and the creator easter egg. The catalog is fixed; tools are registered
// with genkit once at startup and referenced by the chat agent.
package tools

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool name constants. The model selects tools by these names, so they
// are part of the client-visible contract.
const (
	GetWeatherName            = "getWeather"
	GetPythonScriptResultName = "getPythonScriptResult"
	GetRawQueryResultName     = "getRawQueryResult"
	GetCreatorName            = "getCreator"
)

// creatorAnswer is the fixed response of the getCreator tool.
const creatorAnswer = "The creator of this chat is Ariephoon"

// Failure strings returned to the model by the executor tools. The model
// reads these as ordinary results and can apologize or retry on its own.
const (
	scriptFailureAnswer = "An error occurred while executing the script."
	queryFailureAnswer  = "An error occurred while executing the query."
)

// Config holds the endpoints the tools talk to.
type Config struct {
	WeatherBaseURL string // open-meteo forecast endpoint
	ScriptRunURL   string // remote Python runner
	RawQueryURL    string // remote read-only SQL endpoint
}

// Kit bundles the tool handlers with their shared HTTP client.
// Handlers are plain methods so tests can call them without genkit.
type Kit struct {
	remote *Remote
	cfg    Config
	logger *slog.Logger
}

// NewKit creates a Kit.
func NewKit(cfg Config, remote *Remote, logger *slog.Logger) (*Kit, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kit{
		remote: remote,
		cfg:    cfg,
		logger: logger.With("component", "tools"),
	}, nil
}

// Register defines all tools on the genkit instance and returns them in
// catalog order for use with ai.WithTools.
func (k *Kit) Register(g *genkit.Genkit) []ai.Tool {
	return []ai.Tool{
		genkit.DefineTool(g, GetWeatherName,
			"Get the current weather at a location",
			k.GetWeather),
		genkit.DefineTool(g, GetPythonScriptResultName,
			"Execute a Python script and get the result. The python script must be print output in string.",
			k.GetPythonScriptResult),
		genkit.DefineTool(g, GetRawQueryResultName,
			"Execute a single-line read-only SQL query and get the result.",
			k.GetRawQueryResult),
		genkit.DefineTool(g, GetCreatorName,
			"Get the creator of this chat app",
			k.GetCreator),
	}
}

// WeatherInput defines input for the getWeather tool.
type WeatherInput struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema_description:"Longitude of the location"`
}

// GetWeather fetches the open-meteo forecast for a coordinate and returns
// the provider's JSON untouched. Failures come back as an error result in
// the data, never as a Go error: returning an error here would abort the
// whole generation instead of letting the model tell the user the lookup
// failed.
func (k *Kit) GetWeather(ctx *ai.ToolContext, input WeatherInput) (map[string]any, error) {
	k.logger.Info("getWeather called", "latitude", input.Latitude, "longitude", input.Longitude)

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(input.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(input.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")

	data, err := k.remote.GetJSON(ctx, k.cfg.WeatherBaseURL+"?"+q.Encode())
	if err != nil {
		k.logger.Error("getWeather failed", "error", err)
		return map[string]any{"error": err.Error()}, nil
	}
	return data, nil
}

// ScriptInput defines input for the getPythonScriptResult tool.
type ScriptInput struct {
	Script string `json:"script" jsonschema_description:"Single-line Python script that prints its output"`
}

// GetPythonScriptResult runs a Python script on the remote runner. Every
// failure is converted to an apologetic string so the turn keeps going;
// the model decides how to recover.
func (k *Kit) GetPythonScriptResult(ctx *ai.ToolContext, input ScriptInput) (string, error) {
	k.logger.Info("getPythonScriptResult called", "script_len", len(input.Script))

	result, err := k.remote.PostJSON(ctx, k.cfg.ScriptRunURL, map[string]string{"script": input.Script})
	if err != nil {
		k.logger.Error("script execution failed", "error", err)
		return scriptFailureAnswer, nil
	}
	return result, nil
}

// QueryInput defines input for the getRawQueryResult tool.
type QueryInput struct {
	Query string `json:"query" jsonschema_description:"Single-line read-only SQL query"`
}

// GetRawQueryResult runs a raw SQL query on the remote query endpoint.
// Same degradation policy as the script runner.
func (k *Kit) GetRawQueryResult(ctx *ai.ToolContext, input QueryInput) (string, error) {
	k.logger.Info("getRawQueryResult called", "query_len", len(input.Query))

	result, err := k.remote.PostJSON(ctx, k.cfg.RawQueryURL, map[string]string{"query": input.Query})
	if err != nil {
		k.logger.Error("query execution failed", "error", err)
		return queryFailureAnswer, nil
	}
	return result, nil
}

// CreatorInput defines input for the getCreator tool. The coordinates are
// accepted and ignored, preserving the tool's published schema.
type CreatorInput struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Ignored"`
	Longitude float64 `json:"longitude" jsonschema_description:"Ignored"`
}

// GetCreator returns the fixed creator attribution. No I/O.
func (k *Kit) GetCreator(_ *ai.ToolContext, _ CreatorInput) (string, error) {
	return creatorAnswer, nil
}
