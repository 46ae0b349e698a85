package main

import (
	"fmt"
	"os"

	// Packages
	backend "github.com/debtstack-ai/debtstack/pkg/backend"
	edgar "github.com/debtstack-ai/debtstack/pkg/edgar"
	google "github.com/debtstack-ai/debtstack/pkg/provider/google"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	version "github.com/debtstack-ai/debtstack/pkg/version"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Model selects the language model behind the chat and the filing extractor
type Model struct {
	GeminiAPIKey string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Google Gemini API key" validate:"required"`
	Model        string `name:"model" env:"DEBTSTACK_MODEL" default:"${model}" help:"Gemini model"`
}

// Research configures the SEC filing pipeline
type Research struct {
	SECUserAgent string `name:"sec-user-agent" env:"SEC_USER_AGENT" help:"User agent for SEC requests, naming the caller and a contact address"`
	SectionSize  int    `name:"section-size" default:"0" help:"Characters of the debt footnote sent for extraction, zero for the default" validate:"gte=0"`
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// clientOpts returns the options shared by every outbound client
func (g *Globals) clientOpts() []client.ClientOpt {
	opts := []client.ClientOpt{
		client.OptUserAgent(version.UserAgent(g.execName)),
	}
	if g.Debug || g.Verbose {
		opts = append(opts, client.OptTrace(os.Stderr, g.Verbose))
	}
	if g.tracer != nil {
		opts = append(opts, client.OptTracer(g.tracer))
	}
	if g.HTTP.Timeout > 0 {
		opts = append(opts, client.OptTimeout(g.HTTP.Timeout))
	}
	return opts
}

// generator returns the Gemini client and the model name
func (m *Model) generator(g *Globals) (*google.Client, string, error) {
	if err := checkConfig(m); err != nil {
		return nil, "", err
	}
	client, err := google.New(m.GeminiAPIKey, g.clientOpts()...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, m.Model, nil
}

// researcher returns the filing pipeline and the ticker cache it resolves
// against. The SEC and extraction clients share the research deadline, as a
// filing download or an extraction outlasts the default request timeout.
func (r *Research) researcher(g *Globals, m *Model) (*edgar.Researcher, *edgar.TickerCache, error) {
	if err := checkConfig(r); err != nil {
		return nil, nil, err
	} else if err := checkConfig(m); err != nil {
		return nil, nil, err
	}
	opts := append(g.clientOpts(), client.OptTimeout(edgar.ResearchTimeout))

	sec, err := edgar.New(r.SECUserAgent, edgar.WithClientOpts(opts...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create EDGAR client: %w", err)
	}
	generator, err := google.New(m.GeminiAPIKey, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	extractor := edgar.NewExtractor(generator, m.Model)
	return edgar.NewResearcher(sec, extractor, r.SectionSize, g.tracer), sec.Cache(), nil
}

// newToolkit returns the backend tools together with the research tool
func newToolkit(g *Globals, url string, researcher *edgar.Researcher) (*tool.Toolkit, error) {
	tools, err := backend.NewTools(url, g.clientOpts()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend tools: %w", err)
	}
	if researcher != nil {
		tools = append(tools, researcher)
	}
	return tool.NewToolkit(0, tools...)
}
