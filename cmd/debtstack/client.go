package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	// Packages
	httpclient "github.com/debtstack-ai/debtstack/pkg/httpclient"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	client "github.com/mutablelogic/go-client"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ClientCommands struct {
	Chat      ChatCommand      `cmd:"" name:"chat" help:"Ask a question and stream the answer." group:"CLIENT"`
	ListTools ListToolsCommand `cmd:"" name:"tools" help:"List the tools available to the model." group:"CLIENT"`
	ToolInfo  ToolInfoCommand  `cmd:"" name:"tool" help:"Show detailed information about a tool." group:"CLIENT"`
}

type ChatCommand struct {
	APIKey string   `name:"api-key" env:"DEBTSTACK_API_KEY" help:"DebtStack API key" validate:"required"`
	Text   []string `arg:"" name:"text" help:"Question to ask"`
}

type ListToolsCommand struct {
	Limit  *uint `name:"limit" help:"Maximum number of tools to return"`
	Offset uint  `name:"offset" help:"Offset for pagination"`
	JSON   bool  `name:"json" help:"Output as JSON"`
}

type ToolInfoCommand struct {
	Name string `arg:"" name:"name" help:"Tool name"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ChatCommand) Run(ctx *Globals) error {
	if err := checkConfig(cmd); err != nil {
		return err
	}
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Print text as it arrives, and tool activity to stderr
	messages := []schema.ChatMessage{{Role: schema.RoleUser, Content: strings.Join(cmd.Text, " ")}}
	done, err := client.Chat(ctx.ctx, cmd.APIKey, messages, func(evt schema.Event) {
		switch data := evt.Data.(type) {
		case *schema.TextEvent:
			fmt.Print(data.Text)
		case *schema.ToolCallEvent:
			ctx.logger.Debug("tool call", "id", data.ID, "name", data.Name, "args", data.Args)
		case *schema.ToolResultEvent:
			if data.Error != "" {
				ctx.logger.Warn("tool failed", "id", data.ID, "name", data.Name, "error", data.Error)
			} else {
				ctx.logger.Info("tool", "name", data.Name, "cost", data.Cost)
			}
		}
	})
	fmt.Println()
	if err != nil {
		return err
	}

	ctx.logger.Info("done", "cost", fmt.Sprintf("$%.2f", done.TotalCost))
	return nil
}

func (cmd *ListToolsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}
	tools, err := client.ListTools(ctx.ctx, httpclient.WithLimit(cmd.Limit), httpclient.WithOffset(cmd.Offset))
	if err != nil {
		return err
	}

	if cmd.JSON {
		return printJSON(tools)
	}
	for _, tool := range tools.Body {
		fmt.Printf("%-28s $%.2f  %s\n", tool.Name, tool.Cost, tool.Description)
	}
	return nil
}

func (cmd *ToolInfoCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}
	tool, err := client.GetTool(ctx.ctx, cmd.Name)
	if err != nil {
		return err
	}
	return printJSON(tool)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Client returns an httpclient.Client configured from the global HTTP flags.
func (g *Globals) Client() (*httpclient.Client, error) {
	endpoint, opts, err := g.clientEndpoint()
	if err != nil {
		return nil, err
	}
	return httpclient.New(endpoint, opts...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// clientEndpoint returns the gateway URL and client options
func (g *Globals) clientEndpoint() (string, []client.ClientOpt, error) {
	scheme := "http"
	host, port, err := net.SplitHostPort(g.HTTP.Addr)
	if err != nil {
		return "", nil, err
	}

	// Default host to localhost if empty (e.g., ":8084")
	if host == "" {
		host = "localhost"
	}

	// Parse port
	portn, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", nil, err
	}
	if portn == 443 {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s:%v%s", scheme, host, portn, types.NormalisePath(g.HTTP.Prefix)), g.clientOpts(), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
