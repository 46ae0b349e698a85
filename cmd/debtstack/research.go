package main

import (
	"fmt"
	"strings"

	// Packages
	version "github.com/debtstack-ai/debtstack/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ResearchCommands struct {
	Research ResearchCommand `cmd:"" name:"research" help:"Extract the debt instruments of a company from its latest annual report." group:"RESEARCH"`
}

type VersionCommands struct {
	Version VersionCommand `cmd:"" name:"version" help:"Print the version and build information."`
}

type ResearchCommand struct {
	Model    `embed:""`
	Research `embed:""`
	Ticker   string `arg:"" name:"ticker" help:"Company ticker, for example CHTR"`
}

type VersionCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ResearchCommand) Run(ctx *Globals) error {
	researcher, _, err := cmd.researcher(ctx, &cmd.Model)
	if err != nil {
		return err
	}

	ctx.logger.Info("researching", "ticker", strings.ToUpper(cmd.Ticker), "model", cmd.Model.Model)
	result, err := researcher.Research(ctx.ctx, cmd.Ticker)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (cmd *VersionCommand) Run(ctx *Globals) error {
	fmt.Println(string(version.JSON(ctx.execName)))
	return nil
}
