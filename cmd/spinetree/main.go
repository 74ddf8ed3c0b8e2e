package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/shibukawa/spinetree/cli"
)

func main() {
	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("spinetree"),
		kong.Description("Parse, inspect and export Humdrum **kern spine documents."),
		kong.UsageOnError(),
	)

	appCtx := cli.NewContext(c.Config, c.Verbose, c.Quiet)

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
