// Package main generates a signing secret for session tokens.
package main

import (
	"flag"
	"os"

	"github.com/toninhor/scrum-poker-planning/internal/platform/config"
	"github.com/toninhor/scrum-poker-planning/internal/tools/tokensecret"
)

func main() {
	cfg, err := tokensecret.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := tokensecret.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate secret: %v", err)
	}
}
