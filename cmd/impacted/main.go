// Package main is the entry point for the impacted CLI.
package main

import (
	"github.com/huangsam/impacted/cmd"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/internal/iocache"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; IMPACTED_* values may also come from the shell.
	_ = godotenv.Load()

	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	iocache.CloseStores()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
