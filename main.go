package main

import (
	"context"
	"os"
	"time"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/config"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/server"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

func main() {
	utils.InitLogging(os.Stdout, os.Stderr)
	os.Exit(run(context.Background(), os.Environ()))
}

// run resolves configuration from environ, serves until a termination signal
// and returns the process exit code.
func run(ctx context.Context, environ []string) int {
	startTime := time.Now()
	env := config.Environ(environ)

	env, err := config.MergeEnvFile(env, env[config.EnvFileKey])
	if err != nil {
		utils.LogError("CONFIGURATION", err)
		return server.ExitCode(err)
	}

	cfg, err := config.FromEnv(env)
	if err != nil {
		utils.LogError("CONFIGURATION", err)
		return server.ExitCode(err)
	}

	utils.LogInfo("[STARTUP] Resolved configuration", "config", cfg.Redacted())

	if err := server.Run(ctx, cfg, server.WithStartTime(startTime)); err != nil {
		utils.LogError("FATAL", err)
		return server.ExitCode(err)
	}
	return server.ExitOK
}
