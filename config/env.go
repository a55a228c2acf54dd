package config

import (
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileKey names a dotenv file to merge beneath the process environment.
const EnvFileKey = "ENV_FILE"

// Environ converts os.Environ-style "KEY=value" pairs into a map. Later
// duplicates win, matching os.Getenv.
func Environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// MergeEnvFile returns a copy of env extended with the variables from the
// dotenv file at path. Values already in env take precedence. An empty path
// returns env unchanged.
func MergeEnvFile(env map[string]string, path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return env, nil
	}

	fileVars, err := godotenv.Read(path)
	if err != nil {
		return nil, &ConfigurationError{Key: EnvFileKey, Value: path, Reason: "could not be read", Err: err}
	}

	merged := make(map[string]string, len(env)+len(fileVars))
	for k, v := range fileVars {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	return merged, nil
}
