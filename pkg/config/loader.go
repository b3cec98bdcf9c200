// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Load builds a GatewayConfig from the process environment, applying
// defaults for anything unset, then validates it. .env/.env.local are
// loaded first so a developer's local overrides are visible to Getenv.
func Load() (*GatewayConfig, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := &GatewayConfig{
		ListenAddr:                getenv("GATEWAY_LISTEN_ADDR", ":8080"),
		TokenSecret:               getenv("GATEWAY_TOKEN_SECRET", ""),
		TokenLifetime:             getDurationHours("GATEWAY_TOKEN_LIFETIME_HOURS", 168),
		CacheTTL:                  getDurationMinutes("GATEWAY_CACHE_TTL_MINUTES", 30),
		MaxAgentIterations:        getInt("GATEWAY_MAX_AGENT_ITERATIONS", 5),
		RequestDeadline:           getDurationSeconds("GATEWAY_REQUEST_DEADLINE_SECONDS", 60),
		ToolTimeoutDefault:        getDurationSeconds("GATEWAY_TOOL_TIMEOUT_SECONDS", 15),
		ToolTimeoutGeneration:     getDurationSeconds("GATEWAY_TOOL_TIMEOUT_GENERATION_SECONDS", 30),
		ToolTimeoutExternalSearch: getDurationSeconds("GATEWAY_TOOL_TIMEOUT_EXTERNAL_SEARCH_SECONDS", 10),
		SearchEndpoint:            getenv("GATEWAY_SEARCH_ENDPOINT", ""),
		TranslationEndpoint:       getenv("GATEWAY_TRANSLATION_ENDPOINT", ""),
		WeatherEndpoint:           getenv("GATEWAY_WEATHER_ENDPOINT", ""),
		GenerationEndpoint:        getenv("GATEWAY_GENERATION_ENDPOINT", ""),
		SessionStoreDSN:           getenv("GATEWAY_SESSION_STORE_DSN", "gateway_sessions.db"),
		UserStoreDSN:              getenv("GATEWAY_USER_STORE_DSN", "gateway_users.db"),
		SuperAdminEmail:           getenv("GATEWAY_SUPER_ADMIN_EMAIL", ""),
		SuperAdminPassword:        getenv("GATEWAY_SUPER_ADMIN_PASSWORD", ""),
		VectorPersistPath:         getenv("GATEWAY_VECTOR_PERSIST_PATH", ""),
		TracingEnabled:            getenv("GATEWAY_TRACING_ENABLED", "false") == "true",
		TracingEndpoint:           getenv("GATEWAY_TRACING_ENDPOINT", "localhost:4317"),
		MetricsEnabled:            getenv("GATEWAY_METRICS_ENABLED", "true") == "true",
		ServiceName:               getenv("GATEWAY_SERVICE_NAME", "agriquery-gateway"),
		LogLevel:                  getenv("GATEWAY_LOG_LEVEL", "info"),
		LogFormat:                 getenv("GATEWAY_LOG_FORMAT", "json"),
		RegistryFile:              getenv("GATEWAY_REGISTRY_FILE", ""),
		DevMode:                   getenv("GATEWAY_DEV_MODE", "false") == "true",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationSeconds(key string, defSeconds int) time.Duration {
	return time.Duration(getInt(key, defSeconds)) * time.Second
}

func getDurationMinutes(key string, defMinutes int) time.Duration {
	return time.Duration(getInt(key, defMinutes)) * time.Minute
}

func getDurationHours(key string, defHours int) time.Duration {
	return time.Duration(getInt(key, defHours)) * time.Hour
}

// WatchRegistry watches cfg.RegistryFile for changes and invokes onChange
// with the file's new contents whenever it is rewritten. It is a no-op if
// DevMode is false or RegistryFile is unset: the tool/location registry is
// immutable after startup in production. Blocks until ctx is cancelled.
func WatchRegistry(ctx context.Context, cfg *GatewayConfig, onChange func([]byte)) error {
	if !cfg.DevMode || cfg.RegistryFile == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create registry watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.RegistryFile); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.RegistryFile, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(cfg.RegistryFile)
			if err != nil {
				slog.Error("failed to reload registry file", "path", cfg.RegistryFile, "error", err)
				continue
			}
			onChange(data)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("registry watcher error", "error", err)
		}
	}
}
