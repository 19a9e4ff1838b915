// Copyright 2026 Dominik Schlosser
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

// Package config loads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Host           string `env:"HOST"`
	Port           int    `env:"PORT" envDefault:"5000"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	CertPath       string `env:"AADHAAR_CERT"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	PhotoPNG       bool   `env:"PHOTO_PNG" envDefault:"false"`
	AllCandidates  bool   `env:"ALL_CANDIDATES" envDefault:"false"`
	Fetch          FetchConfig
	Token          TokenConfig
}

type FetchConfig struct {
	Timeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	Retries int           `env:"FETCH_RETRIES" envDefault:"2"`
}

type TokenConfig struct {
	SigningKey string        `env:"TOKEN_SIGNING_KEY"`
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"aadhaar-verify"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"15m"`
}

// New loads envPath (a missing file is fine) and parses the environment.
// Variables already set in the environment win over the file.
func New(envPath string) (Config, error) {
	var c Config

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envPath, err)
	}

	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}

	if c.Port <= 0 || c.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.CertPath != "" {
		if _, err := os.Stat(c.CertPath); err != nil {
			return Config{}, fmt.Errorf("AADHAAR_CERT: %w", err)
		}
	}

	return c, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
