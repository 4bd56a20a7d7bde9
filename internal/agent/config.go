package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds agent backend settings, loaded from a YAML file so model names
// and the system prompt can change without a rebuild.
type Config struct {
	AppName      string `yaml:"app_name"`
	Model        string `yaml:"model"`
	Instruction  string `yaml:"instruction"`
	MaxToolTurns int    `yaml:"max_tool_turns"`
}

const defaultInstruction = "You are a personal assistant that manages the user's Google Calendar. " +
	"Use the calendar tools to look up, create, update and delete events, and the " +
	"datetime tools to resolve relative dates before calling calendar tools. " +
	"When a tool result says authorization is needed, tell the user to connect " +
	"their calendar using the provided link instead of retrying."

// DefaultConfig returns the built-in agent settings.
func DefaultConfig() Config {
	return Config{
		AppName:      "agents",
		Model:        "gemini-2.0-flash",
		Instruction:  defaultInstruction,
		MaxToolTurns: 8,
	}
}

// LoadConfig reads the YAML file at path, filling unset fields with defaults.
// A missing file just yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse agent config %s: %w", path, err)
	}

	if file.AppName != "" {
		cfg.AppName = file.AppName
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}
	if file.Instruction != "" {
		cfg.Instruction = file.Instruction
	}
	if file.MaxToolTurns > 0 {
		cfg.MaxToolTurns = file.MaxToolTurns
	}
	return cfg, nil
}
