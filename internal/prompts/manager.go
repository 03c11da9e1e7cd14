package prompts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// embeds all .yaml files in the templates folder into the binary at compile time
//
//go:embed templates/*.yaml
var templateFS embed.FS

// PromptProvider builds a prompt for a generation mode.
type PromptProvider interface {
	BuildPrompt(mode string, vars map[string]string) (string, error)
}

type PromptManager struct {
	prompts map[string]string // mode -> prompt template
}

// promptTemplate is the on-disk shape of one template file.
type promptTemplate struct {
	Prompt string `yaml:"prompt"`
}

func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		prompts: make(map[string]string),
	}
	if err := pm.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return pm, nil
}

// BuildPrompt fills the template for the given mode with the supplied values.
// Simple string replacement instead of template execution.
func (pm *PromptManager) BuildPrompt(mode string, vars map[string]string) (string, error) {
	tpl, exists := pm.prompts[mode]
	if !exists {
		return "", fmt.Errorf("template not found for mode: %s", mode)
	}
	result := tpl
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{."+key+"}}", value)
	}
	return result, nil
}

func (pm *PromptManager) loadPrompts() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return err
		}
		var tpl promptTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return fmt.Errorf("invalid template %s: %w", entry.Name(), err)
		}
		if tpl.Prompt == "" {
			return fmt.Errorf("template %s has an empty prompt", entry.Name())
		}
		mode := strings.TrimSuffix(entry.Name(), ".yaml")
		pm.prompts[mode] = tpl.Prompt
	}
	return nil
}
