package pipeline

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/janhq/deck-server/internal/domain/llm"
)

//go:embed prompts
var embeddedPrompts embed.FS

// Prompt is one stage prompt. System and User are text/template sources.
type Prompt struct {
	Name             string  `yaml:"name"`
	Temperature      float64 `yaml:"temperature"`
	RetryTemperature float64 `yaml:"retryTemperature"`
	System           string  `yaml:"system"`
	RetrySystem      string  `yaml:"retrySystem"`
	User             string  `yaml:"user"`

	system      *template.Template
	retrySystem *template.Template
	user        *template.Template
}

// Prompts is the set of stage prompts baked into the binary.
type Prompts struct {
	byName map[string]*Prompt
}

// LoadPrompts parses every embedded prompt.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{byName: map[string]*Prompt{}}
	err := fs.WalkDir(embeddedPrompts, "prompts", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := embeddedPrompts.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		prompt, err := parsePrompt(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		p.byName[prompt.Name] = prompt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	return p, nil
}

func parsePrompt(data []byte) (*Prompt, error) {
	var prompt Prompt
	if err := yaml.Unmarshal(data, &prompt); err != nil {
		return nil, fmt.Errorf("decode prompt: %w", err)
	}
	if prompt.Name == "" || prompt.System == "" || prompt.User == "" {
		return nil, fmt.Errorf("prompt needs name, system and user")
	}

	var err error
	if prompt.system, err = template.New(prompt.Name + ".system").Option("missingkey=error").Parse(prompt.System); err != nil {
		return nil, err
	}
	if prompt.user, err = template.New(prompt.Name + ".user").Option("missingkey=error").Parse(prompt.User); err != nil {
		return nil, err
	}
	if prompt.RetrySystem != "" {
		if prompt.retrySystem, err = template.New(prompt.Name + ".retry").Option("missingkey=error").Parse(prompt.RetrySystem); err != nil {
			return nil, err
		}
	}
	return &prompt, nil
}

// Get returns the named prompt.
func (p *Prompts) Get(name string) (*Prompt, error) {
	prompt, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", name)
	}
	return prompt, nil
}

// Messages renders the system and user messages. retry selects the stricter
// system prompt when the prompt has one.
func (p *Prompt) Messages(data promptData, retry bool) ([]llm.ChatMessage, error) {
	sys := p.system
	if retry && p.retrySystem != nil {
		sys = p.retrySystem
	}
	system, err := render(sys, data)
	if err != nil {
		return nil, err
	}
	user, err := render(p.user, data)
	if err != nil {
		return nil, err
	}
	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

// TemperatureFor returns the sampling temperature for an attempt.
func (p *Prompt) TemperatureFor(retry bool) float64 {
	if retry && p.RetryTemperature > 0 {
		return p.RetryTemperature
	}
	return p.Temperature
}

func render(t *template.Template, data promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}

// promptData is the union of values the stage templates reference.
type promptData struct {
	Instruction   string
	Title         string
	Draft         string
	Facts         string
	Plan          string
	Slides        string
	Issues        string
	Images        string
	Schema        string
	SlideTypes    string
	Tone          string
	InsightMarker string
	MaxSections   int
	MaxBullets    int
	MaxChars      int
	SlideCount    int
}
