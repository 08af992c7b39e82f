package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/derailed/tcell/v2"
	"gopkg.in/yaml.v3"
)

// Color is a theme color name or #rrggbb hex value.
type Color string

// DefaultColor falls through to the terminal default.
const DefaultColor Color = "default"

// Color resolves to a tcell color.
func (c Color) Color() tcell.Color {
	if c == "" || c == DefaultColor {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// Theme is the color scheme applied to the UI, loaded from a YAML file.
type Theme struct {
	Name string `yaml:"name"`

	Body struct {
		FgColor Color `yaml:"fgColor"`
		BgColor Color `yaml:"bgColor"`
	} `yaml:"body"`

	List struct {
		UnreadColor   Color `yaml:"unreadColor"`
		SelectedColor Color `yaml:"selectedColor"`
		CategoryColor Color `yaml:"categoryColor"`
	} `yaml:"list"`

	Chat struct {
		UserColor  Color `yaml:"userColor"`
		AgentColor Color `yaml:"agentColor"`
	} `yaml:"chat"`

	Status struct {
		InfoColor  Color `yaml:"infoColor"`
		ErrorColor Color `yaml:"errorColor"`
	} `yaml:"status"`
}

// DefaultTheme returns the built-in scheme.
func DefaultTheme() *Theme {
	t := &Theme{Name: "default"}
	t.Body.FgColor = "white"
	t.Body.BgColor = DefaultColor
	t.List.UnreadColor = "aqua"
	t.List.SelectedColor = "dodgerblue"
	t.List.CategoryColor = "orchid"
	t.Chat.UserColor = "white"
	t.Chat.AgentColor = "lightgreen"
	t.Status.InfoColor = "gray"
	t.Status.ErrorColor = "red"
	return t
}

// LoadTheme reads a theme YAML from the config dir or an absolute path.
// Missing fields keep their built-in values.
func LoadTheme(name string) (*Theme, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(DefaultConfigDir(), "themes", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme: %w", err)
	}
	theme := DefaultTheme()
	if err := yaml.Unmarshal(data, theme); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	return theme, nil
}
