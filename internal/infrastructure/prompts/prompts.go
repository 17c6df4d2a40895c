// Package prompts renders the embedded templates sent to the language model.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

//go:embed navigation.txt
var NavigationTemplate string

//go:embed validation.txt
var ValidationTemplate string

// SystemPrompt frames every oracle call.
const SystemPrompt = "You are a precise assistant that plans and checks UI workflows in web applications. Answer in the exact format requested."

var funcs = template.FuncMap{
	"join": strings.Join,
}

type NavigationData struct {
	Task      string
	URL       string
	HTML      string
	Structure *entity.PageStructure
}

type ValidationData struct {
	Task        string
	Step        int
	Total       int
	Description string
	URL         string
	Modals      string
	VisibleText string
}

// Render executes tmpl against data.
func Render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func Navigation(data NavigationData) (string, error) {
	return Render("navigation", NavigationTemplate, data)
}

func Validation(data ValidationData) (string, error) {
	return Render("validation", ValidationTemplate, data)
}
