package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// Имена встроенных шаблонов
const (
	TemplatePasswordReset = "password_reset"
	TemplateNewContact    = "new_contact"
)

const passwordResetTemplate = `<p>Hello{{if .Name}}, {{.Name}}{{end}}!</p>
<p>We received a request to reset your password. Follow the link below to choose a new one:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link is valid for {{.Hours}} hours and can be used once. If you did not request a reset, ignore this email.</p>`

const newContactTemplate = `<p>You have a new message from {{.Name}} ({{.Email}}):</p>
<blockquote>{{.Message}}</blockquote>`

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	tm.mustAdd(TemplatePasswordReset, passwordResetTemplate)
	tm.mustAdd(TemplateNewContact, newContactTemplate)
	return tm
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет шаблон в менеджер
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}

func (tm *TemplateManager) mustAdd(name, templateStr string) {
	if err := tm.AddTemplate(name, templateStr); err != nil {
		panic(err)
	}
}
