package email

import "sync"

// RecordingProvider ничего не отправляет, а запоминает письма.
// Используется в тестах и когда SMTP отключен.
type RecordingProvider struct {
	renderer TemplateRenderer

	mu   sync.Mutex
	sent []Email
}

func NewRecordingProvider(renderer TemplateRenderer) *RecordingProvider {
	return &RecordingProvider{renderer: renderer}
}

func (p *RecordingProvider) Send(email *Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *email)
	return nil
}

func (p *RecordingProvider) SendWithTemplate(templateName string, data TemplateData, email *Email) error {
	if p.renderer != nil {
		body, err := p.renderer.Render(templateName, data)
		if err != nil {
			return err
		}
		email.HTMLBody = body
	}
	return p.Send(email)
}

func (p *RecordingProvider) Validate() error { return nil }

// Sent возвращает копию отправленных писем
func (p *RecordingProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Email(nil), p.sent...)
}
