// Package email delivers transactional mail.
package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Message is a single rendered email
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Text      string
	HTML      string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordResetData fills the password reset template
type PasswordResetData struct {
	Name     string
	Token    string
	ResetURL string
	TTLHours int
}

const passwordResetSubject = "Redefinição de senha"

var (
	passwordResetText = texttemplate.Must(texttemplate.New("reset_text").Parse(
		`Olá {{.Name}},

Recebemos um pedido para redefinir a sua senha.
Use o código abaixo{{if .ResetURL}} ou acesse {{.ResetURL}}{{end}}:

{{.Token}}

O código expira em {{.TTLHours}} hora(s). Se não foi você, ignore este email.
`))

	passwordResetHTML = htmltemplate.Must(htmltemplate.New("reset_html").Parse(
		`<p>Olá {{.Name}},</p>
<p>Recebemos um pedido para redefinir a sua senha.</p>
{{if .ResetURL}}<p><a href="{{.ResetURL}}">Redefinir senha</a></p>{{end}}
<p>Código: <strong>{{.Token}}</strong></p>
<p>O código expira em {{.TTLHours}} hora(s). Se não foi você, ignore este email.</p>
`))
)

// NewPasswordResetMessage renders the password reset email for one recipient
func NewPasswordResetMessage(toAddress, toName string, data PasswordResetData) (Message, error) {
	var text, html bytes.Buffer
	if err := passwordResetText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render password reset text: %w", err)
	}
	if err := passwordResetHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render password reset html: %w", err)
	}
	return Message{
		ToAddress: toAddress,
		ToName:    toName,
		Subject:   passwordResetSubject,
		Text:      text.String(),
		HTML:      html.String(),
	}, nil
}
