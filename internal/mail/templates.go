package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const (
	KindResetCode           = "reset_code"
	KindResetLink           = "reset_link"
	KindBookingNotification = "booking_notification"
)

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return "not specified"
		}
		return t.Format("02 Jan 2006")
	},
}).Parse(`
{{define "reset_code"}}<p>Hello {{.Name}},</p>
<p>Your password reset code is <strong style="font-size:20px;letter-spacing:4px">{{.Code}}</strong>.</p>
<p>The code expires in {{.Minutes}} minutes. If you did not request a reset you can ignore this email.</p>{{end}}

{{define "reset_link"}}<p>Hello {{.Name}},</p>
<p>You requested a password reset. Click the link below to choose a new password:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link expires in {{.Minutes}} minutes.</p>{{end}}

{{define "booking_notification"}}<h2>New booking request</h2>
<p><strong>Customer:</strong> {{.CustomerName}} ({{.CustomerEmail}}{{if .CustomerPhone}}, {{.CustomerPhone}}{{end}})</p>
<p><strong>Date:</strong> {{date .ExecutionDate}}</p>
{{if .Address}}<p><strong>Address:</strong> {{.Address}} {{.Postcode}}</p>{{end}}
{{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
<ul>{{range .Items}}<li>{{.Category}}: {{.Service}}{{if .Notes}} ({{.Notes}}){{end}}</li>{{end}}</ul>
{{if .Photos}}<p>Photos:</p><ul>{{range .Photos}}<li><a href="{{.}}">{{.}}</a></li>{{end}}</ul>{{end}}
<p>Booking id: {{.BookingID}}</p>{{end}}
`))

type ResetCodeData struct {
	Name    string
	Code    string
	Minutes int
}

type ResetLinkData struct {
	Name    string
	Link    string
	Minutes int
}

type BookingItemLine struct {
	Category string
	Service  string
	Notes    string
}

type BookingNotificationData struct {
	BookingID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ExecutionDate *time.Time
	Address       string
	Postcode      string
	Notes         string
	Items         []BookingItemLine
	Photos        []string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func ResetCodeEmail(to string, d ResetCodeData) (Message, error) {
	html, err := render(KindResetCode, d)
	return Message{Kind: KindResetCode, To: to, Subject: "Your password reset code", HTML: html}, err
}

func ResetLinkEmail(to string, d ResetLinkData) (Message, error) {
	html, err := render(KindResetLink, d)
	return Message{Kind: KindResetLink, To: to, Subject: "Reset your password", HTML: html}, err
}

// BookingNotificationEmail goes to the business inbox, not the customer.
func BookingNotificationEmail(to string, d BookingNotificationData) (Message, error) {
	html, err := render(KindBookingNotification, d)
	return Message{Kind: KindBookingNotification, To: to, Subject: "New Booking Request", HTML: html}, err
}
