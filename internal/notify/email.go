package notify

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer sends composed messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// NewSMTPMailer returns a gomail dialer for the given SMTP account.
func NewSMTPMailer(host string, port int, user, pass string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, pass)
}

var subjects = map[string]string{
	EventSignupCreated:    "Nueva inscripción en un programa",
	EventContactReceived:  "Nuevo mensaje de contacto",
	EventSolicitudCreated: "Nueva solicitud a convocatoria",
	EventIngresoCobrada:   "Factura cobrada",
}

// BuildMessage renders e as a plain-text email from -> to. Contact messages
// set Reply-To to the sender so staff can answer directly.
func BuildMessage(from, to string, e Event) *gomail.Message {
	subject, ok := subjects[e.Type]
	if !ok {
		subject = "Notificación: " + e.Type
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "[Ecoaceite] "+subject)
	if e.Type == EventContactReceived && e.Data["email"] != "" {
		m.SetHeader("Reply-To", e.Data["email"])
	}
	m.SetBody("text/plain", renderBody(e))
	return m
}

func renderBody(e Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evento: %s\n", e.Type)
	fmt.Fprintf(&b, "Referencia: %s\n", e.ResourceID)
	fmt.Fprintf(&b, "Fecha: %s\n\n", e.OccurredAt.Format("02/01/2006 15:04"))

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, e.Data[k])
	}
	return b.String()
}
