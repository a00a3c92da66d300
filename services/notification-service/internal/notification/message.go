package notification

import (
	"strings"
	"time"
)

// Render builds the client message for evt. ok is false for events the
// client is not told about.
func Render(evt Event) (body string, ok bool) {
	start, err := time.Parse(startLayout, evt.Start)
	if err != nil {
		return "", false
	}
	when := start.Format("02/01/2006") + " às " + start.Format("15:04")

	var b strings.Builder
	switch {
	case evt.Type == TopicAppointmentBooked:
		greet(&b, evt.ClientName, "!")
		b.WriteString(" Seu horário de ")
		b.WriteString(orDefault(evt.ServiceName, "atendimento"))
		if evt.ProfessionalName != "" {
			b.WriteString(" com " + evt.ProfessionalName)
		}
		at(&b, evt.TenantName)
		b.WriteString(" está marcado para " + when + ".")
	case evt.Type == TopicAppointmentStatusChanged && evt.Status == "confirmed":
		greet(&b, evt.ClientName, "!")
		b.WriteString(" Seu horário de " + when)
		at(&b, evt.TenantName)
		b.WriteString(" foi confirmado.")
	case evt.Type == TopicAppointmentStatusChanged && evt.Status == "cancelled":
		greet(&b, evt.ClientName, ".")
		b.WriteString(" Seu horário de " + when)
		at(&b, evt.TenantName)
		b.WriteString(" foi cancelado.")
		if r := strings.TrimSpace(evt.Reason); r != "" {
			b.WriteString(" Motivo: " + strings.TrimRight(r, ".") + ".")
		}
	default:
		return "", false
	}
	return b.String(), true
}

func greet(b *strings.Builder, name, punct string) {
	if name = strings.TrimSpace(name); name == "" {
		b.WriteString("Olá" + punct)
		return
	}
	b.WriteString("Olá, " + name + punct)
}

func at(b *strings.Builder, tenant string) {
	if tenant != "" {
		b.WriteString(" na " + tenant)
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
