package conversation

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/barberia/internal/domain/models"
)

const (
	msgInvalidOption   = "❌ Opción inválida"
	msgInvalidFormat   = "❌ Formato incorrecto. Escribe tu nombre y celular (7 a 20 caracteres) separados por coma.\n\nEjemplo:\nJuan Pérez, 3001234567"
	msgInvalidDate     = "❌ Fecha inválida"
	msgInvalidTime     = "❌ Hora inválida"
	msgInvalidService  = "❌ Servicio inválido"
	msgNoTimes         = "⚠️ No hay horas disponibles ese día. Elige otra fecha."
	msgBooked          = "🎉 Cita agendada correctamente\n\nNos vemos 💈"
	msgCommitFailed    = "⚠️ No pudimos guardar tu cita. Responde SI para intentarlo de nuevo."
	msgBookingDropped  = "❌ Cita cancelada"
	msgCancelSearch    = "🔎 Escribe el nombre con el que agendaste tu cita"
	msgNoBookings      = "🤷 No encontramos reservas a ese nombre."
	msgCancelled       = "✅ Tu cita fue cancelada."
	msgCancelFailed    = "⚠️ No pudimos cancelar tu cita. Escribe *hola* para intentarlo de nuevo."
	msgSessionExpired  = "⌛ Tu sesión expiró por inactividad. Escribe cualquier mensaje para empezar de nuevo."
	msgDataCollection  = "Para agendar tu cita necesito:\n\n✍️ Nombre\n📱 Celular\n\nEjemplo:\nJuan Pérez, 3001234567"
	msgChooseByNumber  = "Escribe el número"
	msgModifyMenuTitle = "✏️ ¿Qué deseas modificar?"
)

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func welcomePrompt(shop string) string {
	return fmt.Sprintf("👋 Bienvenido a *%s*\n\n1. Agendar cita\n2. Cancelar cita\n\n%s", shop, msgChooseByNumber)
}

func staffPrompt(staff []string) string {
	return "💈 Selecciona barbero:\n\n" + numbered(staff) + "\n\n" + msgChooseByNumber
}

func datePrompt(dates []string) string {
	return fmt.Sprintf("📅 Fechas disponibles (%d días):\n\n%s\n\n%s", len(dates), numbered(dates), msgChooseByNumber)
}

// timePrompt lists the free slots followed by the option that returns to date selection.
func timePrompt(times []string) string {
	return fmt.Sprintf("⏰ Horas disponibles:\n\n%s\n%d. ⬅️ Cambiar fecha\n\n%s",
		numbered(times), len(times)+1, msgChooseByNumber)
}

func servicePrompt(services []models.Service) string {
	lines := make([]string, len(services))
	for i, s := range services {
		lines[i] = fmt.Sprintf("%s. %s — %s", s.ID, s.Name, models.FormatPrice(s.Price))
	}
	return "✂️ Servicios:\n\n" + strings.Join(lines, "\n") + "\n\n" + msgChooseByNumber
}

func confirmationPrompt(d models.Draft) string {
	var b strings.Builder
	b.WriteString("✅ CONFIRMAR CITA\n\n")
	fmt.Fprintf(&b, "Cliente: %s\n", d.CustomerName)
	fmt.Fprintf(&b, "Celular: %s\n", d.Phone)
	fmt.Fprintf(&b, "Barbero: %s\n", d.StaffMember)
	fmt.Fprintf(&b, "Fecha: %s\n", d.Date)
	fmt.Fprintf(&b, "Hora: %s\n", d.Time)
	if d.Service != nil {
		fmt.Fprintf(&b, "Servicio: %s\n", d.Service.Name)
		fmt.Fprintf(&b, "Precio: %s\n", models.FormatPrice(d.Service.Price))
	}
	b.WriteString("\nResponde *SI* para confirmar, *MODIFICAR* para cambiar algo o *CANCELAR* para descartar")
	return b.String()
}

func modifyPrompt() string {
	return msgModifyMenuTitle + "\n\n" + numbered([]string{
		"Barbero",
		"Fecha",
		"Hora",
		"Servicio",
		"Empezar de nuevo",
	}) + "\n\n" + msgChooseByNumber
}

func cancelSelectPrompt(bookings []models.Booking) string {
	labels := make([]string, len(bookings))
	for i, b := range bookings {
		labels[i] = b.Label()
	}
	return "📋 Tus reservas:\n\n" + numbered(labels) + "\n\nEscribe el número de la cita que deseas cancelar"
}
