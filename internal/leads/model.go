package leads

import (
	"fmt"
	"time"
)

// Origin tags identify which capture point produced a lead.
const (
	OriginContactForm  = "Formulario Principal"
	OriginCallRequest  = "Llamada Gratuita (Header)"
	OriginTrafficModal = "Formulario Modal Tráfico"
	OriginHeroWizard   = "Hero - Asistente Principal"
	OriginCalculator   = "Calculadora IA - Proceso Completo"
	OriginChat         = "Chatbot IA (Eva)"
)

// FormatTimestamp renders t the way an es-ES locale string does
// ("5/3/2026, 9:04:09"). The hour is not zero padded, which no Go layout
// can express.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d, %d:%02d:%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// Record is one flat lead as delivered to the sinks. Every field is a
// string and empty when absent.
type Record struct {
	Timestamp string `json:"timestamp"`
	Origin    string `json:"origin"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Extra     string `json:"extra"`
}

// FormFields returns the column/field mapping used by the webhook and the sheet.
func (r Record) FormFields() [][2]string {
	return [][2]string{
		{"Fecha", r.Timestamp},
		{"Origen", r.Origin},
		{"Nombre", r.Name},
		{"Telefono", r.Phone},
		{"Email", r.Email},
		{"Mensaje", r.Message},
		{"Datos_Extra", r.Extra},
	}
}

// StoredLead is a record read back from the archive.
type StoredLead struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Record
}

// ListFilter pages through archived leads.
type ListFilter struct {
	Origin string
	Limit  int
	Offset int
}
