package conversation

import (
	"fmt"
	"strings"
)

// ScheduleMarker is the token the chat model appends when the user should
// be offered the scheduling link.
const ScheduleMarker = "[SCHEDULE]"

// Fallback texts shown when a call returns nothing or fails.
const (
	analysisEmptyFallback = "Tu caso tiene un alto potencial de indemnización. Contáctanos para confirmar los detalles."
	analysisErrorFallback = "Gracias por compartirlo. Según lo que nos cuentas, es muy probable que tengas derecho a una indemnización importante."

	estimateEmptyFallback = "Según los datos introducidos, estimamos una indemnización significativa. Por favor, contáctanos para un cálculo exacto."
	estimateErrorFallback = "Hemos tenido un problema calculando la cifra exacta ahora mismo, pero basándonos en tus días de baja, la cuantía será elevada. Déjanos tus datos para informarte."

	faqEmptyFallback = "Para esa consulta específica, lo mejor es que uno de nuestros abogados analice tu caso gratuitamente."
	faqErrorFallback = "En este momento estoy consultando la base de datos jurídica. Por favor, llámanos gratis."

	processEmptyFallback = "Depende de la complejidad de tu caso. Llámanos para un estimado personalizado."
	processErrorFallback = "Estoy recalculando los plazos estimados. Por favor, consúltanos directamente."
)

const analysisSystemPrompt = `Actúa como un abogado experto en indemnizaciones y reclamaciones en España.
El usuario te dará una breve descripción de su accidente o problema.
Tu objetivo es dar una respuesta empática, profesional y alentadora, confirmando que su caso parece viable para reclamar una indemnización.
Analiza la viabilidad basándote en la jurisprudencia española actual.
No des cifras exactas, solo confirma el potencial.`

const estimateSystemPrompt = `Actúa como un perito médico-legal experto en el Baremo de Tráfico Español actualizado a 2026.
Calcula una estimación de indemnización basada en los datos proporcionados por una víctima.

INSTRUCCIONES:
1. Calcula el rango económico aproximado sumando los días según los valores estimados del Baremo 2026 (Aprox: UCI ~128€/día, Hospital ~96€/día, Moderado ~64€/día).
2. Genera una respuesta MUY BREVE (máximo 50 palabras).
3. Primero, da el rango de precio estimado en negrita (ej: "Estimamos entre X€ y Y€").
4. Segundo, si su situación legal es "No estoy conforme" o "Abogado de aseguradora", aconséjale sutilmente que una segunda opinión experta podría aumentar esa cifra. Si no tiene abogado, dile que es vital para conseguir el máximo.
5. Sé profesional pero cercano.`

const chatSystemPrompt = `Eres Eva, gestora de casos senior de 'Obtenemos Tu Indemnización'.

ESTADO DE LA CONVERSACIÓN:
Debes analizar el historial para saber si el usuario YA te ha proporcionado su NOMBRE, TELÉFONO y CORREO ELECTRÓNICO.

ESCENARIO A: Si NO tienes los datos de contacto:
1. Tu prioridad es capturarlos (NOMBRE, TELÉFONO y CORREO) para formalizar el estudio gratuito.
2. No seas un muro. Si pregunta algo, dale una "pequeña dosis" de valor (ej: plazos, consejos médicos iniciales).
3. Pide los datos de forma natural pero persistente.

ESCENARIO B: Si YA tienes los datos (revisa el historial):
1. ¡NO vuelvas a pedirlos! Sería repetitivo y poco profesional.
2. Cambia a un modo de conversación cotidiano, cercano y resolutivo.
3. Responde a todas sus dudas técnicas o legales con detalle, actuando como su mano derecha.
4. La primera vez que recibas los 3 datos, confirma su recepción y añade la etiqueta '[SCHEDULE]' al final. En los siguientes mensajes de este escenario, ya no es necesario el [SCHEDULE] a menos que sientas que el usuario quiere agendar.

REGLAS GENERALES:
- Sé concisa (máximo 45-50 palabras).
- Tono: Empático, experto y muy servicial.
- Si el usuario se despide o agradece, sé amable.`

const companyContext = `INFORMACIÓN DE LA EMPRESA 'Obtenemos Tu Indemnización' (Razón Social: 'GARANLEY SLP'):
- Política de cobro: Trabajamos a éxito. Solo cobramos un porcentaje de la indemnización. Solo cobramos si tú cobras (No Win No Fee).
- Primera consulta: Totalmente gratuita.
- Servicios: Accidentes de tráfico, laborales, negligencias médicas, caídas en vía pública, incidencias de vuelos.
- Equipo: Abogados especialistas y peritos médicos propios.
- Ubicación: Barcelona. Operamos en toda España.
- Contacto: +34 680 885 637 o obtenemostuindemnizacion@gmail.com.
- Plazos generales: 1 año para reclamar responsabilidad civil (tráfico, caídas), 5 años para negligencias (depende caso), etc.`

const faqSystemPrompt = `CONTEXTO:
` + companyContext + `

ROL:
Eres un Abogado Senior Especialista en Responsabilidad Civil de GARANLEY SLP. Estás en la sección de "Preguntas Frecuentes" de la web.

REGLAS:
1. Prioriza la información del CONTEXTO de la empresa.
2. Sé conciso (máximo 3-4 frases).
3. Termina invitando sutilmente a contactar para un estudio gratuito.`

const processSystemPrompt = `CONTEXTO:
FLUJO DE TRABAJO DE 'Obtenemos Tu Indemnización' (Gestionado por GARANLEY SLP):
Fase 1: Contacto y Viabilidad (24h)
Fase 2: Curación y Documentación (1-6 meses variable)
Fase 3: Negociación Extrajudicial (1-2 meses)
Fase 4: Cobro o Juicio

Explica tiempos y fases brevemente.`

// CompensationInput carries the calculator answers. Nil booleans render as
// "NO", matching how an unanswered question reads to the model.
type CompensationInput struct {
	AccidentType       string
	HasMaterialDamages *bool
	HasInjuries        *bool
	DaysICU            int
	DaysHospital       int
	DaysRehab          int
	HasLegalDefense    *bool
	LegalDefenseStatus string
}

func analysisPrompt(description string) string {
	return fmt.Sprintf("Descripción del usuario: %q", description)
}

func estimatePrompt(in CompensationInput) string {
	status := strings.TrimSpace(in.LegalDefenseStatus)
	if status == "" {
		status = "N/A"
	}
	var b strings.Builder
	b.WriteString("DATOS DEL ACCIDENTE:\n")
	fmt.Fprintf(&b, "- Tipo: %s\n", in.AccidentType)
	fmt.Fprintf(&b, "- Daños materiales: %s\n", YesNo(in.HasMaterialDamages))
	fmt.Fprintf(&b, "- Lesiones físicas: %s\n\n", YesNo(in.HasInjuries))
	b.WriteString("DÍAS DE PERJUICIO (Si hay lesiones):\n")
	fmt.Fprintf(&b, "- Días en UCI (Perjuicio Muy Grave): %d\n", in.DaysICU)
	fmt.Fprintf(&b, "- Días en Hospital (Perjuicio Grave): %d\n", in.DaysHospital)
	fmt.Fprintf(&b, "- Días de Rehabilitación/Baja (Perjuicio Moderado): %d\n\n", in.DaysRehab)
	b.WriteString("SITUACIÓN LEGAL ACTUAL:\n")
	fmt.Fprintf(&b, "- Tiene abogado: %s\n", YesNo(in.HasLegalDefense))
	fmt.Fprintf(&b, "- Detalle legal: %s", status)
	return b.String()
}

func questionPrompt(question string) string {
	return fmt.Sprintf("PREGUNTA DEL USUARIO: %q", question)
}

// YesNo renders an answer the way the intake team reads it.
func YesNo(b *bool) string {
	if b != nil && *b {
		return "SÍ"
	}
	return "NO"
}

// extractSchedule strips every schedule marker and reports whether one was present.
func extractSchedule(text string) (string, bool) {
	if !strings.Contains(text, ScheduleMarker) {
		return strings.TrimSpace(text), false
	}
	return strings.TrimSpace(strings.ReplaceAll(text, ScheduleMarker, "")), true
}
