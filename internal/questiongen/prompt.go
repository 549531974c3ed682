package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `Eres un generador de retos de formación técnica.

Reglas:
- Genera EXACTAMENTE 1 pregunta tipo test sobre la temática y el nivel indicados.
- Sigue este formato SIN desviaciones:

1. Pregunta: ¿...?
A) Opción A
B) Opción B
C) Opción C
D) Opción D
Respuesta correcta: [LETRA]

- Exactamente una opción es correcta. Las opciones incorrectas deben ser plausibles.
- No incluyas texto adicional, explicaciones ni cambios en el formato.
- No repitas ni parafrasees ninguna pregunta de la lista "Preguntas ya formuladas".`

const structuredSuffix = `
- Devuelve un objeto JSON con un único campo "challenge" cuyo valor es la pregunta completa en el formato anterior.`

func buildSystemPrompt(structured bool) string {
	if structured {
		return systemPrompt + structuredSuffix
	}
	return systemPrompt
}

// buildUserMessage constructs the user message for one attempt.
func buildUserMessage(input Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Temática: %s\n", input.Theme)
	fmt.Fprintf(&b, "Nivel: %s\n", input.Level)

	b.WriteString("\nPreguntas ya formuladas:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	if input.Attempt > 0 {
		fmt.Fprintf(&b, "\n\nIntento %d: la propuesta anterior se parecía demasiado a una pregunta existente. "+
			"Elige un subtema o enfoque distinto.", input.Attempt+1)
	}

	return b.String()
}

// buildDedup formats prior questions for the prompt, keeping the most recent
// max entries (0 = all). Returns "Ninguna" when there are none.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "Ninguna"
	}
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "--- %d ---\n%s\n", i+1, strings.TrimSpace(q))
	}
	return strings.TrimRight(b.String(), "\n")
}
