// Package classify gates utterances with static keyword sets.
//
// It answers two independent questions about a line of speech: is it about
// school (OnTopic/OffTopic), and is it a goodbye (IsFarewell). Matching is
// plain lower-cased substring search. There is no context or learning, so
// false positives and negatives are expected; this is a demo-grade gate,
// not a content filter.
package classify

import "strings"

// Class is the result of classifying an utterance.
type Class int

const (
	// OnTopic utterances are answered normally.
	OnTopic Class = iota
	// OffTopic utterances get the refusal prompt.
	OffTopic
	// Farewell utterances end the conversation.
	Farewell
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case OnTopic:
		return "on_topic"
	case OffTopic:
		return "off_topic"
	case Farewell:
		return "farewell"
	default:
		return "unknown"
	}
}

// ShortUtteranceTokens is the largest token count presumed to be in context.
const ShortUtteranceTokens = 8

// Keyword sets used by the default classifier.
var (
	AllowedTopics = []string{
		"matemáticas", "geometría", "álgebra", "cálculo", "aritmética",
		"lengua", "literatura", "gramática", "ortografía",
		"ciencias", "biología", "física", "química",
		"historia", "geografía", "cívica",
		"tareas", "deberes", "proyectos", "trabajos",
		"horarios", "exámenes", "evaluaciones",
		"normas", "reglamento", "disciplina",
		"orientación académica", "estudio", "organización",
	}

	ForbiddenKeywords = []string{
		"violencia", "sexual", "sexo", "racista", "odioso", "odio",
		"arma", "amenaza", "autolesión", "suicidio", "ilegal", "droga",
	}

	ContextKeywords = []string{
		"escuela", "colegio", "instituto", "profesor", "clase", "aula", "curso",
	}

	TaskKeywords = []string{
		"exam", "tarea", "deberes", "materia", "horario", "regla", "norma",
	}

	FarewellPhrases = []string{
		"adiós", "adios", "chao", "chau", "hasta luego", "nos vemos",
		"me voy", "gracias", "bye", "salir", "exit", "quit",
		"hasta pronto", "me tengo que ir", "ya me voy",
	}
)

// Classifier holds the keyword sets. The zero value matches nothing;
// use New for the default school sets.
type Classifier struct {
	Allowed   []string
	Forbidden []string
	Context   []string
	Tasks     []string
	Farewells []string
}

// New returns a classifier loaded with the default keyword sets.
func New() *Classifier {
	return &Classifier{
		Allowed:   AllowedTopics,
		Forbidden: ForbiddenKeywords,
		Context:   ContextKeywords,
		Tasks:     TaskKeywords,
		Farewells: FarewellPhrases,
	}
}

// Classify returns OnTopic or OffTopic. Forbidden keywords always win.
func (c *Classifier) Classify(utterance string) Class {
	text := strings.ToLower(utterance)

	if ContainsAny(text, c.Forbidden) {
		return OffTopic
	}
	if ContainsAny(text, c.Allowed) ||
		ContainsAny(text, c.Context) ||
		ContainsAny(text, c.Tasks) ||
		len(strings.Fields(text)) <= ShortUtteranceTokens {
		return OnTopic
	}
	return OffTopic
}

// IsFarewell reports whether the utterance contains a farewell phrase.
func (c *Classifier) IsFarewell(utterance string) bool {
	return ContainsAny(strings.ToLower(utterance), c.Farewells)
}

// Gate checks for a farewell first, then classifies.
func (c *Classifier) Gate(utterance string) Class {
	if c.IsFarewell(utterance) {
		return Farewell
	}
	return c.Classify(utterance)
}

// ContainsAny reports whether text contains any of the phrases,
// ignoring case.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var std = New()

// Classify uses the default keyword sets.
func Classify(utterance string) Class { return std.Classify(utterance) }

// IsFarewell uses the default farewell phrases.
func IsFarewell(utterance string) bool { return std.IsFarewell(utterance) }

// Gate uses the default keyword sets.
func Gate(utterance string) Class { return std.Gate(utterance) }
