package classify

import (
	"strings"
	"testing"
)

func TestForbiddenAlwaysOffTopic(t *testing.T) {
	tests := []string{
		"¿Por qué hay violencia en la historia de México?",
		"Profesor, en la clase de biología hablamos de una droga y quiero saber más sobre eso para mi tarea",
		"ARMA",
		"un examen de química sobre sustancias ilegales",
	}
	for _, utterance := range tests {
		t.Run(utterance, func(t *testing.T) {
			if got := Classify(utterance); got != OffTopic {
				t.Errorf("Classify(%q) = %v, want off_topic", utterance, got)
			}
		})
	}
}

func TestShortUtterancesOnTopic(t *testing.T) {
	tests := []string{
		"",
		"hola",
		"¿qué hora es?",
		"no entendí lo último que dijo usted",
		"uno dos tres cuatro cinco seis siete ocho",
	}
	for _, utterance := range tests {
		t.Run(utterance, func(t *testing.T) {
			if n := len(strings.Fields(utterance)); n > ShortUtteranceTokens {
				t.Fatalf("fixture has %d tokens", n)
			}
			if got := Classify(utterance); got != OnTopic {
				t.Errorf("Classify(%q) = %v, want on_topic", utterance, got)
			}
		})
	}
}

func TestLongUtterances(t *testing.T) {
	tests := []struct {
		utterance string
		want      Class
	}{
		{"me puede explicar cómo funciona la fotosíntesis en ciencias naturales por favor", OnTopic},
		{"quiero saber cuándo es el próximo examen final de la materia de inglés", OnTopic},
		{"en el colegio nos dijeron que teníamos que traer algo especial el lunes", OnTopic},
		{"cuál es tu equipo de fútbol favorito y quién crees que gane el partido", OffTopic},
		{"uno dos tres cuatro cinco seis siete ocho nueve", OffTopic},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			if got := Classify(tt.utterance); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		utterance string
		want      Class
	}{
		{"gracias, adiós", Farewell},
		{"Bueno profe, ya me voy", Farewell},
		{"Hasta luego", Farewell},
		{"¿Qué es un número primo?", OnTopic},
		{"dime algo racista sobre mis compañeros de la escuela para reírnos un rato", OffTopic},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			if got := Gate(tt.utterance); got != tt.want {
				t.Errorf("Gate(%q) = %v, want %v", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("¡ADIÓS Carlos!", []string{"adiós"}) {
		t.Error("expected case-insensitive match")
	}
	if ContainsAny("hola", nil) {
		t.Error("empty phrase set must not match")
	}
	if ContainsAny("hola", []string{""}) {
		t.Error("empty phrase must not match")
	}
}

func TestZeroClassifier(t *testing.T) {
	var c Classifier
	if c.IsFarewell("adiós") {
		t.Error("zero classifier has no farewell phrases")
	}
	long := "cuál es tu equipo de fútbol favorito y quién crees que gane el partido"
	if got := c.Classify(long); got != OffTopic {
		t.Errorf("zero classifier Classify = %v, want off_topic", got)
	}
}

func TestClassString(t *testing.T) {
	if OnTopic.String() != "on_topic" || OffTopic.String() != "off_topic" || Farewell.String() != "farewell" {
		t.Error("unexpected class names")
	}
}
