package tts_test

import (
	"testing"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "Es **muy** importante", "Es muy importante"},
		{"italic", "La *fotosíntesis* ocurre", "La fotosíntesis ocurre"},
		{"bullets", "Pasos\n- sumar\n* restar\n• dividir", "Pasos. sumar. restar. dividir"},
		{"enumeration", "Pasos\n1. sumar\n2) restar\na- dividir", "Pasos. sumar. restar. dividir"},
		{"lone signs", "tres + dos - uno", "tres dos uno"},
		{"newline runs", "Hola\n\n\nCarlos", "Hola. Carlos"},
		{"whitespace", "  mucho    espacio\t aquí  ", "mucho espacio aquí"},
		{"repeated dots", "Bueno... veamos.. . sí", "Bueno. veamos. sí"},
		{"sentence then newline", "Hola.\n\nAdiós", "Hola. Adiós"},
		{"plain", "¿Entendiste, Carlos?", "¿Entendiste, Carlos?"},
		{"empty", "  \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tts.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
