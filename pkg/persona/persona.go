// Package persona defines the two scripted roles of a call and their fixed text.
package persona

import "math/rand/v2"

// Speaker identifies who produced an utterance.
// The value is the display name stored with each transcript turn.
type Speaker string

const (
	Teacher Speaker = "Profesora García"
	Student Speaker = "Carlos"
)

// Other returns the conversational counterpart of s.
func (s Speaker) Other() Speaker {
	if s == Teacher {
		return Student
	}
	return Teacher
}

// Valid reports whether s is one of the two known speakers.
func (s Speaker) Valid() bool {
	return s == Teacher || s == Student
}

// Persona is an immutable role description used to prompt the model.
type Persona struct {
	Speaker     Speaker
	Prompt      string
	Temperature float64
	MaxRetries  int

	// Farewells are lower-case substrings that end the call when this
	// persona says them.
	Farewells []string
}

// ProfesoraGarcia returns the Teacher persona.
func ProfesoraGarcia() Persona {
	return Persona{
		Speaker: Teacher,
		Prompt: "Eres 'Profesora García', una profesora de escuela que atiende una llamada de Carlos, un alumno. " +
			"Responde sus preguntas sobre materias escolares (matemáticas, geometría, álgebra, lengua, gramática, " +
			"ciencias, biología, física, historia, geografía), tareas, deberes, proyectos, trabajos, horarios, " +
			"exámenes, evaluaciones, normas, reglamento, disciplina, orientación académica, técnicas de estudio, " +
			"organización del tiempo. Tono amable, claro y breve (2-4 oraciones). " +
			"Ocasionalmente pregunta si entendió o si tiene más dudas. Responde en español.",
		Temperature: 0.4,
		MaxRetries:  3,
		Farewells:   []string{"adiós", "adios", "hasta luego"},
	}
}

// ProfesoraGarciaClassroom is the Teacher answering a real student on the
// line. Its prompt carries the content policy the keyword gate backs up.
func ProfesoraGarciaClassroom() Persona {
	return Persona{
		Speaker: Teacher,
		Prompt: "Eres 'Profesora García', una profesora de escuela (primaria/secundaria) que atiende " +
			"una llamada telefónica de un alumno. Tu tarea es responder únicamente preguntas " +
			"relacionadas con temas escolares: materias (matemáticas, lengua, ciencias, historia), " +
			"tareas, horarios, exámenes, normas de la escuela y orientación académica básica. " +
			"Mantén un tono amable, claro y breve." +
			"\n\nPolíticas:" +
			"\n- Si la pregunta no es sobre la escuela o estudios, recházala cortésmente." +
			"\n- No des consejos médicos/legales/financieros ni contenido para adultos." +
			"\n- Evita cualquier contenido dañino, odioso, racista, sexista, sexualmente explícito o violento." +
			"\n- No compartas datos personales ni inventes información institucional específica si no se proporciona." +
			"\n- Si el alumno pregunta por recursos, sugiere opciones generales: biblioteca escolar, profesor de la materia, cuaderno, plataforma educativa de la escuela." +
			"\n- Responde en español.",
		Temperature: 0.2,
		MaxRetries:  3,
		Farewells:   []string{"adiós", "adios", "hasta luego"},
	}
}

// Carlos returns the Student persona.
func Carlos() Persona {
	return Persona{
		Speaker: Student,
		Prompt: "Eres 'Carlos', un alumno de primaria/secundaria con dudas escolares. " +
			"Haces preguntas sobre matemáticas, geometría, álgebra, lengua, gramática, ortografía, " +
			"ciencias, historia, geografía, tareas, proyectos, horarios de clase, exámenes, " +
			"normas de la escuela, técnicas de estudio y organización. " +
			"Tono respetuoso, curioso y natural (1-3 oraciones). Muestra si entendió o pide más explicación. " +
			"A veces agradece o saluda de forma amigable. Responde en español.",
		Temperature: 0.6,
		MaxRetries:  3,
		Farewells:   []string{"adiós", "adios", "hasta luego", "gracias"},
	}
}

// Fixed lines spoken without an API call.
const (
	TeacherGoodbye = "¡Hasta luego Carlos! Cualquier duda que tengas, no dudes en llamarme."
	TurnLimitLine  = "Bueno Carlos, creo que por hoy es suficiente. Si tienes más dudas mañana seguimos. ¡Hasta luego!"
)

// Classroom lines spoken without an API call.
const (
	ClassroomGreeting = "Hola, soy la profesora García. ¿En qué puedo ayudarte hoy sobre la escuela?"
	ClassroomRefusal  = "Lo siento, sólo puedo ayudarte con temas escolares: materias, tareas, horarios, exámenes y normas de la escuela. ¿Quieres reformular tu pregunta?"
	ClassroomFarewell = "Gracias por la llamada. ¡Mucho éxito con tus estudios!"
	ClassroomHangUp   = "Gracias por la llamada. ¡Ánimo con tus estudios!"
	ClassroomReprompt = "No te escuché bien, ¿puedes repetirlo?"
	ClassroomAPIError = "Hubo un problema al responder. ¿Puedes repetir tu pregunta?"
)

// Greetings are the Student's opening lines.
var Greetings = []string{
	"¡Buenos días profesora García! Tengo algunas dudas sobre la escuela.",
	"Hola profe, ¿cómo está? Necesito su ayuda con unas tareas.",
	"Buenos días profesora, disculpe que la moleste. Tengo unas preguntas.",
	"¡Hola profesora García! Espero no interrumpir, tengo unas dudas.",
}

// Questions is the bank of scripted first questions.
var Questions = []string{
	"Profe, ¿podría explicarme cómo se resuelven las fracciones?",
	"No entiendo bien las tablas de multiplicar, ¿me podría ayudar?",
	"¿Cómo se calcula el área de un rectángulo?",
	"Profe, ¿qué son los números primos?",
	"¿Me puede explicar cómo se hacen las divisiones con decimales?",
	"Profe, ¿cuál es la diferencia entre sustantivos y adjetivos?",
	"¿Podría ayudarme con la acentuación?",
	"¿Qué es la fotosíntesis y por qué es importante?",
	"Profe, ¿por qué los planetas giran alrededor del sol?",
	"¿Me puede contar sobre la independencia de México?",
}

// Pick returns a random entry of lines, or "" when lines is empty.
func Pick(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[rand.IntN(len(lines))]
}
