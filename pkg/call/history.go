package call

import (
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// History is one persona's view of the call. The system entry is fixed
// at creation; everything after it is append-only.
type History struct {
	msgs []inference.Message
}

// NewHistory starts a history with the given system prompt.
func NewHistory(system string) *History {
	return &History{msgs: []inference.Message{inference.NewSystemMessage(system)}}
}

// Messages returns a copy of the history.
func (h *History) Messages() []inference.Message {
	out := make([]inference.Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len returns the number of entries, including the system prompt.
func (h *History) Len() int {
	return len(h.msgs)
}

func (h *History) append(m inference.Message) {
	h.msgs = append(h.msgs, m)
}

// Histories holds both persona views of a call.
type Histories struct {
	Teacher *History
	Student *History
}

// NewHistories creates the pair from the two persona prompts.
func NewHistories(teacher, student persona.Persona) Histories {
	return Histories{
		Teacher: NewHistory(teacher.Prompt),
		Student: NewHistory(student.Prompt),
	}
}

// For returns the history belonging to speaker.
func (hs Histories) For(speaker persona.Speaker) *History {
	if speaker == persona.Teacher {
		return hs.Teacher
	}
	return hs.Student
}

// Record appends text as the speaker's own (assistant) entry and as the
// counterpart's user entry.
func (hs Histories) Record(speaker persona.Speaker, text string) {
	hs.For(speaker).append(inference.NewAssistantMessage(text))
	hs.For(speaker.Other()).append(inference.NewUserMessage(text))
}

// Mirrored reports whether every assistant entry of one history appears as
// a user entry at the same position of the other.
func (hs Histories) Mirrored() bool {
	t, s := hs.Teacher.msgs, hs.Student.msgs
	if len(t) != len(s) {
		return false
	}
	for i := 1; i < len(t); i++ {
		if t[i].Content != s[i].Content {
			return false
		}
		switch {
		case t[i].Role == inference.RoleAssistant && s[i].Role == inference.RoleUser:
		case t[i].Role == inference.RoleUser && s[i].Role == inference.RoleAssistant:
		default:
			return false
		}
	}
	return true
}
