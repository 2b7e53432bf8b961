// Package greeting recognises small-talk prompts that are answered with a
// canned reply instead of a model call.
package greeting

import "strings"

// Kind identifies which canned reply a prompt maps to.
type Kind int

const (
	KindGreeting Kind = iota + 1
	KindWellBeing
	KindIdentity
)

var phrases = map[string]Kind{
	"hi":             KindGreeting,
	"hello":          KindGreeting,
	"hey":            KindGreeting,
	"hi there":       KindGreeting,
	"hello there":    KindGreeting,
	"hey there":      KindGreeting,
	"good morning":   KindGreeting,
	"good afternoon": KindGreeting,
	"good evening":   KindGreeting,

	"how are you":       KindWellBeing,
	"how are you doing": KindWellBeing,
	"how do you do":     KindWellBeing,
	"how's it going":    KindWellBeing,
	"how is it going":   KindWellBeing,

	"who are you":       KindIdentity,
	"what are you":      KindIdentity,
	"what is your name": KindIdentity,
	"what's your name":  KindIdentity,
}

var replies = map[Kind]string{
	KindGreeting:  "Hi! I am EduWrite, your personal AI assistant. I am fine, how do you do? Is there anything interesting you would like to know?",
	KindWellBeing: "I am doing great, thank you for asking! I am EduWrite and I am ready to help you learn. What topic shall we explore?",
	KindIdentity:  "I am EduWrite, an educational and technical AI assistant. I can write explanations, summaries, quizzes, interactive lessons, mind maps, code and research papers.",
}

// Classify normalises topic and matches it against the fixed phrase list.
// Exactly one trailing '?' or '!' is ignored, so "Hi?" matches but "hi!!"
// does not.
func Classify(topic string) (Kind, bool) {
	kind, ok := phrases[normalize(topic)]
	return kind, ok
}

// Reply returns the canned answer for kind.
func Reply(kind Kind) string {
	return replies[kind]
}

func (k Kind) String() string {
	switch k {
	case KindGreeting:
		return "greeting"
	case KindWellBeing:
		return "well_being"
	case KindIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

func normalize(topic string) string {
	s := strings.TrimSpace(strings.ToLower(topic))
	if strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	return s
}
