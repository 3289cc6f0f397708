package perception

import "strings"

// InputKind is the result of classifying user text.
type InputKind int

const (
	// InputCode is text that should be run as-is.
	InputCode InputKind = iota
	// InputPseudocode is natural-language text that needs translation.
	InputPseudocode
)

func (k InputKind) String() string {
	if k == InputPseudocode {
		return "pseudocode"
	}
	return "code"
}

// codeIndicators are substrings that mark text as script source.
var codeIndicators = []string{
	"let ", "const ", "function ", "=>", "import ", "export ",
	"class ", "if (", "for (", "while (", "console.",
}

// ClassifyInput decides whether text is code or pseudocode. It is pure and
// total: ambiguous text is treated as code.
func ClassifyInput(text string) InputKind {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return InputCode
	}

	for _, ind := range codeIndicators {
		if strings.Contains(trimmed, ind) {
			return InputCode
		}
	}
	if strings.HasSuffix(trimmed, ";") {
		return InputCode
	}

	words := len(strings.Fields(trimmed))
	if words > 5 && (strings.Contains(trimmed, ".") ||
		strings.Contains(trimmed, " then ") ||
		strings.Contains(trimmed, " and ")) {
		return InputPseudocode
	}
	return InputCode
}
