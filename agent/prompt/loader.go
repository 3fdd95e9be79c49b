package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/navigator.txt
var navigatorRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Navigator string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Navigator: strings.TrimSpace(navigatorRaw),
	}
}
