package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSetNavigator(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Navigator == "" {
		t.Fatal("navigator prompt must not be empty")
	}
	for _, tool := range []string{"search_resources", "check_eligibility", "get_contact_instructions", "get_nearby_resources"} {
		if !strings.Contains(set.Navigator, tool) {
			t.Fatalf("navigator prompt does not mention %s", tool)
		}
	}
}
