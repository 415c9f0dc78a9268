package classifier

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object",
			raw:  `{"category":"Food","subcategory":"Delivery"}`,
			want: `{"category":"Food","subcategory":"Delivery"}`,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"category\":\"Food\"}\n```",
			want: `{"category":"Food"}`,
		},
		{
			name: "chatty preamble",
			raw:  "Here is the result:\n{\"category\":\"Food\"}\nHope that helps!",
			want: `{"category":"Food"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanModelJSON(tt.raw, "{", "}")
			if got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanModelJSONArray(t *testing.T) {
	raw := "```\n[{\"date\":\"2024-03-01\"}]\n```"
	want := `[{"date":"2024-03-01"}]`
	if got := cleanModelJSON(raw, "[", "]"); got != want {
		t.Errorf("cleanModelJSON() = %q, want %q", got, want)
	}
}
