package parse

import "testing"

func TestExtractNationalIDNumber(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "Clean grouped number",
			text: "ID NO. 1234-5678-9012-3456",
			want: "1234-5678-9012-3456",
		},
		{
			name: "O confused for zero",
			text: "ID NO. 1234-5678-9O12-3456",
			want: "1234-5678-9012-3456",
		},
		{
			name: "Lowercase l confused for one",
			text: "ID NO. l234-5678-9012-3456",
			want: "1234-5678-9012-3456",
		},
		{
			name: "Space separated groups",
			text: "1234 5678 9012 3456",
			want: "1234-5678-9012-3456",
		},
		{
			name: "Unseparated run",
			text: "PCN 1234567890123456",
			want: "1234-5678-9012-3456",
		},
		{
			name: "Leading stray digit rejected",
			text: "ID NO. 12340-5678-9O12-3456",
			want: "",
		},
		{
			name: "Leading stray confusable rejected",
			text: "ID NO. O1234-5678-9012-3456",
			want: "",
		},
		{
			name: "Trailing stray digit rejected",
			text: "ID NO. 1234-5678-9012-34567",
			want: "",
		},
		{
			name: "Fifteen digits rejected",
			text: "123456789012345",
			want: "",
		},
		{
			name: "Seventeen digits rejected",
			text: "12345678901234567",
			want: "",
		},
		{
			name: "No number present",
			text: "REPUBLIC OF THE PHILIPPINES",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractNationalIDNumber(tc.text); got != tc.want {
				t.Errorf("ExtractNationalIDNumber(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
