package scope

import "testing"

func TestFilterInScope(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		file      string
		want      bool
	}{
		{
			name:      "matching fragment",
			fragments: []string{"/internal/sampling/"},
			file:      "/src/calltrace/internal/sampling/sampler.go",
			want:      true,
		},
		{
			name:      "no matching fragment",
			fragments: []string{"/internal/sampling/", "/cmd/calltrace/"},
			file:      "/usr/local/go/src/os/file.go",
			want:      false,
		},
		{
			name:      "windows separators",
			fragments: []string{"/cmd/calltrace/"},
			file:      `C:\src\calltrace\cmd\calltrace\main.go`,
			want:      true,
		},
		{
			name:      "windows separators in fragment",
			fragments: []string{`\internal\sampling\`},
			file:      "/src/internal/sampling/walk.go",
			want:      true,
		},
		{
			name:      "empty file is never in scope",
			fragments: []string{"/"},
			file:      "",
			want:      false,
		},
		{
			name: "no fragments accepts any file",
			file: "/tmp/main.go",
			want: true,
		},
		{
			name:      "empty fragments are ignored",
			fragments: []string{"", "/pkg/"},
			file:      "/tmp/main.go",
			want:      false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := New(test.fragments...)
			if got := f.InScope(test.file); got != test.want {
				t.Fatalf("InScope(%q) = %v, want %v", test.file, got, test.want)
			}
		})
	}
}

func TestFilterFragmentsAreCopied(t *testing.T) {
	f := New("/a/")
	fragments := f.Fragments()
	fragments[0] = "/b/"
	if !f.InScope("/x/a/y.go") {
		t.Fatal("mutating Fragments() changed the filter")
	}
}
