package visualization

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const u = "http://127.0.0.1:8080"
	tests := []struct {
		name     string
		goos     string
		env      string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"linux", "linux", "", "xdg-open", []string{u}, false},
		{"darwin", "darwin", "", "open", []string{u}, false},
		{"windows", "windows", "", "rundll32", []string{"url.dll,FileProtocolHandler", u}, false},
		{"browser env wins", "linux", "firefox --new-tab", "firefox", []string{"--new-tab", u}, false},
		{"unsupported", "plan9", "", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, tt.env, u)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("got %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestBrowserURL(t *testing.T) {
	got, err := browserURL("https://example.com/x")
	if err != nil || got != "https://example.com/x" {
		t.Errorf("browserURL(https) = %q, %v", got, err)
	}

	dir := t.TempDir()
	got, err = browserURL(filepath.Join(dir, "neurons.html"))
	if err != nil {
		t.Fatalf("browserURL(file): %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/neurons.html") {
		t.Errorf("browserURL(file) = %q, want file:// URL", got)
	}
}
