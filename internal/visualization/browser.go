package visualization

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// OpenBrowser opens target, an http(s) URL or a local file path, in the
// user's browser. $BROWSER wins over the platform default.
func OpenBrowser(target string) error {
	u, err := browserURL(target)
	if err != nil {
		return err
	}
	name, args, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), u)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// browserURL turns a file path into an absolute file:// URL and passes
// http(s) URLs through.
func browserURL(target string) (string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target, nil
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func browserCommand(goos, browserEnv, u string) (string, []string, error) {
	if fields := strings.Fields(browserEnv); len(fields) > 0 {
		return fields[0], append(fields[1:], u), nil
	}
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{u}, nil
	case "darwin":
		return "open", []string{u}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", u}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
