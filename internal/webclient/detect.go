package webclient

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ChromeEnv overrides Chrome discovery when set.
const ChromeEnv = "SPEEDCHECK_CHROME"

func chromeCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"google-chrome",
			"chromium",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
			"chrome.exe",
		}
	default:
		return []string{
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
			"headless-shell",
			"/usr/bin/google-chrome",
			"/snap/bin/chromium",
		}
	}
}

// FindChrome returns the browser executable to drive. An explicit path wins,
// then the SPEEDCHECK_CHROME variable, then the platform's usual locations.
func FindChrome(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(ChromeEnv)} {
		if p == "" {
			continue
		}
		found, err := exec.LookPath(p)
		if err != nil {
			return "", fmt.Errorf("%w at %q: %v", ErrChromeNotFound, p, err)
		}
		return found, nil
	}

	for _, p := range chromeCandidates() {
		if found, err := exec.LookPath(p); err == nil {
			return found, nil
		}
	}
	return "", ErrChromeNotFound
}
