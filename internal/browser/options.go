// internal/browser/options.go
package browser

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/courtpilot/internal/config"
)

// Flags returns the Chrome command line flags layered on top of chromedp's
// defaults. Boolean false removes a default flag.
func Flags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		// Sites and extensions behave differently under the automation banner.
		"enable-automation": false,
	}

	if cfg.Headless {
		flags["headless"] = true
	} else {
		flags["headless"] = false
		flags["hide-scrollbars"] = false
		flags["mute-audio"] = false
	}

	if cfg.UserDataDir != "" {
		flags["user-data-dir"] = cfg.UserDataDir
	}

	if cfg.ExtensionPath != "" {
		flags["disable-extensions"] = false
		flags["disable-extensions-except"] = cfg.ExtensionPath
		flags["load-extension"] = cfg.ExtensionPath
	}

	w, h := cfg.ViewportSize()
	flags["window-size"] = fmt.Sprintf("%d,%d", w, h)

	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
	}

	// Custom args win over everything above. "--key=value" becomes a string
	// flag, a bare "--key" a boolean one.
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			flags[key] = value
		} else {
			flags[key] = true
		}
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for cfg.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := Flags(cfg)
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, chromedp.Flag(k, flags[k]))
	}
	return opts
}
