package browser

import (
	"github.com/chromedp/chromedp/kb"

	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

// Named keys as written in scenarios. Anything else is typed as is.
var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
}

func keyInput(key string) string {
	if k, ok := namedKeys[key]; ok {
		return k
	}
	return key
}

// readyStates returns the document.readyState values that satisfy p.
// Returns nil when returning from the navigation itself is enough.
func readyStates(p document.ReadinessPolicy) map[string]bool {
	switch p {
	case document.WaitUntilDOMContentLoaded:
		return map[string]bool{"interactive": true, "complete": true}
	case document.WaitUntilLoad, document.WaitUntilNetworkIdle:
		return map[string]bool{"complete": true}
	}
	return nil
}
