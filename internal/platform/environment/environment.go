// Package environment detects the host the registry runs in.
//
// Desktop wrappers (Electron builds of the messenger) are privileged: their
// client is always treated as permanent regardless of what the record says.
package environment

import (
	"strings"

	"github.com/mssola/useragent"

	"registrar/internal/client/models"
)

// Environment answers whether the host is a privileged desktop install.
type Environment interface {
	IsDesktop() bool
}

// Static is a fixed environment, set from configuration or tests.
type Static struct {
	Desktop bool
}

func (s Static) IsDesktop() bool { return s.Desktop }

// Host describes a host detected from its user agent.
type Host struct {
	Desktop     bool
	Class       models.ClassType
	DisplayName string
}

func (h Host) IsDesktop() bool { return h.Desktop }

// DefaultDesktopMarkers are user agent product tokens of desktop wrappers.
var DefaultDesktopMarkers = []string{"Electron/", "Wire/"}

// Detect parses a user agent with the default desktop markers. An empty user
// agent yields a non-desktop host of unknown class.
func Detect(userAgent string) Host {
	return DetectWithMarkers(userAgent, nil)
}

// DetectWithMarkers is Detect with custom desktop markers; nil or empty
// markers mean DefaultDesktopMarkers.
func DetectWithMarkers(userAgent string, markers []string) Host {
	if len(markers) == 0 {
		markers = DefaultDesktopMarkers
	}
	if strings.TrimSpace(userAgent) == "" {
		return Host{Class: models.ClassUnknown, DisplayName: "Unknown Device"}
	}
	ua := useragent.New(userAgent)

	host := Host{
		Class:       classify(ua),
		DisplayName: displayName(ua),
	}
	for _, marker := range markers {
		if strings.Contains(userAgent, marker) {
			host.Desktop = true
			host.Class = models.ClassDesktop
			break
		}
	}
	return host
}

func classify(ua *useragent.UserAgent) models.ClassType {
	platform := ua.Platform()
	switch {
	case platform == "iPad" || (strings.Contains(ua.OS(), "Android") && !ua.Mobile()):
		return models.ClassTablet
	case ua.Mobile():
		return models.ClassPhone
	default:
		return models.ClassDesktop
	}
}

func displayName(ua *useragent.UserAgent) string {
	browser, _ := ua.Browser()
	os := ua.OS()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
