package version

import (
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/freytube/freytube/theme"
)

var (
	Name        = "freytube"
	Description = "Privacy-first YouTube client with instance failover"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
)

const (
	GithubHomeText  = "github.com/freytube/freytube"
	GithubHomeUri   = "https://github.com/freytube/freytube"
	GithubLatestUri = "https://github.com/freytube/freytube/releases/latest"
)

const banner = `
╔──────────────────────────────────────────────╗
│  ___           _____     _                   │
│ | __| _ ___ _ |_   _|  _| |__  ___           │
│ | _| '_/ -_) || || || || | '_ \/ -_)         │
│ |_||_| \___|\_, ||_| \_,_|_.__/\___|  ▶      │
│             |__/                             │`

// Summary is the one line form used in logs and the version command
func Summary() string {
	return fmt.Sprintf("%s %s (%s, %s/%s)", Name, Version, Commit, runtime.GOOS, runtime.GOARCH)
}

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder
	b.WriteString(theme.ColourSplash(banner + "\n"))
	b.WriteString(theme.ColourSplash("│ "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString("  ")
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString(theme.ColourSplash("  │\n"))
	b.WriteString(theme.ColourSplash("╚──────────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
	}

	vlog.Println(b.String())
}
