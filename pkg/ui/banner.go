package ui

import "fmt"

// Version information, overridable at build time via ldflags:
// go build -ldflags "-X github.com/servhound/servhound/pkg/ui.Version=1.0.0"
var (
	Version   = "0.3.0"
	BuildDate = "dev"
	Commit    = "dev"
)

const banner = `
  ___  ___ _ ____   __ /\  /\___  _   _ _ __   __| |
 / __|/ _ \ '__\ \ / // /_/ / _ \| | | | '_ \ / _' |
 \__ \  __/ |   \ V // __  / (_) | |_| | | | | (_| |
 |___/\___|_|    \_/ \/ /_/ \___/ \__,_|_| |_|\__,_|
`

// Banner returns the styled startup banner with version badge.
func Banner() string {
	if NoColor() || !Interactive() {
		return fmt.Sprintf("servhound %s", Version)
	}
	return BannerStyle.Render(banner) + "\n " + VersionStyle.Render("v"+Version) + MutedStyle.Render("  target pipeline workbench") + "\n"
}
