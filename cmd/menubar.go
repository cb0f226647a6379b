package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/pacing"
	"github.com/theirongolddev/ccpace/internal/usage"
)

var menubarCmd = &cobra.Command{
	Use:   "menubar",
	Short: "Print usage in SwiftBar/xbar plugin format",
	Long: "Print the menu bar title, one item per usage window and refresh/open actions\n" +
		"in the SwiftBar/xbar plugin text format. Symlink a wrapper script into the\n" +
		"plugin folder to show it in the macOS menu bar.",
	RunE: runMenubar,
}

func init() {
	rootCmd.AddCommand(menubarCmd)
}

func runMenubar(cmd *cobra.Command, _ []string) error {
	snap, err := fetchSnapshot(cmd.Context(), appCfg, flagInteractive)
	if err != nil {
		snap.Err = friendlyError(err).Error()
	}
	exe, _ := os.Executable()
	fmt.Print(renderMenubar(snap, time.Now(), exe))
	return nil
}

// renderMenubar lays a snapshot out as plugin output. Lines before the
// first "---" form the title; "--" prefixes submenu entries.
func renderMenubar(snap usage.Snapshot, now time.Time, exe string) string {
	d := usage.BuildDetail(snap, now)

	var b strings.Builder
	b.WriteString(usage.MenuTitle(snap, false))
	b.WriteString("\n---\n")

	if snap.Err != "" {
		fmt.Fprintf(&b, "⚠ %s | color=red\n", menuEscape(snap.Err))
	}

	item := func(title string, used *int, subtitle string, tl pacing.Timeline) {
		fmt.Fprintf(&b, "%s: %s", title, usage.FormatPercent(used))
		if !tl.NoData {
			fmt.Fprintf(&b, " %s", tl.Status.Icon())
		}
		b.WriteString("\n")
		if subtitle != "" {
			fmt.Fprintf(&b, "--%s\n", menuEscape(subtitle))
		}
		if !tl.NoData {
			fmt.Fprintf(&b, "--%s | font=Menlo\n", tl.Bar)
			fmt.Fprintf(&b, "--%s\n", menuEscape(tl.Detail()))
		}
	}
	item("Session", snap.Session.UsedPercent, snap.SessionSubtitle(), d.Session)
	item("Weekly (All Models)", snap.AllModels.UsedPercent, snap.AllModels.Subtitle(now), d.AllModels)
	item("Weekly (Sonnet)", snap.Sonnet.UsedPercent, snap.Sonnet.Subtitle(now), d.Sonnet)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "%s | font=Menlo\n", d.Calendar)
	if !snap.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "Updated %s | size=11\n", snap.FetchedAt.Local().Format("3:04 PM"))
	}
	b.WriteString("---\n")
	if exe != "" {
		fmt.Fprintf(&b, "Refresh | bash=%s param1=menubar param2=--interactive terminal=false refresh=true\n", exe)
	} else {
		b.WriteString("Refresh | refresh=true\n")
	}
	fmt.Fprintf(&b, "Open Usage Page | href=%s\n", usage.PageURL)
	return b.String()
}

// menuEscape keeps plugin metadata separators out of item text.
func menuEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "/"), "\n", " ")
}
