// Command ccpace shows Claude usage windows with pacing judgments.
package main

import "github.com/theirongolddev/ccpace/cmd"

func main() {
	cmd.Execute()
}
