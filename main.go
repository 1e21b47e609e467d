// Command cpulse analyzes AI tutor conversations for course creators.
package main

import "github.com/theirongolddev/cpulse/cmd"

func main() {
	cmd.Execute()
}
