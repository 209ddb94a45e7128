// Command slides-checker verifies read access to Google Slides presentations
// and extracts their content.
package main

import "github.com/smorand/slides-checker/internal/cli"

func main() {
	cli.Execute()
}
