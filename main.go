// Requote captures selections from rendered pages as semantic quotes.
package main

import "requote/cmd"

func main() {
	cmd.Execute()
}
