// Command docindex-cli runs the index tools on local files without the
// HTTP server.
package main

func main() {
	Execute()
}
