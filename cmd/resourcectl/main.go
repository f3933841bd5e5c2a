// Command resourcectl is a demo client for the resource cache. It serves
// users, teams and server info from a seeded in-memory backend through
// cached resources.
package main

func main() {
	Execute()
}
