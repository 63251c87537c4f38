// Command campaignmesh runs the content-campaign agent workflow as an HTTP
// service or an interactive chat.
package main

func main() {
	Execute()
}
