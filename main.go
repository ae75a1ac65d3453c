package main

import "github.com/nsxzhou1114/blog-platform/cmd"

func main() {
	cmd.Execute()
}
