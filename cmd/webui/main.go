package main

import "browser-use-webui/internal/bootstrap"

func main() {
	bootstrap.NewApp().Run()
}
