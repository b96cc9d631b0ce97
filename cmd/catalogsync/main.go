package main

import "github.com/jhoicas/catalogo-sync/cmd/catalogsync/cmd"

func main() {
	cmd.Execute()
}
