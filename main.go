/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/patitas-adopcion/apiserver/cmd"

// @title Patitas API
// @version 1.0
// @description Publicación de mascotas en adopción y panel de administración.
// @BasePath /api
func main() {
	cmd.Execute()
}
