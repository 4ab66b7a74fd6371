/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/moksh-codedeveloper/E-Commerce-app-BE/cmd"

func main() {
	cmd.Execute()
}
