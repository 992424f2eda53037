// Package main is the entry point for the catalog dashboard.
//
// @title Catalog Dashboard API
// @version 1.0
// @description Browse the remote product catalog and simulate product writes.
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
package main

import "github.com/yourorg/catalogdash/cmd/catalogdash/cmd"

func main() {
	cmd.Execute()
}
