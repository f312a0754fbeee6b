package main

import (
	"fmt"
	"os"

	"github.com/afaf/accounts/internal/cli"
)

// @title                       Accounts API
// @version                     1.0.0
// @description                 Account registration, login and role-based access control.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
