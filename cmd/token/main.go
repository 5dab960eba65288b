// Command token issues an operator access token for the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"stockledger/internal/bootstrap"
)

func main() {
	userID := flag.String("user", "", "operator id recorded on ledger entries")
	email := flag.String("email", "", "operator email")
	roles := flag.String("roles", "", "comma separated roles")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(1)
	}

	cfg, err := bootstrap.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	jwtService, err := bootstrap.NewJWTService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jwt: %v\n", err)
		os.Exit(1)
	}

	var roleList []string
	if *roles != "" {
		roleList = strings.Split(*roles, ",")
	}

	token, expiresAt, err := jwtService.GenerateAccessToken(*userID, *email, roleList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}
