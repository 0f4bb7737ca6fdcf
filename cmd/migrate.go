package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/psw/store"
	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the database schema" }
func (*migrateCmd) Usage() string {
	return `migrate

Create the missing tables and columns, and seed the reference data (brokers,
account groups, buylist and new company statuses).
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()
	fmt.Printf("Database %s is up to date.\n", e.cfg.DBDriver)
	return subcommands.ExitSuccess
}

type useraddCmd struct {
	username string
	email    string
	fullName string
	admin    bool
}

func (*useraddCmd) Name() string     { return "useradd" }
func (*useraddCmd) Synopsis() string { return "create a user account" }
func (*useraddCmd) Usage() string {
	return `useradd -username <name> -email <address> [-name <full name>] [-admin]

Create an account. The password is read from the first line of stdin.
`
}

func (c *useraddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "Login name, at least 3 characters")
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.fullName, "name", "", "Full name")
	f.BoolVar(&c.admin, "admin", false, "Grant the admin role")
}

func (c *useraddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.email == "" {
		failf("-username and -email are required")
		return subcommands.ExitUsageError
	}
	password, err := readPassword(os.Stdin)
	if err != nil {
		failf("reading password: %v", err)
		return subcommands.ExitFailure
	}

	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()

	role := store.RoleUser
	if c.admin {
		role = store.RoleAdmin
	}
	u, err := e.store.CreateUser(ctx, store.UserRequest{
		Username: c.username,
		Email:    c.email,
		FullName: c.fullName,
		Password: password,
		RoleID:   role,
	})
	if err != nil {
		failf("cannot create user: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("User %s created with id %d.\n", u.Username, u.ID)
	return subcommands.ExitSuccess
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
