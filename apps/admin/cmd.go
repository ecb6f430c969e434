package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/idhini/core/actor"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	resolver *actor.Resolver
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS] - run database migrations")
	fmt.Println("  addactor -name NAME -email EMAIL [-role ROLE] [-dept DEPARTMENT] - create an actor; the password is prompted next")
	fmt.Println("  adddept -name NAME [-head-id ID] [-head-email EMAIL] - register a department")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addActorCmd := flag.NewFlagSet("addactor", flag.ExitOnError)
	addActorName := addActorCmd.String("name", "", "The actor's full name.")
	addActorEmail := addActorCmd.String("email", "", "The actor's email. The password will be prompted next.")
	addActorRole := addActorCmd.String("role", string(actor.RoleStaff), "One of: admin, depthead, marketing, staff.")
	addActorDept := addActorCmd.String("dept", "", "The actor's declared department name.")

	addDeptCmd := flag.NewFlagSet("adddept", flag.ExitOnError)
	addDeptName := addDeptCmd.String("name", "", "The department name.")
	addDeptHeadID := addDeptCmd.String("head-id", "", "The head actor's id.")
	addDeptHeadEmail := addDeptCmd.String("head-email", "", "The head actor's email.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addactor":
		if err := addActorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addActorName == "" || *addActorEmail == "" {
			addActorCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addActorCmd.Usage()
			return errHelp
		}
		return cli.addActor(*addActorName, *addActorEmail, *addActorRole, *addActorDept, string(pwd))
	case "adddept":
		if err := addDeptCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addDeptName == "" {
			addDeptCmd.Usage()
			return errHelp
		}
		return cli.addDepartment(*addDeptName, *addDeptHeadID, *addDeptHeadEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
