package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finsec/internal/accounts"
	"finsec/internal/apperr"
	"finsec/internal/models"
	"finsec/internal/storage"
	"finsec/internal/validate"

	"golang.org/x/term"
)

const (
	defaultDBPath = "finsec.db"
	usage         = "Usage: adduser -email <email> [-password <password>] [-role client|admin] [-plan free|premium] [-db <db_path>]"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command line of adduser.
type options struct {
	email    string
	password string
	role     models.Role
	plan     models.Plan
	dbPath   string
}

func parseOptions(args []string, stdout, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var role, plan string
	fs.StringVar(&opts.email, "email", "", "Account email")
	fs.StringVar(&opts.password, "password", "", "Password (prompted for when omitted)")
	fs.StringVar(&role, "role", string(models.RoleClient), "Account role: client or admin")
	fs.StringVar(&plan, "plan", string(models.PlanFree), "Account plan: free or premium")
	fs.StringVar(&opts.dbPath, "db", defaultDBPath, "SQLite database file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.email == "" {
		fmt.Fprintln(stdout, usage)
		fs.PrintDefaults()
		return opts, errors.New("missing required flags: email")
	}

	opts.role = models.Role(role)
	if opts.role != models.RoleClient && opts.role != models.RoleAdmin {
		return opts, fmt.Errorf("invalid role %q", role)
	}
	opts.plan = models.Plan(plan)
	if opts.plan != models.PlanFree && opts.plan != models.PlanPremium {
		return opts, fmt.Errorf("invalid plan %q", plan)
	}

	// DB_PATH applies unless -db was given explicitly
	if path := os.Getenv("DB_PATH"); path != "" && opts.dbPath == defaultDBPath {
		opts.dbPath = path
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stdout, stderr)
	if err != nil {
		return err
	}

	if opts.password == "" {
		fmt.Fprint(stdout, "Password: ")
		opts.password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(opts.password) == "" {
		return errors.New("password cannot be empty")
	}

	form := validate.SignupForm{Email: opts.email, Password: opts.password, Confirm: opts.password}
	if err := form.Check(); err != nil {
		return errors.New(apperr.Message(err))
	}

	db, err := storage.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := accounts.NewStore(db).Create(opts.email, opts.password, opts.role, opts.plan)
	switch {
	case errors.Is(err, apperr.ErrDuplicateAccount):
		return fmt.Errorf("account %s already exists", opts.email)
	case errors.Is(err, apperr.ErrValidationFailed):
		return errors.New(apperr.Message(err))
	case err != nil:
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Fprintf(stdout, "Account %s created successfully with ID %s (%s, %s)\n", opts.email, id, opts.role, opts.plan)
	return nil
}

// readPassword reads without echo from a terminal and falls back to one
// line of plain input for pipes.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
