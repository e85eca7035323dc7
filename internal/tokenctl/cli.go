// Package tokenctl implements the operator command line for API access
// tokens and their owners. It talks to the database directly through
// AccessTokenService and UserService.
package tokenctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/config"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"github.com/dmitrijs2005/classroom/internal/timex"
	"github.com/jessevdk/go-flags"
)

// Store is the part of services.AccessTokenService the commands use.
type Store interface {
	Create(ctx context.Context, p services.CreateAccessTokenParams) (*models.AccessToken, error)
	FindActive(ctx context.Context, secret string) (*models.AccessToken, bool, error)
	ListActive(ctx context.Context) ([]models.AccessToken, error)
	ListActiveForUser(ctx context.Context, userID string) ([]models.AccessToken, error)
	Revoke(ctx context.Context, id, userID string) error
	Prune(ctx context.Context) (int64, error)
	ExpiresIn(token *models.AccessToken) int64
}

// Users is the part of services.UserService the commands use.
type Users interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
}

// Backend is what a command gets once the database is open.
type Backend struct {
	Tokens Store
	Users  Users
}

// OpenFunc connects to the database at dsn. The returned func releases it.
type OpenFunc func(ctx context.Context, dsn string) (*Backend, func() error, error)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	DSN string `short:"d" long:"dsn" env:"CLASSROOM_DATABASE_DSN" description:"PostgreSQL connection string"`

	Issue   IssueCmd   `command:"issue" description:"Issue an access token for a user"`
	List    ListCmd    `command:"list" description:"List active access tokens"`
	Revoke  RevokeCmd  `command:"revoke" description:"Revoke one of a user's access tokens"`
	Inspect InspectCmd `command:"inspect" description:"Look up the token for a secret read from the terminal"`
	Prune   PruneCmd   `command:"prune" description:"Delete expired access tokens"`
	User    UserCmd    `command:"user" description:"Manage token owners"`
}

type CLI struct {
	out  io.Writer
	in   io.Reader
	open OpenFunc

	ctx     context.Context
	dsn     string
	backend *Backend
	closer  func() error
}

// New returns a CLI printing to out that opens the PostgreSQL store.
func New(out io.Writer) *CLI {
	return &CLI{out: out, in: os.Stdin, open: openPostgres}
}

// Run parses args and executes the selected command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	c.ctx = ctx

	opts := &Options{}
	opts.Issue.cli = c
	opts.List.cli = c
	opts.Revoke.cli = c
	opts.Inspect.cli = c
	opts.Prune.cli = c
	opts.User.Add.cli = c

	defaults := &config.Config{}
	defaults.LoadDefaults()

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		c.dsn = opts.DSN
		if c.dsn == "" {
			c.dsn = defaults.DatabaseDSN
		}
		defer c.close()
		return cmd.Execute(args)
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			fmt.Fprintln(c.out, fe.Message)
			return nil
		}
		return err
	}
	return nil
}

func (c *CLI) connect() (*Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	b, closer, err := c.open(c.ctx, c.dsn)
	if err != nil {
		return nil, err
	}
	c.backend, c.closer = b, closer
	return b, nil
}

func (c *CLI) tokens() (Store, error) {
	b, err := c.connect()
	if err != nil {
		return nil, err
	}
	return b.Tokens, nil
}

func (c *CLI) users() (Users, error) {
	b, err := c.connect()
	if err != nil {
		return nil, err
	}
	return b.Users, nil
}

func (c *CLI) close() {
	if c.closer != nil {
		_ = c.closer()
	}
	c.backend, c.closer = nil, nil
}

func openPostgres(ctx context.Context, dsn string) (*Backend, func() error, error) {
	db, err := repomanager.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = dsn

	logger := logging.NewJSON(os.Stderr, "warn")
	rm := repomanager.NewPostgresRepositoryManager()
	return &Backend{
		Tokens: services.NewAccessTokenService(db, rm, cfg, timex.SystemClock{}, logger),
		Users:  services.NewUserService(db, rm, cfg, timex.SystemClock{}),
	}, db.Close, nil
}
