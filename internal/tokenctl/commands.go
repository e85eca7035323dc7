package tokenctl

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
)

type IssueCmd struct {
	User      string `short:"u" long:"user" required:"true" description:"owner user ID"`
	ExpiresAt string `short:"e" long:"expires-at" description:"expiry as RFC 3339, default 30 days from now"`

	cli *CLI
}

func (c *IssueCmd) Execute(_ []string) error {
	params := services.CreateAccessTokenParams{OwnerID: c.User}
	if c.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, c.ExpiresAt)
		if err != nil {
			return fmt.Errorf("--expires-at: %w", err)
		}
		params.ExpiresAt = &t
	}

	store, err := c.cli.tokens()
	if err != nil {
		return err
	}
	token, err := store.Create(c.cli.ctx, params)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.cli.out, "id:         %s\n", token.ID)
	fmt.Fprintf(c.cli.out, "secret:     %s\n", token.Secret)
	fmt.Fprintf(c.cli.out, "expires_at: %s\n", token.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

type ListCmd struct {
	User string `short:"u" long:"user" description:"only tokens owned by this user"`

	cli *CLI
}

func (c *ListCmd) Execute(_ []string) error {
	store, err := c.cli.tokens()
	if err != nil {
		return err
	}

	list := store.ListActive
	if c.User != "" {
		list = func(ctx context.Context) ([]models.AccessToken, error) { return store.ListActiveForUser(ctx, c.User) }
	}
	tokens, err := list(c.cli.ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tEXPIRES AT\tEXPIRES IN")
	for i := range tokens {
		t := &tokens[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%ds\n", t.ID, t.UserID, t.ExpiresAt.UTC().Format(time.RFC3339), store.ExpiresIn(t))
	}
	return w.Flush()
}

type RevokeCmd struct {
	User string `short:"u" long:"user" required:"true" description:"owner user ID"`
	Args struct {
		ID string `positional-arg-name:"token-id"`
	} `positional-args:"yes" required:"yes"`

	cli *CLI
}

func (c *RevokeCmd) Execute(_ []string) error {
	store, err := c.cli.tokens()
	if err != nil {
		return err
	}
	if err := store.Revoke(c.cli.ctx, c.Args.ID, c.User); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("token %s not found for user %s", c.Args.ID, c.User)
		}
		return err
	}
	fmt.Fprintf(c.cli.out, "revoked %s\n", c.Args.ID)
	return nil
}

type InspectCmd struct {
	cli *CLI
}

func (c *InspectCmd) Execute(_ []string) error {
	secret, err := readSecret(c.cli.in, c.cli.out)
	if err != nil {
		return err
	}

	store, err := c.cli.tokens()
	if err != nil {
		return err
	}
	token, ok, err := store.FindActive(c.cli.ctx, secret)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.cli.out, "not found")
		return nil
	}

	fmt.Fprintf(c.cli.out, "id:         %s\n", token.ID)
	fmt.Fprintf(c.cli.out, "owner:      %s\n", token.UserID)
	fmt.Fprintf(c.cli.out, "expires_in: %ds\n", store.ExpiresIn(token))
	return nil
}

type PruneCmd struct {
	cli *CLI
}

func (c *PruneCmd) Execute(_ []string) error {
	store, err := c.cli.tokens()
	if err != nil {
		return err
	}
	n, err := store.Prune(c.cli.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cli.out, "pruned %d expired token(s)\n", n)
	return nil
}

type UserCmd struct {
	Add UserAddCmd `command:"add" description:"Record a user signed in through an OAuth provider"`
}

type UserAddCmd struct {
	Provider string `long:"provider" required:"true" description:"OAuth provider name"`
	UID      string `long:"uid" required:"true" description:"user ID at the provider"`
	UserName string `long:"username" required:"true" description:"unique username"`
	Email    string `long:"email" description:"email address"`
	Name     string `long:"name" description:"display name"`
	Role     string `long:"role" choice:"member" choice:"admin" description:"role, default member"`

	cli *CLI
}

func (c *UserAddCmd) Execute(_ []string) error {
	users, err := c.cli.users()
	if err != nil {
		return err
	}
	u, err := users.Register(c.cli.ctx, &models.User{
		Provider: c.Provider,
		UID:      c.UID,
		UserName: c.UserName,
		Email:    c.Email,
		Name:     c.Name,
		Role:     c.Role,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.cli.out, "id:         %s\n", u.ID)
	fmt.Fprintf(c.cli.out, "username:   %s\n", u.UserName)
	fmt.Fprintf(c.cli.out, "role:       %s\n", u.Role)
	return nil
}
