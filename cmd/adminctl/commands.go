package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
)

var errUsage = errors.New("invalid arguments")

type cli struct {
	api   backend.API
	token string
	opts  dashboard.Options
	out   io.Writer
	now   func() time.Time
}

func newCLI(api backend.API, token string, opts dashboard.Options, out io.Writer) *cli {
	return &cli{api: api, token: token, opts: opts, out: out, now: time.Now}
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	if cmd == "hash-password" {
		return c.hashPassword(rest)
	}
	if cmd != "health" && c.token == "" {
		return fmt.Errorf("%w: an admin token is required (-token or $SORVIDE_ADMIN_TOKEN)", errUsage)
	}

	switch cmd {
	case "licenses":
		return c.licenses(ctx, rest)
	case "activity":
		return c.activity(ctx)
	case "revenue":
		return c.revenue(ctx)
	case "stats":
		return c.stats(ctx)
	case "create":
		return c.create(ctx, rest)
	case "deactivate":
		return c.withKey(rest, func(key string) error {
			if err := c.api.DeactivateLicense(ctx, c.token, key); err != nil {
				return describe(err)
			}
			c.ok("License " + key + " deactivated successfully!")
			return nil
		})
	case "delete":
		return c.withKey(rest, func(key string) error {
			if err := c.api.DeleteLicense(ctx, c.token, key); err != nil {
				return describe(err)
			}
			c.ok("License " + key + " deleted successfully!")
			return nil
		})
	case "email":
		return c.email(ctx, rest)
	case "test-email":
		return c.testEmail(ctx, rest)
	case "health":
		return c.health(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (c *cli) ok(msg string) {
	fmt.Fprintln(c.out, color.GreenString("✓"), msg)
}

// describe keeps the backend's operator-facing text.
func describe(err error) error {
	return errors.New(ierr.Message(err))
}

func (c *cli) withKey(args []string, fn func(key string) error) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: expected exactly one license key", errUsage)
	}
	return fn(strings.TrimSpace(args[0]))
}

func (c *cli) fetch(ctx context.Context, filter license.Filter, search string) ([]license.License, error) {
	licenses, err := c.api.ListLicenses(ctx, c.token, filter, search)
	if err != nil {
		return nil, describe(err)
	}
	return license.Select(licenses, filter, search, c.now()), nil
}

func (c *cli) licenses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("licenses", flag.ContinueOnError)
	fs.SetOutput(c.out)
	filter := fs.String("filter", "all", "all, active, inactive, expired, monthly, activated or not-activated")
	search := fs.String("search", "", "match key, email or name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	licenses, err := c.fetch(ctx, license.ParseFilter(*filter), strings.TrimSpace(*search))
	if err != nil {
		return err
	}
	if len(licenses) == 0 {
		fmt.Fprintln(c.out, "No licenses found")
		return nil
	}

	now := c.now()
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCUSTOMER\tEMAIL\tTYPE\tSTATUS\tEXPIRES\tDAYS LEFT")
	for i := range licenses {
		row := dashboard.NewLicenseRow(&licenses[i], now)
		customer := row.CustomerName
		if customer == "" {
			customer = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Key, customer, row.CustomerEmail, row.Type,
			statusColor(row.Status), row.Expires, toneColor(row.DaysLeftTone, row.DaysLeftDisplay))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%d license(s)\n", len(licenses))
	return nil
}

func statusColor(s license.Status) string {
	switch s {
	case license.StatusActive:
		return color.GreenString(string(s))
	case license.StatusExpired:
		return color.RedString(string(s))
	case license.StatusInactive:
		return color.YellowString(string(s))
	}
	return string(s)
}

func toneColor(t license.Tone, text string) string {
	switch t {
	case license.ToneGood:
		return color.GreenString(text)
	case license.ToneWarn:
		return color.YellowString(text)
	case license.ToneDanger:
		return color.RedString(text)
	}
	return text
}

func (c *cli) activity(ctx context.Context) error {
	activities, err := c.api.ListActivity(ctx, c.token)
	if err != nil {
		return describe(err)
	}
	if len(activities) == 0 {
		fmt.Fprintln(c.out, "No recent activity")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tEVENT\tDETAILS\tCUSTOMER")
	for i := range activities {
		row := dashboard.NewActivityRow(&activities[i])
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.When, color.CyanString(row.Title), row.Details, row.CustomerEmail)
	}
	return w.Flush()
}

func (c *cli) revenue(ctx context.Context) error {
	licenses, err := c.fetch(ctx, license.FilterAll, "")
	if err != nil {
		return err
	}
	r := dashboard.CalculateRevenue(licenses, c.opts.Policy, c.opts.Prices, c.now())
	color.New(color.FgCyan).Fprintf(c.out, "Revenue (%s)\n", r.Policy)
	fmt.Fprintf(c.out, "  Monthly:        $%.2f\n", r.Monthly)
	fmt.Fprintf(c.out, "  Lifetime:       $%.2f\n", r.Lifetime)
	fmt.Fprintf(c.out, "  Total renewals: %d\n", r.TotalRenewals)
	return nil
}

func (c *cli) stats(ctx context.Context) error {
	licenses, err := c.fetch(ctx, license.FilterAll, "")
	if err != nil {
		return err
	}
	st := dashboard.ComputeStats(licenses, c.now())
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", st.Total)
	fmt.Fprintf(w, "Active\t%s\n", color.GreenString("%d", st.Active))
	fmt.Fprintf(w, "Expired\t%s\n", color.RedString("%d", st.Expired))
	fmt.Fprintf(w, "Inactive\t%d\n", st.Inactive)
	fmt.Fprintf(w, "Expiring in 7 days\t%s\n", color.YellowString("%d", st.ExpiringSoon))
	fmt.Fprintf(w, "Activated\t%d\n", st.Activated)
	fmt.Fprintf(w, "Stripe / Manual\t%d / %d\n", st.Stripe, st.Manual)
	fmt.Fprintf(w, "Renewals\t%d\n", st.TotalRenewals)
	// Older backends also report their own revenue figure.
	if legacy, err := c.api.Stats(ctx, c.token); err == nil {
		fmt.Fprintf(w, "Backend monthly revenue\t$%.2f\n", legacy.MonthlyRevenue)
	}
	return w.Flush()
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "customer email")
	name := fs.String("name", "", "customer name")
	days := fs.Int("days", license.MonthlyDays, "3, 7, 30 or 365")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	addr := strings.TrimSpace(*email)
	if !service.ValidEmail(addr) {
		return fmt.Errorf("%w: please enter a valid email address", errUsage)
	}
	if !slices.Contains(license.AllowedDurations, *days) {
		return fmt.Errorf("%w: days must be one of %v", errUsage, license.AllowedDurations)
	}

	key, err := c.api.CreateLicense(ctx, c.token, backend.CreateLicenseRequest{
		Email: addr,
		Name:  strings.TrimSpace(*name),
		Days:  *days,
	})
	if err != nil {
		return describe(err)
	}
	c.ok(service.CreatedMessage(key, *days))
	return nil
}

func (c *cli) email(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("%w: expected a license key", errUsage)
	}
	key := strings.TrimSpace(args[0])

	fs := flag.NewFlagSet("email", flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "recipient; defaults to the license's customer")
	name := fs.String("name", "", "customer name; defaults to the email's local part")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	addr := strings.TrimSpace(*email)
	customer := strings.TrimSpace(*name)
	if addr == "" {
		lic, err := c.api.GetLicense(ctx, c.token, key)
		if err != nil {
			return describe(err)
		}
		addr = lic.CustomerEmail
		if customer == "" {
			customer = lic.CustomerName
		}
	}
	if !service.ValidEmail(addr) {
		return fmt.Errorf("%w: please enter a valid email address", errUsage)
	}
	if customer == "" {
		customer, _, _ = strings.Cut(addr, "@")
	}

	err := c.api.SendLicenseEmail(ctx, c.token, backend.SendLicenseEmailRequest{
		LicenseKey:    key,
		CustomerEmail: addr,
		CustomerName:  customer,
	})
	if err != nil {
		return describe(err)
	}
	c.ok("License email sent to " + addr)
	return nil
}

func (c *cli) testEmail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("test-email", flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "recipient")
	kind := fs.String("type", string(backend.EmailPayment), "payment or renewal")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	addr := strings.TrimSpace(*email)
	if !service.ValidEmail(addr) {
		return fmt.Errorf("%w: please enter a valid email address", errUsage)
	}
	emailType := backend.EmailType(*kind)
	if emailType != backend.EmailPayment && emailType != backend.EmailRenewal {
		return fmt.Errorf("%w: email type must be payment or renewal", errUsage)
	}

	if err := c.api.SendTestEmail(ctx, c.token, addr, emailType); err != nil {
		return describe(err)
	}
	c.ok(fmt.Sprintf("Test %s email sent to %s", emailType, addr))
	return nil
}

func (c *cli) health(ctx context.Context) error {
	h, err := c.api.Health(ctx)
	if err != nil {
		var apiErr *ierr.APIError
		if errors.As(err, &apiErr) {
			return errors.New("backend is not responding")
		}
		return errors.New("cannot connect to backend")
	}
	status := color.GreenString(h.Status)
	if h.Status != "healthy" {
		status = color.YellowString(h.Status)
	}
	fmt.Fprintf(c.out, "System is %s. MongoDB: %s\n", status, h.MongoDB)
	return nil
}

func (c *cli) hashPassword(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: expected exactly one password", errUsage)
	}
	hash, err := service.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, hash)
	return nil
}
