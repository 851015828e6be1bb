package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"carenest/internal/billingclient"
	"carenest/internal/models/response_models"
	"carenest/internal/pricing"
	"carenest/pkg/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := newApp(logger, os.Stdout).Run(os.Args); err != nil {
		logger.Error("billingctl failed", zap.Error(err))
		os.Exit(1)
	}
}

type deps struct {
	client     *billingclient.Client
	sessions   *billingclient.StaticSession
	notifier   billingclient.Notifier
	navigator  billingclient.Navigator
	appBaseURL string
	out        io.Writer
	logger     *zap.Logger
}

func newApp(logger *zap.Logger, out io.Writer) *cli.App {
	var d deps

	selectionFlags := []cli.Flag{
		&cli.StringFlag{Name: "plan", Usage: "plan id (basic, pro, elite)", Required: true},
		&cli.StringFlag{Name: "beds", Usage: "number of beds", Value: "1"},
		&cli.BoolFlag{Name: "boost", Usage: "include the boost add-on"},
		&cli.StringFlag{Name: "promo", Usage: "promo code"},
	}

	return &cli.App{
		Name:      "billingctl",
		Usage:     "inspect plans and drive the owner billing flow",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Usage: "billing service base URL", EnvVars: []string{"BILLING_API_URL"}, Value: "http://localhost:8080"},
			&cli.StringFlag{Name: "token", Usage: "bearer token of the signed-in owner", EnvVars: []string{"BILLING_TOKEN"}},
			&cli.StringFlag{Name: "app-url", Usage: "web app base URL", EnvVars: []string{"APP_BASE_URL"}, Value: "http://localhost:3000"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout", Value: billingclient.DefaultTimeout},
		},
		Before: func(c *cli.Context) error {
			var session *billingclient.Session
			if tok := c.String("token"); tok != "" {
				session = &billingclient.Session{AuthToken: tok}
			}
			d = deps{
				sessions:   billingclient.NewStaticSession(session),
				notifier:   billingclient.NewZapNotifier(logger),
				navigator:  billingclient.NewWriterNavigator(out),
				appBaseURL: c.String("app-url"),
				out:        out,
				logger:     logger,
			}
			d.client = billingclient.NewClient(c.String("api"), d.sessions, billingclient.WithTimeout(c.Duration("timeout")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "plans",
				Usage: "list plans and prices",
				Action: func(c *cli.Context) error {
					return d.plans(c.Context)
				},
			},
			{
				Name:  "quote",
				Usage: "price a selection locally",
				Flags: selectionFlags,
				Action: func(c *cli.Context) error {
					return d.quote(c.Context, c.String("plan"), c.String("beds"), c.Bool("boost"), c.String("promo"))
				},
			},
			{
				Name:  "status",
				Usage: "show the current subscription",
				Action: func(c *cli.Context) error {
					return d.status(c.Context)
				},
			},
			{
				Name:  "subscribe",
				Usage: "start hosted checkout for a selection",
				Flags: selectionFlags,
				Action: func(c *cli.Context) error {
					return d.subscribe(c.Context, c.String("plan"), c.String("beds"), c.Bool("boost"), c.String("promo"))
				},
			},
			{
				Name:  "manage",
				Usage: "open the customer portal",
				Action: func(c *cli.Context) error {
					return d.redirector().InitiateManage(c.Context)
				},
			},
			{
				Name:  "token",
				Usage: "mint a development bearer token signed with JWT_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "user id (uuid)", Required: true},
					&cli.StringFlag{Name: "email", Usage: "user e-mail"},
					&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Required: true},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
				},
				Action: func(c *cli.Context) error {
					userID, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid user id: %w", err)
					}
					tok, err := utils.CreateToken([]byte(c.String("secret")), userID, c.String("email"), c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Fprintln(out, tok)
					return nil
				},
			},
		},
	}
}

func (d *deps) catalog(ctx context.Context) (response_models.PlanCatalogResponse, error) {
	return d.client.Plans(ctx)
}

func (d *deps) plans(ctx context.Context) error {
	catalog, err := d.catalog(ctx)
	if err != nil {
		return err
	}
	for _, p := range catalog.Plans {
		marker := ""
		if p.Recommended {
			marker = " (recommended)"
		}
		fmt.Fprintf(d.out, "%-6s %-8s %s/bed/month%s\n", p.ID, p.Name, pricing.FormatUSD(p.PricePerBed), marker)
		for _, f := range p.Features {
			fmt.Fprintf(d.out, "         - %s\n", f)
		}
	}
	fmt.Fprintf(d.out, "Boost add-on: %s/month\n", pricing.FormatUSD(catalog.BoostPrice))
	return nil
}

func (d *deps) selection(ctx context.Context, planID, beds string, boost bool, promo string) billingclient.Selection {
	sel := billingclient.DefaultSelection()
	sel.SelectPlan(planID)
	sel.SetBedsInput(beds)
	sel.SetBoost(boost)
	if promo != "" {
		result := billingclient.ValidatePromoCode(ctx, d.client, d.notifier, promo)
		sel.ApplyPromo(promo, result)
		fmt.Fprintf(d.out, "Promo %s: %s\n", promo, result.Message)
	}
	return sel
}

func (d *deps) quote(ctx context.Context, planID, beds string, boost bool, promo string) error {
	catalog, err := d.catalog(ctx)
	if err != nil {
		return err
	}
	var plan *response_models.PlanResponse
	for i := range catalog.Plans {
		if catalog.Plans[i].ID == planID {
			plan = &catalog.Plans[i]
		}
	}
	if plan == nil {
		return fmt.Errorf("unknown plan %q", planID)
	}

	sel := d.selection(ctx, planID, beds, boost, promo)
	fmt.Fprintf(d.out, "%s x %d beds", plan.Name, sel.NumberOfBeds)
	if sel.BoostEnabled {
		fmt.Fprint(d.out, " + boost")
	}
	if pct := sel.DiscountPercentage(); pct > 0 {
		fmt.Fprintf(d.out, " - %.0f%%", pct)
	}
	fmt.Fprintf(d.out, " = %s/month\n", pricing.FormatUSD(sel.Total(*plan, catalog.BoostPrice)))
	return nil
}

func (d *deps) status(ctx context.Context) error {
	var opts []billingclient.ReconcilerOption
	if catalog, err := d.catalog(ctx); err == nil {
		opts = append(opts, billingclient.WithPlanNames(catalog.Plans))
	}
	opts = append(opts,
		billingclient.WithLogger(d.logger),
		billingclient.WithLoginRedirect(d.navigator, d.redirectConfig()))

	r := billingclient.NewReconciler(d.client, d.sessions, d.notifier, opts...)
	defer r.Close()

	if _, err := r.Start(ctx); err != nil {
		return err
	}
	v := r.View()
	fmt.Fprintf(d.out, "Status: %s\n", v.StatusLabel)
	if v.CanManage {
		fmt.Fprintf(d.out, "Plan: %s, %d beds", v.PlanName, v.NumberOfBeds)
		if v.HasBoost {
			fmt.Fprint(d.out, ", boost")
		}
		fmt.Fprintln(d.out)
		if v.NextBillingDate != "" {
			fmt.Fprintf(d.out, "Next billing date: %s\n", v.NextBillingDate)
		}
		fmt.Fprintln(d.out, "Run 'billingctl manage' to change or cancel.")
	}
	if v.CanSubscribe {
		fmt.Fprintln(d.out, "Run 'billingctl plans' to view plans.")
	}
	return nil
}

func (d *deps) subscribe(ctx context.Context, planID, beds string, boost bool, promo string) error {
	sel := d.selection(ctx, planID, beds, boost, promo)
	return d.redirector().InitiateCheckout(ctx, sel)
}

func (d *deps) redirectConfig() billingclient.RedirectConfig {
	return billingclient.RedirectConfig{
		LoginURL:            d.appBaseURL + "/login",
		SubscriptionPageURL: d.appBaseURL + "/subscription",
		SuccessURL:          d.appBaseURL + "/subscription?checkout=success",
		CancelURL:           d.appBaseURL + "/pricing?checkout=canceled",
	}
}

func (d *deps) redirector() *billingclient.Redirector {
	return billingclient.NewRedirector(d.client, d.sessions, d.navigator, d.notifier, d.redirectConfig(), d.logger)
}
