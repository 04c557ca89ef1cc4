package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finboard/internal/access"
	"finboard/internal/aggregate"
	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/cli"
	"finboard/internal/core"
	"finboard/internal/services"
	"finboard/internal/sheets"
)

const (
	routeReports      = "/app/reports"
	routeNoticeBoard  = "/app/notice-board"
	routeProfile      = "/app/profile"
	routeTransactions = "/app/transactions"
	routeNewTx        = "/app/transactions/new"
	routeMembers      = "/app/members"
	routeSettings     = "/app/settings"
)

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("login", e)
	email := fs.String("email", "", "Account email (prompted when omitted)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	remember := fs.Bool("remember", false, "Keep the session across terminals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := e.app.Authorize(ctx, access.LoginPath); err != nil {
		return err
	}

	var err error
	if strings.TrimSpace(*email) == "" {
		if *email, err = e.prompt("Email: "); err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}
	pw := *password
	if pw == "" {
		if pw, err = e.readPassword("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if strings.TrimSpace(*email) == "" || pw == "" {
		return errors.New("email and password are required")
	}

	u, err := e.app.Machine.Login(ctx, *email, pw, *remember)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Signed in as %s <%s> [%s]\n", u.DisplayName(), u.Email, strings.Join(u.Roles.Strings(), ", "))
	return nil
}

func cmdLogout(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet("logout", e).Parse(args); err != nil {
		return err
	}
	snap := e.app.Machine.Init(ctx)
	if !snap.IsAuthenticated() {
		fmt.Fprintln(e.stdout, "Not signed in")
		return nil
	}
	e.app.Machine.Logout(ctx)
	fmt.Fprintln(e.stdout, "Signed out")
	return nil
}

func cmdWhoami(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet("whoami", e).Parse(args); err != nil {
		return err
	}
	snap := e.app.Machine.Init(ctx)
	if !snap.IsAuthenticated() {
		fmt.Fprintln(e.stdout, "anonymous")
		return nil
	}
	u := snap.User
	tw := e.table()
	fmt.Fprintf(tw, "Name\t%s\n", u.DisplayName())
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Roles\t%s\n", strings.Join(u.Roles.Strings(), ", "))
	if u.Company != nil {
		fmt.Fprintf(tw, "Company\t%s\n", u.Company.Name)
		fmt.Fprintf(tw, "Departments\t%s\n", strings.Join(u.Departments(), ", "))
	}
	fmt.Fprintf(tw, "Verified\t%t\n", u.Verified)
	fmt.Fprintf(tw, "Session\t%s\n", e.app.Session.TokenScope())
	return tw.Flush()
}

func cmdSignup(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("signup", e)
	var data core.SignupData
	fs.StringVar(&data.FirstName, "first", "", "First name")
	fs.StringVar(&data.LastName, "last", "", "Last name")
	fs.StringVar(&data.CompanyName, "company", "", "Company name")
	fs.StringVar(&data.Country, "country", "", "Country")
	fs.StringVar(&data.Phone, "phone", "", "Phone number")
	fs.StringVar(&data.Email, "email", "", "Email")
	fs.StringVar(&data.Password, "password", "", "Password (prompted when omitted)")
	fs.StringVar(&data.ConfirmPassword, "confirm", "", "Password confirmation (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := e.app.Authorize(ctx, "/signup"); err != nil {
		return err
	}

	var err error
	if data.Password == "" {
		if data.Password, err = e.readPassword("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if data.ConfirmPassword == "" {
		if data.ConfirmPassword, err = e.readPassword("Confirm password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	msg, err := e.app.Machine.Signup(ctx, data)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Account created. Check your inbox to verify your email."
	}
	fmt.Fprintln(e.stdout, msg)
	return nil
}

func cmdVerify(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("verify", e)
	token := fs.String("token", "", "Verification token from the email link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Gateway.VerifyEmail(ctx, *token)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Email verified"
	}
	fmt.Fprintln(e.stdout, msg)
	return nil
}

func cmdForgot(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("forgot", e)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Gateway.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "If the account exists, a reset link has been sent"
	}
	fmt.Fprintln(e.stdout, msg)
	return nil
}

func cmdGuard(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("guard", e)
	path := fs.String("path", access.DashboardPath, "Route to check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snap := e.app.Machine.Init(ctx)
	d := e.app.Guard.Check(snap, *path)
	if d.Allow {
		fmt.Fprintf(e.stdout, "allow %s\n", *path)
		return nil
	}
	fmt.Fprintf(e.stdout, "redirect %s\n", d.RedirectTo)
	return nil
}

// filterFlags is the filter set shared by report and export.
type filterFlags struct {
	from, to   string
	department string
	by         string
	year       int
	month      int
}

func (ff *filterFlags) register(e *env, name string, args []string) ([]string, error) {
	fs := newFlagSet(name, e)
	fs.StringVar(&ff.from, "from", "", "First day to include (YYYY-MM-DD)")
	fs.StringVar(&ff.to, "to", "", "Last day to include (YYYY-MM-DD)")
	fs.StringVar(&ff.department, "department", "", "Only this department")
	fs.StringVar(&ff.by, "by", "month", "Bucket by month, day, department or year")
	fs.IntVar(&ff.year, "year", 0, "Year to bucket (default: from the data)")
	fs.IntVar(&ff.month, "month", 0, "Month to bucket with -by day (1-12)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func (ff *filterFlags) filter(loc *time.Location) (aggregate.Filter, error) {
	g, err := aggregate.ParseGranularity(ff.by)
	if err != nil {
		return aggregate.Filter{}, err
	}
	if ff.month < 0 || ff.month > 12 {
		return aggregate.Filter{}, fmt.Errorf("invalid month %d", ff.month)
	}
	f := aggregate.Filter{
		Department:  ff.department,
		Granularity: g,
		Year:        ff.year,
		Month:       time.Month(ff.month),
		Location:    loc,
	}
	if ff.from != "" {
		if f.Start, err = time.ParseInLocation(core.DateLayout, ff.from, loc); err != nil {
			return aggregate.Filter{}, fmt.Errorf("invalid -from: %w", err)
		}
	}
	if ff.to != "" {
		if f.End, err = time.ParseInLocation(core.DateLayout, ff.to, loc); err != nil {
			return aggregate.Filter{}, fmt.Errorf("invalid -to: %w", err)
		}
	}
	return f, nil
}

func cmdReport(ctx context.Context, e *env, args []string) error {
	var ff filterFlags
	if _, err := ff.register(e, "report", args); err != nil {
		return err
	}
	f, err := ff.filter(e.app.Location)
	if err != nil {
		return err
	}
	snap, err := e.app.Authorize(ctx, access.DashboardPath)
	if err != nil {
		return err
	}

	dash, err := e.app.Workspace.Dashboard(ctx, snap, f, time.Now())
	if err != nil {
		return err
	}

	tw := e.table()
	writeRows(tw, sheets.SummaryRows(dash.Report))
	fmt.Fprintln(tw)
	writeRows(tw, sheets.BucketRows(dash.Report))
	if len(dash.Recent) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Recent\t")
		for _, d := range dash.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Date.Format(core.DateLayout), d.Type, d.Name, d.Amount)
		}
	}
	if len(dash.Notices) > 0 {
		fmt.Fprintf(tw, "\nNotices\t%d\n", len(dash.Notices))
	}
	return tw.Flush()
}

func writeRows(w io.Writer, rows [][]any) {
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = fmt.Sprint(c)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

func cmdExport(ctx context.Context, e *env, args []string) error {
	var ff filterFlags
	rest, err := ff.register(e, "export", args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	f, err := ff.filter(e.app.Location)
	if err != nil {
		return err
	}
	if _, err := e.app.Authorize(ctx, routeReports); err != nil {
		return err
	}

	txs, err := e.app.Transactions.ListAll(ctx)
	if err != nil {
		return err
	}
	report := aggregate.Build(txs, f, time.Now())

	bcfg, err := backend.FromAppConfig(e.app.Config)
	if err != nil {
		return err
	}
	res, err := e.app.Exports.CreateWriter(ctx, bcfg)
	if err != nil {
		return err
	}
	defer res.Close()

	ref, err := res.Writer.WriteReport(ctx, report)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	fmt.Fprintf(e.stdout, "Exported %d transactions to %s\n", report.Summary.Count, ref)
	return nil
}

func cmdTransactions(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("transactions", e)
	add := fs.Bool("add", false, "Add a transaction from the flags below")
	date := fs.String("date", time.Now().Format(core.DateLayout), "Transaction date (YYYY-MM-DD)")
	name := fs.String("name", "", "Transaction name")
	amount := fs.String("amount", "", "Amount")
	kind := fs.String("type", "", "income or expense")
	comment := fs.String("comment", "", "Comment")
	department := fs.String("department", "", "Department")
	del := fs.String("delete", "", "Delete the transaction with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *add:
		if _, err := e.app.Authorize(ctx, routeNewTx); err != nil {
			return err
		}
		tx, err := e.app.Transactions.Create(ctx, core.TransactionInput{
			Date:       *date,
			Name:       *name,
			Amount:     core.ParseAmountStrict(*amount),
			Type:       core.TransactionType(*kind),
			Comment:    *comment,
			Department: *department,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Added %s %s %s\n", tx.Type, tx.Name, tx.Amount)
		return nil
	case *del != "":
		if _, err := e.app.Authorize(ctx, routeNewTx); err != nil {
			return err
		}
		txs, err := e.app.Transactions.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.ID == *del {
				if err := e.app.Transactions.Delete(ctx, tx); err != nil {
					return err
				}
				fmt.Fprintf(e.stdout, "Deleted %s\n", tx.ID)
				return nil
			}
		}
		return fmt.Errorf("transaction %s not found", *del)
	}

	if _, err := e.app.Authorize(ctx, routeTransactions); err != nil {
		return err
	}
	txs, err := e.app.Transactions.ListAll(ctx)
	if err != nil {
		return err
	}
	// Undated transactions are listed too, after the dated ones.
	all := make([]aggregate.Dated, 0, len(txs))
	for _, tx := range txs {
		date, _ := aggregate.EffectiveDate(tx, e.app.Location)
		all = append(all, aggregate.Dated{Transaction: tx, Date: date})
	}
	tw := e.table()
	fmt.Fprintln(tw, "ID\tDate\tType\tName\tDepartment\tAmount\tLocked")
	for _, d := range aggregate.Recent(all, len(all)) {
		date := ""
		if !d.Date.IsZero() {
			date = d.Date.Format(core.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			d.ID, date, d.Type, d.Name, d.Department, d.Amount, d.Locked)
	}
	return tw.Flush()
}

func cmdDepartments(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("departments", e)
	set := fs.String("set", "", "Replace the list (comma separated)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *set != "" {
		if _, err := e.app.Authorize(ctx, routeSettings); err != nil {
			return err
		}
		saved, err := e.app.Machine.UpdateDepartments(ctx, splitList(*set))
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Saved %d departments\n", len(saved))
		for _, d := range saved {
			fmt.Fprintln(e.stdout, d)
		}
		return nil
	}

	snap, err := e.app.Authorize(ctx, routeProfile)
	if err != nil {
		return err
	}
	for _, d := range snap.User.Departments() {
		fmt.Fprintln(e.stdout, d)
	}
	return nil
}

func cmdNotices(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("notices", e)
	search := fs.String("search", "", "Match title or keywords")
	kind := fs.String("type", "", "Only this report type")
	title := fs.String("title", "", "Post a notice with this title")
	content := fs.String("content", "", "Text content for -title")
	file := fs.String("file", "", "Upload this PDF for -title")
	del := fs.String("delete", "", "Delete the notice with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snap, err := e.app.Authorize(ctx, routeNoticeBoard)
	if err != nil {
		return err
	}

	if *title != "" || *del != "" {
		if !access.Decide(snap.IsAuthenticated(), snap.Roles().Strings(), access.Manager).Allow {
			return &cli.DeniedError{Path: routeNoticeBoard, RedirectTo: access.DashboardPath}
		}
	}

	switch {
	case *del != "":
		if err := e.app.Reports.Delete(ctx, *del); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Deleted %s\n", *del)
		return nil
	case *title != "" && *file != "":
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		r, err := e.app.Reports.UploadPDF(ctx, *title, filepath.Base(*file), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Posted %s (%s)\n", r.Title, r.ID)
		return nil
	case *title != "":
		r, err := e.app.Reports.CreateText(ctx, *title, *content)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Posted %s (%s)\n", r.Title, r.ID)
		return nil
	}

	list, err := e.app.Reports.List(ctx, services.ReportParams{Search: *search, Type: core.ReportType(*kind)})
	if err != nil {
		return err
	}
	tw := e.table()
	fmt.Fprintln(tw, "ID\tDate\tType\tTitle")
	for _, r := range services.Search(list, *search, *kind) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.UploadDate, r.Type, r.Title)
	}
	return tw.Flush()
}

func cmdMembers(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("members", e)
	invite := fs.String("invite", "", "Invite this email")
	roles := fs.String("roles", "", "Roles for -invite or -id (comma separated)")
	id := fs.String("id", "", "Change the roles of this member")
	remove := fs.String("remove", "", "Remove the member with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := e.app.Authorize(ctx, routeMembers); err != nil {
		return err
	}

	var rs []core.Role
	if *roles != "" {
		rs = core.NewRoles(splitList(*roles)...)
	}

	switch {
	case *invite != "":
		if err := e.app.Members.Invite(ctx, *invite, rs...); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Invited %s\n", *invite)
		return nil
	case *remove != "":
		if err := e.app.Members.Remove(ctx, *remove); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Removed %s\n", *remove)
		return nil
	case *id != "":
		if len(rs) == 0 {
			return errors.New("-id needs -roles")
		}
		u, err := e.app.Members.UpdateRoles(ctx, *id, rs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s now has roles %s\n", u.DisplayName(), strings.Join(u.Roles.Strings(), ", "))
		return nil
	}

	members, err := e.app.Members.List(ctx)
	if err != nil {
		return err
	}
	tw := e.table()
	fmt.Fprintln(tw, "ID\tName\tEmail\tRoles")
	for _, u := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Email, strings.Join(u.Roles.Strings(), ","))
	}
	return tw.Flush()
}

func cmdSettings(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("settings", e)
	theme := fs.String("theme", "", "light, dark or auto")
	currency := fs.String("currency", "", "Three-letter currency code")
	compact := fs.String("compact", "", "on or off")
	animations := fs.String("animations", "", "on or off")
	weekly := fs.String("weekly-reports", "", "on or off")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := e.app.Authorize(ctx, routeSettings); err != nil {
		return err
	}

	st := e.app.Settings
	if *theme != "" {
		if _, err := st.SetTheme(*theme); err != nil {
			return err
		}
	}
	if *currency != "" {
		if _, err := st.SetCurrency(*currency); err != nil {
			return err
		}
	}
	if *compact != "" {
		on, err := parseSwitch(*compact)
		if err != nil {
			return err
		}
		st.SetCompactView(on)
	}
	if *animations != "" {
		on, err := parseSwitch(*animations)
		if err != nil {
			return err
		}
		st.SetAnimations(on)
	}

	prefs, err := st.NotificationPreferences(ctx)
	if err != nil {
		return err
	}
	if *weekly != "" {
		on, err := parseSwitch(*weekly)
		if err != nil {
			return err
		}
		prefs.WeeklyReports = on
		if prefs, err = st.UpdateNotificationPreferences(ctx, prefs); err != nil {
			return err
		}
	}

	a := st.Appearance()
	tw := e.table()
	fmt.Fprintf(tw, "Theme\t%s\n", a.Theme)
	fmt.Fprintf(tw, "Currency\t%s\n", a.Currency)
	fmt.Fprintf(tw, "Compact view\t%t\n", a.CompactView)
	fmt.Fprintf(tw, "Animations\t%t\n", a.AnimationEffects)
	fmt.Fprintf(tw, "Email notifications\t%t\n", prefs.EmailNotifications)
	fmt.Fprintf(tw, "Transaction alerts\t%t\n", prefs.TransactionAlerts)
	fmt.Fprintf(tw, "Weekly reports\t%t\n", prefs.WeeklyReports)
	fmt.Fprintf(tw, "Security alerts\t%t\n", prefs.SecurityAlerts)
	return tw.Flush()
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func cmdEvents(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet("events", e).Parse(args); err != nil {
		return err
	}
	if e.app.Events == nil {
		return errors.New("session events are disabled (set AMQP_URL)")
	}
	ctx, cancel := cli.GracefulShutdown(ctx, e.app.Logger, nil)
	defer cancel()

	err := e.app.Events.ConsumeSessionEvents(ctx, func(ev *amqp.SessionEvent) error {
		_, err := fmt.Fprintf(e.stdout, "%s\t%s\tgen=%d\t%s\n",
			ev.Timestamp.Format(time.RFC3339), ev.State, ev.Generation, ev.UserID)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
