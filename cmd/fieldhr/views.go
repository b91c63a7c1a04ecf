package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/fieldtrack/internal/auth"
	"github.com/dukerupert/fieldtrack/internal/model"
	"github.com/dukerupert/fieldtrack/internal/report"
)

const activeRefresh = 20 * time.Second

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func runOverview(args []string) error {
	fs := flag.NewFlagSet("overview", flag.ExitOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := e.hr(ctx); err != nil {
		return err
	}
	ov, err := e.client.Overview(ctx)
	if err != nil {
		return backendError(err)
	}
	printOverview(os.Stdout, ov)
	return nil
}

func printOverview(w io.Writer, ov model.Overview) {
	fmt.Fprintf(w, "Total marketers:      %d\n", ov.Summary.TotalMarketers)
	fmt.Fprintf(w, "Currently logged in:  %d\n\n", ov.Summary.CurrentlyLoggedIn)
	if len(ov.RecentActivity) == 0 {
		fmt.Fprintln(w, "No recent activity")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tMARKETER\tACTION\tLOCATION")
	for _, a := range ov.RecentActivity {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Time, a.MarketerName, a.Action, a.Location)
	}
	tw.Flush()
}

func runShops(args []string) error {
	fs := flag.NewFlagSet("shops", flag.ExitOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := e.hr(ctx); err != nil {
		return err
	}
	shops, err := e.client.Shops(ctx)
	if err != nil {
		return backendError(err)
	}
	if len(shops) == 0 {
		fmt.Println("No shops registered yet")
		return nil
	}
	tw := newTable(os.Stdout)
	fmt.Fprintln(tw, "ID\tSHOP\tADDRESS")
	for _, s := range shops {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ShopID, s.ShopName, s.ShopAddress)
	}
	return tw.Flush()
}

func runRegisterShop(args []string) error {
	fs := flag.NewFlagSet("register-shop", flag.ExitOnError)
	name := fs.String("name", "", "shop name")
	address := fs.String("address", "", "shop address")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	form := auth.RegisterShopForm{ShopName: *name, ShopAddress: *address}
	if err := form.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	hr, err := e.hr(ctx)
	if err != nil {
		return err
	}
	msg, err := e.client.RegisterShop(ctx, model.NewShop{
		ShopName:           form.ShopName,
		ShopAddress:        form.ShopAddress,
		RegisteredByHRID:   hr.UserID,
		RegisteredByHRName: hr.FullName,
	})
	if err != nil {
		return backendError(err)
	}
	fmt.Println(orDefault(msg, "Shop registered successfully"))
	return nil
}

func runRegisterMarketer(args []string) error {
	fs := flag.NewFlagSet("register-marketer", flag.ExitOnError)
	name := fs.String("name", "", "marketer full name")
	username := fs.String("username", "", "marketer username")
	password := fs.String("password", "", "initial password")
	shop := fs.String("shop", "", "assigned shop id or name")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	hr, err := e.hr(ctx)
	if err != nil {
		return err
	}
	shops, err := e.client.Shops(ctx)
	if err != nil {
		return backendError(err)
	}

	form := auth.RegisterMarketerForm{FullName: *name, Username: *username, Password: *password}
	for _, s := range shops {
		if s.ShopID == *shop || strings.EqualFold(s.ShopName, *shop) {
			form.ShopID = s.ShopID
			break
		}
	}
	if err := form.Validate(); err != nil {
		return err
	}

	msg, err := e.client.RegisterMarketer(ctx, model.NewMarketer{
		FullName:           form.FullName,
		Username:           form.Username,
		Password:           form.Password,
		ShopID:             form.ShopID,
		RegisteredByHRID:   hr.UserID,
		RegisteredByHRName: hr.FullName,
	})
	if err != nil {
		return backendError(err)
	}
	fmt.Println(orDefault(msg, "Marketer registered successfully"))
	return nil
}

func runMarketers(args []string) error {
	fs := flag.NewFlagSet("marketers", flag.ExitOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := e.hr(ctx); err != nil {
		return err
	}
	marketers, err := e.client.Marketers(ctx)
	if err != nil {
		return backendError(err)
	}
	printMarketers(os.Stdout, marketers)
	return nil
}

func printMarketers(w io.Writer, marketers []model.Marketer) {
	if len(marketers) == 0 {
		fmt.Fprintln(w, "No marketers registered yet")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSHOP\tSTATUS\tLAST LOGIN\tHOURS TODAY")
	for _, m := range marketers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s hrs\n",
			m.ID, m.Name, m.AssignedShop, m.Status,
			orDefault(m.LastLogin, "Never"), orDefault(m.HoursToday, "0.0"))
	}
	tw.Flush()
}

func runActive(args []string) error {
	fs := flag.NewFlagSet("active", flag.ExitOnError)
	watch := fs.Bool("watch", false, "refresh every 20 seconds until interrupted")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if _, err := e.hr(ctx); err != nil {
		return err
	}

	show := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		active, err := e.client.ActiveMarketers(reqCtx)
		if err != nil {
			return backendError(err)
		}
		if *watch {
			fmt.Printf("\n%s\n", time.Now().Format("15:04:05"))
		}
		printActive(os.Stdout, report.GroupByCoordinates(active))
		return nil
	}

	if err := show(); err != nil || !*watch {
		return err
	}
	ticker := time.NewTicker(activeRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := show(); err != nil {
				e.logger.Warn("refresh active marketers", "error", err)
			}
		}
	}
}

func printActive(w io.Writer, groups []report.LocationGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No marketers currently logged in")
		return
	}
	tw := newTable(w)
	for _, g := range groups {
		label := g.Coordinates
		if !g.Valid {
			label += " (no GPS)"
		}
		fmt.Fprintf(tw, "%s\t%d marketer(s)\t\n", label, len(g.Marketers))
		for _, m := range g.Marketers {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Name, m.ShopName, report.FormatElapsed(m.ElapsedSeconds))
		}
	}
	tw.Flush()
}

func runLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	xlsx := fs.String("xlsx", "", "also export logs and weekly hours to this workbook")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := e.hr(ctx); err != nil {
		return err
	}
	logs, err := e.client.AttendanceLogs(ctx)
	if err != nil {
		return backendError(err)
	}
	weekly := report.WeeklyHours(logs, time.Now())
	printLogs(os.Stdout, logs, weekly)

	if *xlsx != "" {
		f, err := os.Create(*xlsx)
		if err != nil {
			return err
		}
		if err := report.WriteXLSX(f, logs, weekly); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("\nExported %d rows to %s\n", len(logs), *xlsx)
	}
	return nil
}

func printLogs(w io.Writer, logs []model.AttendanceLog, weekly report.Weekly) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No attendance logs found")
	} else {
		tw := newTable(w)
		fmt.Fprintln(tw, "DATE\tMARKETER\tSHOP\tLOGIN\tLOGOUT\tLOGIN GPS\tLOGOUT GPS\tHOURS")
		for _, l := range logs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.Date, l.MarketerName, l.ShopName, l.LoginTime, l.LogoutTime,
				l.LoginGPS, l.LogoutGPS, report.FormatHoursWorked(l.HoursWorked))
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\nWeek of %s\n", weekly.Start.Format(report.DateLayout))
	tw := newTable(w)
	for i, h := range weekly.Days {
		fmt.Fprintf(tw, "%s\t%.2f h\n", weekdayNames[i], h)
	}
	fmt.Fprintf(tw, "Total\t%.2f h (%s)\n", weekly.Total, weekly.TotalText())
	tw.Flush()
}
