package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/fieldtrack/internal/api"
	"github.com/dukerupert/fieldtrack/internal/auth"
	"github.com/dukerupert/fieldtrack/internal/model"
	"github.com/dukerupert/fieldtrack/internal/session"
)

const requestTimeout = 30 * time.Second

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// findShop matches a shop by id or, case-insensitively, by name.
func findShop(shops []model.Shop, ref string) (model.Shop, bool) {
	for _, s := range shops {
		if s.ShopID == ref || strings.EqualFold(s.ShopName, ref) {
			return s, true
		}
	}
	return model.Shop{}, false
}

func printShops(w io.Writer, shops []model.Shop) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSHOP\tADDRESS")
	for _, s := range shops {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ShopID, s.ShopName, s.ShopAddress)
	}
	tw.Flush()
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "marketer username")
	password := fs.String("password", "", "password (prompted when empty)")
	shop := fs.String("shop", "", "assigned shop id or name")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL)
	shopsCtx, cancelShops := context.WithTimeout(context.Background(), requestTimeout)
	shops, err := client.Shops(shopsCtx)
	cancelShops()
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}
	if err := auth.ValidateShops(shops); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	if *username == "" {
		*username = prompt(in, "Username: ")
	}
	if *password == "" {
		*password = prompt(in, "Password: ")
	}
	if *shop == "" {
		printShops(os.Stdout, shops)
		*shop = prompt(in, "Shop: ")
	}

	form := auth.LoginForm{
		UserType: model.UserTypeMarketer,
		Username: *username,
		Password: *password,
	}
	if s, ok := findShop(shops, *shop); ok {
		form.ShopID = s.ShopID
	}
	if err := form.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	id, err := client.Login(ctx, api.LoginRequest{
		UserType: form.UserType,
		Username: form.Username,
		Password: form.Password,
		ShopID:   form.ShopID,
	})
	if err != nil {
		var rejected *api.RejectedError
		if errors.As(err, &rejected) {
			return errors.New(rejected.Message)
		}
		return fmt.Errorf("connection error, please try again: %w", err)
	}
	if !id.IsMarketer() {
		return auth.ErrWrongUserType
	}

	storage, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := storage.SaveIdentity(ctx, id); err != nil {
		return fmt.Errorf("save login: %w", err)
	}

	fmt.Printf("Login successful! Welcome %s (%s). Start the agent with 'fieldtrack run'.\n", id.FullName, id.ShopName)
	return nil
}

func runShops(args []string) error {
	fs := flag.NewFlagSet("shops", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	shops, err := api.NewClient(cfg.APIURL).Shops(ctx)
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}
	if len(shops) == 0 {
		fmt.Println("No shops registered yet.")
		return nil
	}
	printShops(os.Stdout, shops)
	return nil
}

func localURL(port, path string) string {
	return "http://127.0.0.1:" + port + path
}

func runLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	if !*yes {
		answer := prompt(bufio.NewReader(os.Stdin), "Are you sure you want to logout? [y/N] ")
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("Logout cancelled.")
			return nil
		}
	}

	body, _ := json.Marshal(map[string]bool{"confirm": true})
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, localURL(cfg.Port, "/api/logout"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent not reachable: %w", err)
	}
	defer resp.Body.Close()

	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !res.Success {
		return errors.New(res.Message)
	}
	fmt.Println(res.Message)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the raw status")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, localURL(cfg.Port, "/api/status"), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent not reachable: %w", err)
	}
	defer resp.Body.Close()

	var st session.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printStatus(os.Stdout, st)
	return nil
}

func printStatus(w io.Writer, st session.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Marketer:\t%s\n", st.MarketerName)
	fmt.Fprintf(tw, "Shop:\t%s\n", st.ShopName)
	fmt.Fprintf(tw, "Status:\t%s (%s)\n", st.Text, st.Indicator)
	fmt.Fprintf(tw, "Location:\t%s, %s\n", st.Latitude, st.Longitude)
	fmt.Fprintf(tw, "Login time:\t%s\n", st.LoginTime)
	fmt.Fprintf(tw, "Elapsed:\t%s\n", st.Elapsed)
	fmt.Fprintf(tw, "Hours today:\t%s\n", st.HoursToday)
	fmt.Fprintf(tw, "Attendance:\t%t\n", st.AttendanceLogged)
	if st.Alert != nil {
		fmt.Fprintf(tw, "Alert:\t[%s] %s\n", st.Alert.Level, st.Alert.Message)
	}
	if st.Ended != "" {
		fmt.Fprintf(tw, "Ended:\t%s\n", st.Ended)
	}
	tw.Flush()
}
