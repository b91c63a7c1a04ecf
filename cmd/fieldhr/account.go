package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dukerupert/fieldtrack/internal/api"
	"github.com/dukerupert/fieldtrack/internal/auth"
	"github.com/dukerupert/fieldtrack/internal/model"
)

func runSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	form := auth.SignupForm{FullName: *name, Username: *username, Password: *password, ConfirmPassword: *password}
	if form.Password == "" {
		in := bufio.NewReader(os.Stdin)
		form.Password = prompt(in, "Password: ")
		if hint := auth.PasswordStrength(form.Password).Hint(); hint != "" {
			fmt.Println(hint)
		}
		form.ConfirmPassword = prompt(in, "Confirm password: ")
	}
	if err := form.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	msg, err := e.client.Signup(ctx, api.SignupRequest{
		FullName: form.FullName,
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		return backendError(err)
	}
	if msg == "" {
		msg = "Account created successfully!"
	}
	fmt.Println(msg, "You can now log in with 'fieldhr login'.")
	return nil
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	form := auth.LoginForm{UserType: model.UserTypeHR, Username: *username, Password: *password}
	if form.Password == "" {
		form.Password = prompt(bufio.NewReader(os.Stdin), "Password: ")
	}
	if err := form.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	id, err := e.client.Login(ctx, api.LoginRequest{
		UserType: form.UserType,
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		return backendError(err)
	}
	if id.UserType != model.UserTypeHR {
		return auth.ErrWrongUserType
	}
	if err := e.storage.SaveIdentity(ctx, id); err != nil {
		return fmt.Errorf("save login: %w", err)
	}
	fmt.Printf("Login successful! Welcome, %s\n", id.FullName)
	return nil
}

// runLogout tells the backend and always clears the local login, even when
// the backend cannot be reached.
func runLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if id, err := e.hr(ctx); err == nil {
		if err := e.client.LogoutHR(ctx, id.UserID, id.Username); err != nil {
			e.logger.Warn("hr logout report", "error", err)
		}
	}
	if err := e.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear login: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}
