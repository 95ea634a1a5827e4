// Command useradmin creates a pre-confirmed account directly in the
// database, bypassing the signup/confirmation flow. Intended for operators
// bootstrapping the first user.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
)

func main() {

	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Enter username")
	username, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	username = strings.TrimSpace(username)

	fmt.Println("Enter email")
	email, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	email = strings.TrimSpace(email)

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	defer db.Close()

	rm, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Println(err.Error())
		return
	}

	repo := rm.Users(db)
	user, err := repo.Create(ctx, &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	})
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if err := repo.UpdateConfirmed(ctx, user.ID); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Printf("Success! Created confirmed user id=%d\n", user.ID)

}
