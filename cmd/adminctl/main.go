// adminctl resets or creates the admin account from the command line, for
// recovering a deployment whose admin password is lost.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sbobina/manager-api-go/pkg/auth"
	"github.com/sbobina/manager-api-go/pkg/database"
	"github.com/sbobina/manager-api-go/pkg/models"
)

func main() {
	// Load .env from project root
	_ = godotenv.Load("../.env")
	_ = godotenv.Load(".env")

	if len(os.Args) < 3 {
		fmt.Println("Usage: adminctl <email> <password>")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Println("Error hashing password:", err)
		os.Exit(1)
	}

	db := database.InitDB()

	var account database.StaffAccount
	if err := db.Where("email = ?", email).First(&account).Error; err == nil {
		account.Role = models.RoleAdmin
		account.PasswordHash = hash
		if err := db.Save(&account).Error; err != nil {
			fmt.Println("Error updating account:", err)
			os.Exit(1)
		}
		fmt.Printf("Account %s promoted to admin with new password\n", email)
		return
	}

	account = database.StaffAccount{
		Name:         "Admin",
		Email:        email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}
	if err := db.Create(&account).Error; err != nil {
		fmt.Println("Error creating account:", err)
		os.Exit(1)
	}
	fmt.Printf("Admin account %s created\n", email)
}
