// cmd/seeduser/main.go adds or updates one entry of the user directory file.
// Usage: go run ./cmd/seeduser -file config/users.yaml -name Laura -role admin -pin 4821 -password secret
package main

import (
	"flag"
	"log"
	"strings"

	"inventorypro/internal/model"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	file := flag.String("file", "config/users.yaml", "user directory file (yaml, json or toml)")
	name := flag.String("name", "", "user name")
	role := flag.String("role", string(model.RoleCashier), "admin | cashier")
	pin := flag.String("pin", "", "numeric PIN")
	password := flag.String("password", "", "password, stored as a bcrypt hash")
	flag.Parse()

	if strings.TrimSpace(*name) == "" || (*pin == "" && *password == "") {
		log.Fatal("seeduser: -name and one of -pin or -password are required")
	}
	if r := model.Role(*role); r != model.RoleAdmin && r != model.RoleCashier {
		log.Fatalf("seeduser: unknown role %q", *role)
	}

	entry := map[string]any{"name": *name, "role": *role}
	if *pin != "" {
		entry["pin"] = *pin
	}
	if *password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
		if err != nil {
			log.Fatalf("seeduser: bcrypt error: %v", err)
		}
		entry["password"] = string(hash)
	}

	v := viper.New()
	v.SetConfigFile(*file)
	if err := v.ReadInConfig(); err != nil {
		log.Printf("seeduser: starting a new directory (%v)", err)
	}

	var users []map[string]any
	if err := v.UnmarshalKey("users", &users); err != nil {
		log.Fatalf("seeduser: parse users: %v", err)
	}

	action := "created"
	replaced := false
	for i, u := range users {
		if existing, _ := u["name"].(string); strings.EqualFold(existing, *name) {
			users[i] = entry
			replaced = true
			action = "updated"
			break
		}
	}
	if !replaced {
		users = append(users, entry)
	}

	v.Set("users", users)
	if err := v.WriteConfigAs(*file); err != nil {
		log.Fatalf("seeduser: write %s: %v", *file, err)
	}
	log.Printf("seeduser: %s user %q (%s) in %s", action, *name, *role, *file)
}
