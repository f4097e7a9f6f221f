package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Tiny operator client: fires the on-demand reminder sweep against a
// running API.
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("ADMIN_API_KEY")
	user := os.Getenv("ADMIN_USER_ID")
	if user == "" {
		user = "admin"
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(api, "/")+"/api/admin/trigger-reminders", nil)
	if err != nil {
		fmt.Println("Bad API_BASE:", err)
		os.Exit(1)
	}
	req.Header.Set("X-User-ID", user)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Sweep triggered:", strings.TrimSpace(string(body)))
	} else {
		fmt.Println("API returned status:", resp.Status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
}
